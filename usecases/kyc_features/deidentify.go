package kyc_features

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"math"
	"strings"
	"time"
	"unicode"

	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/pure_utils"
)

const maskedPrefix = "****"

var dateOfBirthLayouts = []string{time.DateOnly, time.RFC3339}

// Deidentify keeps only what the risk classification needs. The full name, the date
// of birth and the document number are dropped.
func Deidentify(identity NormalizedIdentity, fallbackDocumentType string, now time.Time) models.RiskFeatures {
	documentType := identity.DocumentType
	if documentType == "" {
		documentType = fallbackDocumentType
	}

	issuerCountry := identity.IssuerCountry
	if issuerCountry != "" {
		issuerCountry = pure_utils.NormalizeCountry(issuerCountry)
	}

	return models.RiskFeatures{
		Age:                  AgeAt(identity.DateOfBirth, now),
		DocumentType:         documentType,
		DocumentNumberMasked: MaskDocumentNumber(identity.DocumentNumber),
		DocumentNumberHash:   HashDocumentNumber(identity.DocumentNumber),
		IssuerCountry:        issuerCountry,
	}
}

// AgeAt returns nil when the date of birth is missing, unparseable or in the future.
func AgeAt(dateOfBirth string, now time.Time) *int {
	dob, ok := ParseDateOfBirth(dateOfBirth)
	if !ok || dob.After(now) {
		return nil
	}
	days := now.Sub(dob).Hours() / 24
	age := int(math.Floor(days / 365.25))
	return &age
}

func ParseDateOfBirth(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	for _, layout := range dateOfBirthLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func stripWhitespace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func MaskDocumentNumber(number string) string {
	stripped := stripWhitespace(number)
	if stripped == "" {
		return ""
	}
	runes := []rune(stripped)
	if len(runes) <= 4 {
		return maskedPrefix
	}
	return maskedPrefix + string(runes[len(runes)-4:])
}

// HashDocumentNumber is a sha256 hex digest, stable across the whitespace variations
// of the same number.
func HashDocumentNumber(number string) string {
	stripped := stripWhitespace(number)
	if stripped == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(stripped))
	return hex.EncodeToString(sum[:])
}

func BuildReasoningPayload(features models.RiskFeatures) (string, error) {
	payload, err := json.Marshal(features)
	if err != nil {
		return "", errors.Wrap(err, "failed to marshal risk features")
	}
	return string(payload), nil
}
