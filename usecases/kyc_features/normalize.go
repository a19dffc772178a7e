package kyc_features

import (
	"strings"

	"github.com/tidwall/gjson"
)

type identityField int

const (
	fieldFullName identityField = iota
	fieldFirstName
	fieldLastName
	fieldDateOfBirth
	fieldDocumentNumber
	fieldDocumentType
	fieldIssuerCountry
)

// Keys are compared lowercased. Anything not listed here is ignored.
var fieldAliases = map[string]identityField{
	"fullname":        fieldFullName,
	"full_name":       fieldFullName,
	"name":            fieldFullName,
	"firstname":       fieldFirstName,
	"first_name":      fieldFirstName,
	"lastname":        fieldLastName,
	"last_name":       fieldLastName,
	"dob":             fieldDateOfBirth,
	"dateofbirth":     fieldDateOfBirth,
	"date_of_birth":   fieldDateOfBirth,
	"birthdate":       fieldDateOfBirth,
	"birth_date":      fieldDateOfBirth,
	"documentnumber":  fieldDocumentNumber,
	"document_number": fieldDocumentNumber,
	"idnumber":        fieldDocumentNumber,
	"id_number":       fieldDocumentNumber,
	"passportnumber":  fieldDocumentNumber,
	"passport_number": fieldDocumentNumber,
	"passportno":      fieldDocumentNumber,
	"documenttype":    fieldDocumentType,
	"document_type":   fieldDocumentType,
	"doctype":         fieldDocumentType,
	"type":            fieldDocumentType,
	"country":         fieldIssuerCountry,
	"countryregion":   fieldIssuerCountry,
	"issuingcountry":  fieldIssuerCountry,
	"issuing_country": fieldIssuerCountry,
	"issuer_country":  fieldIssuerCountry,
}

// Places where the document intelligence output keeps the identity fields, searched in this order.
var fieldContainers = []string{
	"",
	"fields",
	"documents.0.fields",
	"analyzeResult.documents.0.fields",
}

// Properties holding the value of a typed document intelligence field.
var typedValueKeys = []string{"valueString", "valueDate", "valueCountryRegion", "content"}

// NormalizedIdentity holds the raw personal data read from an extraction. It never
// leaves this package: only the de-identified features derived from it do.
type NormalizedIdentity struct {
	FullName       string
	DateOfBirth    string
	DocumentNumber string
	DocumentType   string
	IssuerCountry  string
}

// Normalize maps the heterogeneous document intelligence output onto the identity
// fields. The first non empty value found for a field wins.
func Normalize(raw []byte) NormalizedIdentity {
	values := make(map[identityField]string)
	if !gjson.ValidBytes(raw) {
		return NormalizedIdentity{}
	}

	for _, container := range fieldContainers {
		node := gjson.ParseBytes(raw)
		if container != "" {
			node = node.Get(container)
		}
		if !node.IsObject() {
			continue
		}

		node.ForEach(func(key, value gjson.Result) bool {
			field, ok := fieldAliases[strings.ToLower(key.String())]
			if !ok {
				return true
			}
			if _, found := values[field]; found {
				return true
			}
			if v := fieldValue(value); v != "" {
				values[field] = v
			}
			return true
		})
	}

	identity := NormalizedIdentity{
		FullName:       values[fieldFullName],
		DateOfBirth:    values[fieldDateOfBirth],
		DocumentNumber: values[fieldDocumentNumber],
		DocumentType:   values[fieldDocumentType],
		IssuerCountry:  values[fieldIssuerCountry],
	}
	if identity.FullName == "" {
		identity.FullName = strings.TrimSpace(values[fieldFirstName] + " " + values[fieldLastName])
	}
	return identity
}

func fieldValue(value gjson.Result) string {
	switch {
	case value.Type == gjson.String:
		return strings.TrimSpace(value.String())
	case value.Type == gjson.Number:
		return value.Raw
	case value.IsObject():
		for _, key := range typedValueKeys {
			if v := value.Get(key); v.Exists() && v.String() != "" {
				return strings.TrimSpace(v.String())
			}
		}
	}
	return ""
}
