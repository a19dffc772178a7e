package models

import (
	"slices"
	"strings"
	"time"
)

type KycStatus string

const (
	KycStatusNone             KycStatus = ""
	KycStatusCreated          KycStatus = "CREATED"
	KycStatusDocumentUploaded KycStatus = "DOCUMENT_UPLOADED"
	KycStatusExtracted        KycStatus = "EXTRACTED"
	KycStatusAnalyzed         KycStatus = "ANALYZED"
	KycStatusPendingReview    KycStatus = "PENDING_REVIEW"
	KycStatusApproved         KycStatus = "APPROVED"
	KycStatusRejected         KycStatus = "REJECTED"
)

func KycStatusFrom(s string) KycStatus {
	switch KycStatus(s) {
	case KycStatusCreated, KycStatusDocumentUploaded, KycStatusExtracted, KycStatusAnalyzed,
		KycStatusPendingReview, KycStatusApproved, KycStatusRejected:
		return KycStatus(s)
	}
	return KycStatusNone
}

func (s KycStatus) IsTerminal() bool {
	return s == KycStatusApproved || s == KycStatusRejected
}

// Edges of the lifecycle. A case never goes back to a previous state.
var kycTransitions = map[KycStatus][]KycStatus{
	KycStatusNone:             {KycStatusCreated},
	KycStatusCreated:          {KycStatusDocumentUploaded},
	KycStatusDocumentUploaded: {KycStatusExtracted},
	KycStatusExtracted:        {KycStatusAnalyzed},
	KycStatusAnalyzed:         {KycStatusApproved, KycStatusPendingReview},
	KycStatusPendingReview:    {KycStatusApproved, KycStatusRejected},
}

func KycTransitionAllowed(from, to KycStatus) bool {
	return slices.Contains(kycTransitions[from], to)
}

type RiskLevel string

const (
	RiskLevelLow    RiskLevel = "LOW"
	RiskLevelMedium RiskLevel = "MEDIUM"
	RiskLevelHigh   RiskLevel = "HIGH"
)

// RiskLevelFrom is case insensitive, and reports whether the value is a known level.
func RiskLevelFrom(s string) (RiskLevel, bool) {
	switch RiskLevel(strings.ToUpper(strings.TrimSpace(s))) {
	case RiskLevelLow:
		return RiskLevelLow, true
	case RiskLevelMedium:
		return RiskLevelMedium, true
	case RiskLevelHigh:
		return RiskLevelHigh, true
	}
	return "", false
}

// Status reached automatically once the analysis is done
func (r RiskLevel) StatusAfterAnalysis() KycStatus {
	if r == RiskLevelLow {
		return KycStatusApproved
	}
	return KycStatusPendingReview
}

type KycCase struct {
	Id           string
	UserId       string
	FullName     string
	DateOfBirth  time.Time
	DocumentType string
	Status       KycStatus
	RiskLevel    RiskLevel
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type CreateKycCaseInput struct {
	UserId       string
	FullName     string
	DateOfBirth  string
	DocumentType string
}

const DefaultKycDocumentType = "passport"

type KycCaseFilters struct {
	Status KycStatus
	Limit  int
}

const (
	KycPendingReviewDefaultLimit = 50
	KycPendingReviewMaxLimit     = 200
)
