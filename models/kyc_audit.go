package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

type ExtractionRecord struct {
	Id           string
	CaseId       string
	RawDocument  json.RawMessage
	DocumentType string
	BlobPath     string
	ExtractedAt  time.Time
}

type CreateExtractionInput struct {
	CaseId       string
	RawDocument  json.RawMessage
	DocumentType string
	BlobPath     string
}

const UnknownDocumentType = "unknown"

type RiskAssessment struct {
	Id              string
	CaseId          string
	RiskLevel       RiskLevel
	ConfidenceScore float64
	Reasoning       string
	ModelVersion    string
	AssessedAt      time.Time
}

type KycDecision string

const (
	KycDecisionApproved KycDecision = "APPROVED"
	KycDecisionRejected KycDecision = "REJECTED"
)

// KycDecisionFrom accepts the imperative and the past tense forms, in any case.
func KycDecisionFrom(s string) (KycDecision, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "APPROVE", "APPROVED":
		return KycDecisionApproved, nil
	case "REJECT", "REJECTED":
		return KycDecisionRejected, nil
	}
	return "", errors.Wrapf(ValidationError, "decision must be APPROVE or REJECT, got %q", s)
}

func (d KycDecision) Status() KycStatus {
	if d == KycDecisionApproved {
		return KycStatusApproved
	}
	return KycStatusRejected
}

type DecisionRecord struct {
	Id        string
	CaseId    string
	Decision  KycDecision
	Note      string
	Actor     string
	DecidedAt time.Time
}

type StateTransition struct {
	Id        string
	CaseId    string
	FromState KycStatus
	ToState   KycStatus
	Actor     string
	Reason    string
	CreatedAt time.Time
}

type KycTransitionInput struct {
	CaseId string
	From   KycStatus
	To     KycStatus
	Actor  string
	Reason string
}

type KycCaseHistory struct {
	Transitions []StateTransition
	Assessments []RiskAssessment
	Decisions   []DecisionRecord
}

// Actors recorded on the transitions triggered by the pipeline itself
const (
	ActorSystemIngestion = "system:ingestion"
	ActorSystemAnalysis  = "system:analysis"
	ActorDefaultAdmin    = "admin"
)
