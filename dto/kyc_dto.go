package dto

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v5"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/pure_utils"
)

type StartKycBody struct {
	UserId   string `json:"userId"`
	IdType   string `json:"idType"`
	FullName string `json:"fullName"`
	Dob      string `json:"dob"`
}

type UploadDocumentBody struct {
	KycId    string `json:"kycId"`
	BlobUrl  string `json:"blobUrl"`
	BlobName string `json:"blobName"`
}

type AnalyzeBody struct {
	KycId string `json:"kycId"`
}

type DecisionBody struct {
	Decision string `json:"decision"`
	Note     string `json:"note"`
}

type APIKycCase struct {
	Id           string    `json:"id"`
	UserId       string    `json:"userId"`
	FullName     string    `json:"fullName"`
	Dob          string    `json:"dob"`
	DocumentType string    `json:"documentType"`
	Status       string    `json:"status"`
	RiskLevel    string    `json:"riskLevel"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

func AdaptKycCaseDto(c models.KycCase) APIKycCase {
	return APIKycCase{
		Id:           c.Id,
		UserId:       c.UserId,
		FullName:     c.FullName,
		Dob:          c.DateOfBirth.Format(time.DateOnly),
		DocumentType: c.DocumentType,
		Status:       string(c.Status),
		RiskLevel:    string(c.RiskLevel),
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

type APIExtraction struct {
	Id           string          `json:"id"`
	KycId        string          `json:"kycId"`
	RawDocument  json.RawMessage `json:"rawDocument"`
	DocumentType string          `json:"documentType"`
	BlobPath     string          `json:"blobPath"`
	ExtractedAt  time.Time       `json:"extractedAt"`
}

func AdaptExtractionDto(e models.ExtractionRecord) APIExtraction {
	raw := e.RawDocument
	if len(raw) == 0 {
		raw = json.RawMessage("null")
	}
	return APIExtraction{
		Id:           e.Id,
		KycId:        e.CaseId,
		RawDocument:  raw,
		DocumentType: e.DocumentType,
		BlobPath:     e.BlobPath,
		ExtractedAt:  e.ExtractedAt,
	}
}

type APIRiskAssessment struct {
	Id              string    `json:"id"`
	KycId           string    `json:"kycId"`
	RiskLevel       string    `json:"riskLevel"`
	ConfidenceScore float64   `json:"confidenceScore"`
	Reasoning       string    `json:"reasoning"`
	ModelVersion    string    `json:"modelVersion"`
	AssessedAt      time.Time `json:"assessedAt"`
}

func AdaptRiskAssessmentDto(a models.RiskAssessment) APIRiskAssessment {
	return APIRiskAssessment{
		Id:              a.Id,
		KycId:           a.CaseId,
		RiskLevel:       string(a.RiskLevel),
		ConfidenceScore: a.ConfidenceScore,
		Reasoning:       a.Reasoning,
		ModelVersion:    a.ModelVersion,
		AssessedAt:      a.AssessedAt,
	}
}

type APIDecision struct {
	Id        string      `json:"id"`
	KycId     string      `json:"kycId"`
	Decision  string      `json:"decision"`
	Note      null.String `json:"note"`
	Actor     string      `json:"actor"`
	DecidedAt time.Time   `json:"decidedAt"`
}

func AdaptDecisionDto(d models.DecisionRecord) APIDecision {
	return APIDecision{
		Id:        d.Id,
		KycId:     d.CaseId,
		Decision:  string(d.Decision),
		Note:      null.NewString(d.Note, d.Note != ""),
		Actor:     d.Actor,
		DecidedAt: d.DecidedAt,
	}
}

type APIStateTransition struct {
	Id        string      `json:"id"`
	KycId     string      `json:"kycId"`
	FromState null.String `json:"fromState"`
	ToState   string      `json:"toState"`
	Actor     string      `json:"actor"`
	Reason    null.String `json:"reason"`
	CreatedAt time.Time   `json:"createdAt"`
}

func AdaptStateTransitionDto(t models.StateTransition) APIStateTransition {
	return APIStateTransition{
		Id:        t.Id,
		KycId:     t.CaseId,
		FromState: null.NewString(string(t.FromState), t.FromState != models.KycStatusNone),
		ToState:   string(t.ToState),
		Actor:     t.Actor,
		Reason:    null.NewString(t.Reason, t.Reason != ""),
		CreatedAt: t.CreatedAt,
	}
}

type APIKycHistory struct {
	Transitions []APIStateTransition `json:"transitions"`
	Assessments []APIRiskAssessment  `json:"assessments"`
	Decisions   []APIDecision        `json:"decisions"`
}

func AdaptKycHistoryDto(h models.KycCaseHistory) APIKycHistory {
	return APIKycHistory{
		Transitions: pure_utils.Map(h.Transitions, AdaptStateTransitionDto),
		Assessments: pure_utils.Map(h.Assessments, AdaptRiskAssessmentDto),
		Decisions:   pure_utils.Map(h.Decisions, AdaptDecisionDto),
	}
}

// AdaptSideEffectFailuresDto lists the secondary writes that failed. The errors are
// not exposed to the client.
func AdaptSideEffectFailuresDto(s models.SideEffects) []string {
	failures := s.Failures()
	names := make([]string, 0, len(failures))
	for _, f := range failures {
		names = append(names, f.Name)
	}
	return names
}
