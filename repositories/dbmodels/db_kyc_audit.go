package dbmodels

import (
	"encoding/json"
	"time"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

type DBKycExtraction struct {
	Id           string    `db:"id"`
	CaseId       string    `db:"case_id"`
	RawDocument  []byte    `db:"raw_document"`
	DocumentType string    `db:"document_type"`
	BlobPath     string    `db:"blob_path"`
	ExtractedAt  time.Time `db:"extracted_at"`
}

const TABLE_KYC_EXTRACTIONS = "kyc_extractions"

var SelectKycExtractionColumn = utils.ColumnList[DBKycExtraction]()

func AdaptKycExtraction(db DBKycExtraction) (models.ExtractionRecord, error) {
	return models.ExtractionRecord{
		Id:           db.Id,
		CaseId:       db.CaseId,
		RawDocument:  json.RawMessage(db.RawDocument),
		DocumentType: db.DocumentType,
		BlobPath:     db.BlobPath,
		ExtractedAt:  db.ExtractedAt,
	}, nil
}

type DBKycRiskAssessment struct {
	Id              string    `db:"id"`
	CaseId          string    `db:"case_id"`
	RiskLevel       string    `db:"risk_level"`
	ConfidenceScore float64   `db:"confidence_score"`
	Reasoning       string    `db:"reasoning"`
	ModelVersion    string    `db:"model_version"`
	AssessedAt      time.Time `db:"assessed_at"`
}

const TABLE_KYC_RISK_ASSESSMENTS = "kyc_risk_assessments"

var SelectKycRiskAssessmentColumn = utils.ColumnList[DBKycRiskAssessment]()

func AdaptKycRiskAssessment(db DBKycRiskAssessment) (models.RiskAssessment, error) {
	return models.RiskAssessment{
		Id:              db.Id,
		CaseId:          db.CaseId,
		RiskLevel:       models.RiskLevel(db.RiskLevel),
		ConfidenceScore: db.ConfidenceScore,
		Reasoning:       db.Reasoning,
		ModelVersion:    db.ModelVersion,
		AssessedAt:      db.AssessedAt,
	}, nil
}

type DBKycDecision struct {
	Id        string    `db:"id"`
	CaseId    string    `db:"case_id"`
	Decision  string    `db:"decision"`
	Note      *string   `db:"note"`
	Actor     string    `db:"actor"`
	DecidedAt time.Time `db:"decided_at"`
}

const TABLE_KYC_DECISIONS = "kyc_decisions"

var SelectKycDecisionColumn = utils.ColumnList[DBKycDecision]()

func AdaptKycDecision(db DBKycDecision) (models.DecisionRecord, error) {
	var note string
	if db.Note != nil {
		note = *db.Note
	}
	return models.DecisionRecord{
		Id:        db.Id,
		CaseId:    db.CaseId,
		Decision:  models.KycDecision(db.Decision),
		Note:      note,
		Actor:     db.Actor,
		DecidedAt: db.DecidedAt,
	}, nil
}

type DBKycStateTransition struct {
	Id        string    `db:"id"`
	CaseId    string    `db:"case_id"`
	FromState *string   `db:"from_state"`
	ToState   string    `db:"to_state"`
	Actor     string    `db:"actor"`
	Reason    string    `db:"reason"`
	CreatedAt time.Time `db:"created_at"`
}

const TABLE_KYC_STATE_TRANSITIONS = "kyc_state_transitions"

var SelectKycStateTransitionColumn = utils.ColumnList[DBKycStateTransition]()

func AdaptKycStateTransition(db DBKycStateTransition) (models.StateTransition, error) {
	from := models.KycStatusNone
	if db.FromState != nil {
		from = models.KycStatusFrom(*db.FromState)
	}
	return models.StateTransition{
		Id:        db.Id,
		CaseId:    db.CaseId,
		FromState: from,
		ToState:   models.KycStatusFrom(db.ToState),
		Actor:     db.Actor,
		Reason:    db.Reason,
		CreatedAt: db.CreatedAt,
	}, nil
}
