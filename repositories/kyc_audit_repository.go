package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories/dbmodels"
)

// The audit tables are append only: this file holds no update nor delete statement.

func (repo *KycDbRepository) CreateKycExtraction(
	ctx context.Context,
	exec Executor,
	newExtractionId string,
	input models.CreateExtractionInput,
) (models.ExtractionRecord, error) {
	extraction, err := SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_KYC_EXTRACTIONS).
			Columns("id", "case_id", "raw_document", "document_type", "blob_path").
			Values(newExtractionId, input.CaseId, []byte(input.RawDocument), input.DocumentType, input.BlobPath).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectKycExtractionColumn, ",")),
		dbmodels.AdaptKycExtraction,
	)
	if IsForeignKeyViolationError(err) {
		return models.ExtractionRecord{}, errors.Wrapf(models.ErrKycCaseNotFound, "kyc case %s", input.CaseId)
	}
	return extraction, err
}

func (repo *KycDbRepository) GetLatestKycExtraction(ctx context.Context, exec Executor, caseId string) (*models.ExtractionRecord, error) {
	return SqlToOptionalModel(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectKycExtractionColumn...).
			From(dbmodels.TABLE_KYC_EXTRACTIONS).
			Where(squirrel.Eq{"case_id": caseId}).
			OrderBy("extracted_at DESC", "seq DESC").
			Limit(1),
		dbmodels.AdaptKycExtraction,
	)
}

func (repo *KycDbRepository) CreateKycRiskAssessment(
	ctx context.Context,
	exec Executor,
	assessment models.RiskAssessment,
) (models.RiskAssessment, error) {
	return SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_KYC_RISK_ASSESSMENTS).
			Columns("id", "case_id", "risk_level", "confidence_score", "reasoning", "model_version").
			Values(
				assessment.Id,
				assessment.CaseId,
				assessment.RiskLevel,
				assessment.ConfidenceScore,
				assessment.Reasoning,
				assessment.ModelVersion,
			).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectKycRiskAssessmentColumn, ",")),
		dbmodels.AdaptKycRiskAssessment,
	)
}

func (repo *KycDbRepository) ListKycRiskAssessments(ctx context.Context, exec Executor, caseId string) ([]models.RiskAssessment, error) {
	return SqlToListOfModels(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectKycRiskAssessmentColumn...).
			From(dbmodels.TABLE_KYC_RISK_ASSESSMENTS).
			Where(squirrel.Eq{"case_id": caseId}).
			OrderBy("seq"),
		dbmodels.AdaptKycRiskAssessment,
	)
}

func (repo *KycDbRepository) CreateKycDecision(
	ctx context.Context,
	exec Executor,
	decision models.DecisionRecord,
) (models.DecisionRecord, error) {
	var note *string
	if decision.Note != "" {
		note = &decision.Note
	}

	return SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_KYC_DECISIONS).
			Columns("id", "case_id", "decision", "note", "actor").
			Values(decision.Id, decision.CaseId, decision.Decision, note, decision.Actor).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectKycDecisionColumn, ",")),
		dbmodels.AdaptKycDecision,
	)
}

func (repo *KycDbRepository) ListKycDecisions(ctx context.Context, exec Executor, caseId string) ([]models.DecisionRecord, error) {
	return SqlToListOfModels(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectKycDecisionColumn...).
			From(dbmodels.TABLE_KYC_DECISIONS).
			Where(squirrel.Eq{"case_id": caseId}).
			OrderBy("seq"),
		dbmodels.AdaptKycDecision,
	)
}

func (repo *KycDbRepository) CreateKycStateTransition(
	ctx context.Context,
	exec Executor,
	transition models.StateTransition,
) (models.StateTransition, error) {
	var from *string
	if transition.FromState != models.KycStatusNone {
		s := string(transition.FromState)
		from = &s
	}

	return SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_KYC_STATE_TRANSITIONS).
			Columns("id", "case_id", "from_state", "to_state", "actor", "reason").
			Values(transition.Id, transition.CaseId, from, transition.ToState, transition.Actor, transition.Reason).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectKycStateTransitionColumn, ",")),
		dbmodels.AdaptKycStateTransition,
	)
}

// ListKycStateTransitions returns the ledger of a case, oldest first. Replaying it
// yields the current status of the case.
func (repo *KycDbRepository) ListKycStateTransitions(ctx context.Context, exec Executor, caseId string) ([]models.StateTransition, error) {
	return SqlToListOfModels(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectKycStateTransitionColumn...).
			From(dbmodels.TABLE_KYC_STATE_TRANSITIONS).
			Where(squirrel.Eq{"case_id": caseId}).
			OrderBy("seq"),
		dbmodels.AdaptKycStateTransition,
	)
}
