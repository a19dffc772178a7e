package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories/dbmodels"
)

func (repo *KycDbRepository) CreateKycCase(ctx context.Context, exec Executor, kycCase models.KycCase) (models.KycCase, error) {
	return SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_KYC_CASES).
			Columns(
				"id",
				"user_id",
				"full_name",
				"date_of_birth",
				"document_type",
				"status",
				"risk_level",
			).
			Values(
				kycCase.Id,
				kycCase.UserId,
				kycCase.FullName,
				kycCase.DateOfBirth,
				kycCase.DocumentType,
				kycCase.Status,
				kycCase.RiskLevel,
			).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectKycCaseColumn, ",")),
		dbmodels.AdaptKycCase,
	)
}

func (repo *KycDbRepository) GetKycCaseById(ctx context.Context, exec Executor, caseId string) (models.KycCase, error) {
	kycCase, err := SqlToOptionalModel(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectKycCaseColumn...).
			From(dbmodels.TABLE_KYC_CASES).
			Where(squirrel.Eq{"id": caseId}),
		dbmodels.AdaptKycCase,
	)
	if err != nil {
		return models.KycCase{}, err
	}
	if kycCase == nil {
		return models.KycCase{}, errors.Wrapf(models.ErrKycCaseNotFound, "kyc case %s", caseId)
	}
	return *kycCase, nil
}

func (repo *KycDbRepository) ListKycCases(ctx context.Context, exec Executor, filters models.KycCaseFilters) ([]models.KycCase, error) {
	query := NewQueryBuilder().
		Select(dbmodels.SelectKycCaseColumn...).
		From(dbmodels.TABLE_KYC_CASES).
		OrderBy("created_at DESC")

	if filters.Status != models.KycStatusNone {
		query = query.Where(squirrel.Eq{"status": filters.Status})
	}
	if filters.Limit > 0 {
		query = query.Limit(uint64(filters.Limit))
	}

	return SqlToListOfModels(ctx, exec, query, dbmodels.AdaptKycCase)
}

// UpdateKycCaseStatus only moves a case that currently sits in the expected state.
// It reports false when no row was updated.
func (repo *KycDbRepository) UpdateKycCaseStatus(
	ctx context.Context,
	exec Executor,
	caseId string,
	from, to models.KycStatus,
) (bool, error) {
	rowsAffected, err := ExecBuilder(ctx, exec,
		NewQueryBuilder().
			Update(dbmodels.TABLE_KYC_CASES).
			Set("status", to).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": caseId}).
			Where(squirrel.Eq{"status": from}),
	)
	if err != nil {
		return false, err
	}
	return rowsAffected == 1, nil
}

func (repo *KycDbRepository) UpdateKycCaseRiskLevel(
	ctx context.Context,
	exec Executor,
	caseId string,
	riskLevel models.RiskLevel,
) error {
	_, err := ExecBuilder(ctx, exec,
		NewQueryBuilder().
			Update(dbmodels.TABLE_KYC_CASES).
			Set("risk_level", riskLevel).
			Set("updated_at", squirrel.Expr("now()")).
			Where(squirrel.Eq{"id": caseId}),
	)
	return err
}
