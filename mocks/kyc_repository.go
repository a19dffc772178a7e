package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories"
)

type KycRepository struct {
	mock.Mock
}

func (r *KycRepository) CreateKycCase(ctx context.Context, exec repositories.Executor, kycCase models.KycCase) (models.KycCase, error) {
	args := r.Called(ctx, exec, kycCase)
	return args.Get(0).(models.KycCase), args.Error(1)
}

func (r *KycRepository) GetKycCaseById(ctx context.Context, exec repositories.Executor, caseId string) (models.KycCase, error) {
	args := r.Called(ctx, exec, caseId)
	return args.Get(0).(models.KycCase), args.Error(1)
}

func (r *KycRepository) ListKycCases(ctx context.Context, exec repositories.Executor, filters models.KycCaseFilters) ([]models.KycCase, error) {
	args := r.Called(ctx, exec, filters)
	return args.Get(0).([]models.KycCase), args.Error(1)
}

func (r *KycRepository) UpdateKycCaseStatus(ctx context.Context, exec repositories.Executor, caseId string,
	from, to models.KycStatus,
) (bool, error) {
	args := r.Called(ctx, exec, caseId, from, to)
	return args.Bool(0), args.Error(1)
}

func (r *KycRepository) UpdateKycCaseRiskLevel(ctx context.Context, exec repositories.Executor, caseId string,
	riskLevel models.RiskLevel,
) error {
	args := r.Called(ctx, exec, caseId, riskLevel)
	return args.Error(0)
}

func (r *KycRepository) CreateKycStateTransition(ctx context.Context, exec repositories.Executor,
	transition models.StateTransition,
) (models.StateTransition, error) {
	args := r.Called(ctx, exec, transition)
	return args.Get(0).(models.StateTransition), args.Error(1)
}

func (r *KycRepository) ListKycStateTransitions(ctx context.Context, exec repositories.Executor, caseId string) ([]models.StateTransition, error) {
	args := r.Called(ctx, exec, caseId)
	return args.Get(0).([]models.StateTransition), args.Error(1)
}

func (r *KycRepository) CreateKycExtraction(ctx context.Context, exec repositories.Executor, newExtractionId string,
	input models.CreateExtractionInput,
) (models.ExtractionRecord, error) {
	args := r.Called(ctx, exec, newExtractionId, input)
	return args.Get(0).(models.ExtractionRecord), args.Error(1)
}

func (r *KycRepository) GetLatestKycExtraction(ctx context.Context, exec repositories.Executor, caseId string) (*models.ExtractionRecord, error) {
	args := r.Called(ctx, exec, caseId)
	return args.Get(0).(*models.ExtractionRecord), args.Error(1)
}

func (r *KycRepository) CreateKycRiskAssessment(ctx context.Context, exec repositories.Executor,
	assessment models.RiskAssessment,
) (models.RiskAssessment, error) {
	args := r.Called(ctx, exec, assessment)
	return args.Get(0).(models.RiskAssessment), args.Error(1)
}

func (r *KycRepository) ListKycRiskAssessments(ctx context.Context, exec repositories.Executor, caseId string) ([]models.RiskAssessment, error) {
	args := r.Called(ctx, exec, caseId)
	return args.Get(0).([]models.RiskAssessment), args.Error(1)
}

func (r *KycRepository) CreateKycDecision(ctx context.Context, exec repositories.Executor,
	decision models.DecisionRecord,
) (models.DecisionRecord, error) {
	args := r.Called(ctx, exec, decision)
	return args.Get(0).(models.DecisionRecord), args.Error(1)
}

func (r *KycRepository) ListKycDecisions(ctx context.Context, exec repositories.Executor, caseId string) ([]models.DecisionRecord, error) {
	args := r.Called(ctx, exec, caseId)
	return args.Get(0).([]models.DecisionRecord), args.Error(1)
}

func (r *KycRepository) CreateUser(ctx context.Context, exec repositories.Executor, user models.User) (models.User, error) {
	args := r.Called(ctx, exec, user)
	return args.Get(0).(models.User), args.Error(1)
}

func (r *KycRepository) GetUserByEmail(ctx context.Context, exec repositories.Executor, email string) (models.User, error) {
	args := r.Called(ctx, exec, email)
	return args.Get(0).(models.User), args.Error(1)
}

func (r *KycRepository) Liveness(ctx context.Context, exec repositories.Executor) error {
	args := r.Called(ctx, exec)
	return args.Error(0)
}
