package usecases

import (
	"context"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
	"github.com/checkmarble/kyc-backend/utils"
)

type kycReviewRepository interface {
	GetKycCaseById(ctx context.Context, exec repositories.Executor, caseId string) (models.KycCase, error)
	ListKycCases(ctx context.Context, exec repositories.Executor, filters models.KycCaseFilters) ([]models.KycCase, error)
	GetLatestKycExtraction(ctx context.Context, exec repositories.Executor, caseId string) (*models.ExtractionRecord, error)
	ListKycStateTransitions(ctx context.Context, exec repositories.Executor, caseId string) ([]models.StateTransition, error)
	ListKycRiskAssessments(ctx context.Context, exec repositories.Executor, caseId string) ([]models.RiskAssessment, error)
	ListKycDecisions(ctx context.Context, exec repositories.Executor, caseId string) ([]models.DecisionRecord, error)
	CreateKycDecision(ctx context.Context, exec repositories.Executor, decision models.DecisionRecord) (models.DecisionRecord, error)
}

type KycReviewUsecase struct {
	executorFactory    executor_factory.ExecutorFactory
	transactionFactory executor_factory.TransactionFactory
	repository         kycReviewRepository
	lifecycle          KycLifecycle
}

func (uc KycReviewUsecase) ListPendingReview(ctx context.Context, limit int) ([]models.KycCase, error) {
	if limit <= 0 {
		limit = models.KycPendingReviewDefaultLimit
	}
	limit = min(limit, models.KycPendingReviewMaxLimit)

	return uc.repository.ListKycCases(ctx, uc.executorFactory.NewExecutor(), models.KycCaseFilters{
		Status: models.KycStatusPendingReview,
		Limit:  limit,
	})
}

// GetReviewDetail only exposes the cases waiting for a reviewer.
func (uc KycReviewUsecase) GetReviewDetail(ctx context.Context, caseId string) (models.KycReviewDetail, error) {
	exec := uc.executorFactory.NewExecutor()
	kycCase, err := uc.repository.GetKycCaseById(ctx, exec, caseId)
	if err != nil {
		return models.KycReviewDetail{}, err
	}
	if kycCase.Status != models.KycStatusPendingReview {
		return models.KycReviewDetail{}, errors.Wrapf(models.ErrKycCaseNotInReview, "kyc case %s", caseId)
	}

	extraction, err := uc.repository.GetLatestKycExtraction(ctx, exec, caseId)
	if err != nil {
		return models.KycReviewDetail{}, err
	}
	return models.KycReviewDetail{Case: kycCase, Extraction: extraction}, nil
}

func (uc KycReviewUsecase) GetCaseHistory(ctx context.Context, caseId string) (models.KycCaseHistory, error) {
	exec := uc.executorFactory.NewExecutor()
	if _, err := uc.repository.GetKycCaseById(ctx, exec, caseId); err != nil {
		return models.KycCaseHistory{}, err
	}

	var history models.KycCaseHistory
	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() (err error) {
		history.Transitions, err = uc.repository.ListKycStateTransitions(ctx, exec, caseId)
		return
	})
	group.Go(func() (err error) {
		history.Assessments, err = uc.repository.ListKycRiskAssessments(ctx, exec, caseId)
		return
	})
	group.Go(func() (err error) {
		history.Decisions, err = uc.repository.ListKycDecisions(ctx, exec, caseId)
		return
	})
	if err := group.Wait(); err != nil {
		return models.KycCaseHistory{}, errors.Wrapf(err, "error while loading history of kyc case %s", caseId)
	}

	return history, nil
}

// RecordDecision closes a case under review. The transition and the decision row are
// written in one transaction, so a concurrent decision on the same case fails with an
// InvalidStateError and leaves no decision behind.
func (uc KycReviewUsecase) RecordDecision(ctx context.Context, input models.KycDecisionInput) (models.DecisionRecord, error) {
	ctx, span := utils.StartSpan(ctx, "usecases.KycReviewUsecase.RecordDecision", input.CaseId)
	defer span.End()

	kycCase, err := uc.repository.GetKycCaseById(ctx, uc.executorFactory.NewExecutor(), input.CaseId)
	if err != nil {
		return models.DecisionRecord{}, err
	}
	if kycCase.Status != models.KycStatusPendingReview {
		return models.DecisionRecord{}, errors.Wrapf(models.ErrKycCaseNotPendingReview,
			"kyc case %s is %s", input.CaseId, kycCase.Status)
	}

	// a decision sent without a value rejects the case
	if strings.TrimSpace(input.Decision) == "" {
		input.Decision = string(models.KycDecisionRejected)
	}
	decision, err := models.KycDecisionFrom(input.Decision)
	if err != nil {
		return models.DecisionRecord{}, err
	}

	actor := models.ActorDefaultAdmin
	if creds, ok := utils.CredentialsFromCtx(ctx); ok && creds.Actor != "" {
		actor = creds.Actor
	}
	note := strings.TrimSpace(input.Note)
	reason := note
	if reason == "" {
		reason = fmt.Sprintf("admin:%s", decision)
	}

	var transition models.StateTransition
	record, err := executor_factory.TransactionReturnValue(ctx, uc.transactionFactory,
		func(tx repositories.Executor) (models.DecisionRecord, error) {
			var err error
			transition, err = uc.lifecycle.Transition(ctx, tx, models.KycTransitionInput{
				CaseId: input.CaseId,
				From:   models.KycStatusPendingReview,
				To:     decision.Status(),
				Actor:  actor,
				Reason: reason,
			})
			if err != nil {
				return models.DecisionRecord{}, err
			}
			return uc.repository.CreateKycDecision(ctx, tx, models.DecisionRecord{
				Id:       uuid.NewString(),
				CaseId:   input.CaseId,
				Decision: decision,
				Note:     note,
				Actor:    actor,
			})
		})
	if err != nil {
		return models.DecisionRecord{}, err
	}
	uc.lifecycle.RecordCommitted(transition)

	utils.LoggerFromContext(ctx).InfoContext(ctx, "kyc decision recorded",
		"kyc_id", input.CaseId,
		"decision", decision,
		"actor", actor)
	return record, nil
}
