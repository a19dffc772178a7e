package usecases

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/repositories/clock"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
	"github.com/checkmarble/kyc-backend/usecases/kyc_features"
	"github.com/checkmarble/kyc-backend/utils"
)

const upstreamReasoning = "reasoning"

type kycAnalysisRepository interface {
	GetKycCaseById(ctx context.Context, exec repositories.Executor, caseId string) (models.KycCase, error)
	GetLatestKycExtraction(ctx context.Context, exec repositories.Executor, caseId string) (*models.ExtractionRecord, error)
	CreateKycRiskAssessment(ctx context.Context, exec repositories.Executor,
		assessment models.RiskAssessment) (models.RiskAssessment, error)
	UpdateKycCaseRiskLevel(ctx context.Context, exec repositories.Executor, caseId string, riskLevel models.RiskLevel) error
}

type extractionBlobReader interface {
	ReadBlob(ctx context.Context, bucketUrl, key string) ([]byte, error)
}

type riskReasoner interface {
	ClassifyRisk(ctx context.Context, payload string) (models.ReasoningOutput, error)
}

type KycAnalysisUsecase struct {
	executorFactory     executor_factory.ExecutorFactory
	transactionFactory  executor_factory.TransactionFactory
	repository          kycAnalysisRepository
	lifecycle           KycLifecycle
	blobRepository      extractionBlobReader
	reasoner            riskReasoner
	metrics             kycMetrics
	clock               clock.Clock
	extractionBucketUrl string
}

// AnalyzeRisk classifies an EXTRACTED case from the de-identified features of its
// latest extraction, then moves it to APPROVED or PENDING_REVIEW. The assessment, the
// risk level and both transitions are committed together or not at all.
func (uc KycAnalysisUsecase) AnalyzeRisk(ctx context.Context, caseId string) (models.KycAnalysisResult, error) {
	caseId = strings.TrimSpace(caseId)
	if caseId == "" {
		return models.KycAnalysisResult{}, errors.Wrap(models.ValidationError, "kycId is required")
	}

	ctx, span := utils.StartSpan(ctx, "usecases.KycAnalysisUsecase.AnalyzeRisk", caseId)
	defer span.End()
	logger := utils.KycCaseLogger(ctx, caseId)

	exec := uc.executorFactory.NewExecutor()
	kycCase, err := uc.repository.GetKycCaseById(ctx, exec, caseId)
	if err != nil {
		return models.KycAnalysisResult{}, err
	}
	if kycCase.Status != models.KycStatusExtracted {
		return models.KycAnalysisResult{}, errors.Wrapf(models.InvalidStateError,
			"kyc case %s is %s, expected %s", caseId, kycCase.Status, models.KycStatusExtracted)
	}

	extraction, err := uc.repository.GetLatestKycExtraction(ctx, exec, caseId)
	if err != nil {
		return models.KycAnalysisResult{}, err
	}
	if extraction == nil {
		return models.KycAnalysisResult{}, errors.Wrapf(models.ErrExtractionNotFound, "kyc case %s", caseId)
	}

	raw, err := uc.readExtraction(ctx, *extraction)
	if err != nil {
		return models.KycAnalysisResult{}, err
	}

	features := kyc_features.Deidentify(kyc_features.Normalize(raw), extraction.DocumentType, uc.clock.Now())
	payload, err := kyc_features.BuildReasoningPayload(features)
	if err != nil {
		return models.KycAnalysisResult{}, err
	}

	start := time.Now()
	output, err := uc.reasoner.ClassifyRisk(ctx, payload)
	uc.metrics.UpstreamCallDone(upstreamReasoning, start, err)
	if err != nil {
		if !errors.Is(err, models.UpstreamError) && ctx.Err() == nil {
			err = errors.Wrap(models.UpstreamError, err.Error())
		}
		return models.KycAnalysisResult{}, errors.Wrapf(err, "risk classification of kyc case %s", caseId)
	}
	classification := kyc_features.ParseRiskOutput(output)

	var transitions []models.StateTransition
	var assessment models.RiskAssessment
	finalStatus := classification.RiskLevel.StatusAfterAnalysis()
	err = uc.transactionFactory.Transaction(ctx, func(tx repositories.Executor) error {
		analyzed, err := uc.lifecycle.Transition(ctx, tx, models.KycTransitionInput{
			CaseId: caseId,
			From:   models.KycStatusExtracted,
			To:     models.KycStatusAnalyzed,
			Actor:  models.ActorSystemAnalysis,
			Reason: fmt.Sprintf("risk:%s", classification.RiskLevel),
		})
		if err != nil {
			return err
		}

		assessment, err = uc.repository.CreateKycRiskAssessment(ctx, tx, models.RiskAssessment{
			Id:              uuid.NewString(),
			CaseId:          caseId,
			RiskLevel:       classification.RiskLevel,
			ConfidenceScore: classification.ConfidenceScore,
			Reasoning:       classification.Reasoning,
			ModelVersion:    classification.ModelVersion,
		})
		if err != nil {
			return errors.Wrap(err, "error recording risk assessment")
		}
		if err := uc.repository.UpdateKycCaseRiskLevel(ctx, tx, caseId, classification.RiskLevel); err != nil {
			return errors.Wrap(err, "error updating kyc case risk level")
		}

		routed, err := uc.lifecycle.Transition(ctx, tx, models.KycTransitionInput{
			CaseId: caseId,
			From:   models.KycStatusAnalyzed,
			To:     finalStatus,
			Actor:  models.ActorSystemAnalysis,
			Reason: fmt.Sprintf("auto:%s", classification.RiskLevel),
		})
		if err != nil {
			return err
		}
		transitions = []models.StateTransition{analyzed, routed}
		return nil
	})
	if err != nil {
		if errors.Is(err, models.InvalidStateError) || errors.Is(err, models.NotFoundError) {
			return models.KycAnalysisResult{}, err
		}
		return models.KycAnalysisResult{}, errors.Mark(err, models.PersistenceError)
	}
	uc.lifecycle.RecordCommitted(transitions...)

	logger.InfoContext(ctx, "kyc risk analyzed",
		"risk_level", classification.RiskLevel,
		"confidence", classification.ConfidenceScore,
		"status", finalStatus)

	return models.KycAnalysisResult{
		CaseId:     caseId,
		Assessment: assessment,
		Status:     finalStatus,
	}, nil
}

func (uc KycAnalysisUsecase) readExtraction(ctx context.Context, extraction models.ExtractionRecord) ([]byte, error) {
	if extraction.BlobPath == "" {
		return nil, errors.Wrapf(models.ErrExtractionBlobUnreadable, "extraction %s has no blob", extraction.Id)
	}
	raw, err := uc.blobRepository.ReadBlob(ctx, uc.extractionBucketUrl, extraction.BlobPath)
	if err != nil {
		return nil, errors.Wrapf(models.ErrExtractionBlobUnreadable, "%s: %s", extraction.BlobPath, err.Error())
	}
	return raw, nil
}
