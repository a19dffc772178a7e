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
	"github.com/checkmarble/kyc-backend/utils"
)

const (
	defaultReadUrlExpiry         = time.Hour
	extractionBlobContentType    = "application/json"
	upstreamDocumentIntelligence = "document_intelligence"
)

type kycIngestionRepository interface {
	GetKycCaseById(ctx context.Context, exec repositories.Executor, caseId string) (models.KycCase, error)
	CreateKycExtraction(ctx context.Context, exec repositories.Executor, newExtractionId string,
		input models.CreateExtractionInput) (models.ExtractionRecord, error)
}

type extractionBlobRepository interface {
	GenerateSignedReadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error)
	WriteBlobIfAbsent(ctx context.Context, bucketUrl, key, contentType string, content []byte) error
	BlobUrl(bucketUrl, key string) string
}

type documentAnalyzer interface {
	AnalyzeDocument(ctx context.Context, documentUrl string) (models.DocumentAnalysisResult, error)
}

type KycIngestionUsecase struct {
	executorFactory  executor_factory.ExecutorFactory
	repository       kycIngestionRepository
	lifecycle        KycLifecycle
	blobRepository   extractionBlobRepository
	documentAnalyzer documentAnalyzer
	metrics          kycMetrics
	clock            clock.Clock
	// bucketUrl holds the uploaded documents, extractionBucketUrl the analysis outputs.
	bucketUrl           string
	extractionBucketUrl string
	readUrlExpiry       time.Duration
}

// IngestDocument runs the document intelligence analysis of an uploaded document and
// keeps its raw output as an immutable blob. A case left in DOCUMENT_UPLOADED by a
// failed analysis can be ingested again.
func (uc KycIngestionUsecase) IngestDocument(ctx context.Context, input models.KycIngestionInput) (models.KycIngestionResult, error) {
	caseId := strings.TrimSpace(input.CaseId)
	if caseId == "" {
		return models.KycIngestionResult{}, errors.Wrap(models.ValidationError, "kycId is required")
	}
	if input.BlobUrl == "" && input.BlobName == "" {
		return models.KycIngestionResult{}, errors.Wrap(models.ValidationError, "one of blobUrl or blobName is required")
	}

	ctx, span := utils.StartSpan(ctx, "usecases.KycIngestionUsecase.IngestDocument", caseId)
	defer span.End()
	logger := utils.KycCaseLogger(ctx, caseId)

	kycCase, err := uc.repository.GetKycCaseById(ctx, uc.executorFactory.NewExecutor(), caseId)
	if err != nil {
		return models.KycIngestionResult{}, err
	}
	if kycCase.Status != models.KycStatusCreated && kycCase.Status != models.KycStatusDocumentUploaded {
		return models.KycIngestionResult{}, errors.Wrapf(models.InvalidStateError,
			"kyc case %s is %s, a document can only be ingested while CREATED", caseId, kycCase.Status)
	}

	var sideEffects models.SideEffects
	if kycCase.Status == models.KycStatusCreated {
		var conflict error
		sideEffects = append(sideEffects, SideEffect(ctx, uc.metrics, "transition_document_uploaded",
			func(ctx context.Context) error {
				_, err := uc.lifecycle.TransitionInTransaction(ctx, models.KycTransitionInput{
					CaseId: caseId,
					From:   models.KycStatusCreated,
					To:     models.KycStatusDocumentUploaded,
					Actor:  models.ActorSystemIngestion,
					Reason: "document uploaded",
				})
				if errors.Is(err, models.InvalidStateError) {
					conflict = err
					return nil
				}
				return err
			}))
		if conflict != nil {
			return models.KycIngestionResult{}, conflict
		}
	}

	documentUrl, err := uc.documentUrl(ctx, input)
	if err != nil {
		return models.KycIngestionResult{}, err
	}

	start := time.Now()
	analysis, err := uc.documentAnalyzer.AnalyzeDocument(ctx, documentUrl)
	uc.metrics.UpstreamCallDone(upstreamDocumentIntelligence, start, err)
	if err != nil {
		if !errors.Is(err, models.UpstreamError) && ctx.Err() == nil {
			err = errors.Wrap(models.UpstreamError, err.Error())
		}
		return models.KycIngestionResult{}, errors.Wrapf(err, "document analysis of kyc case %s", caseId)
	}

	// the analysis output is persisted even when the caller has gone away
	persistCtx := context.WithoutCancel(ctx)
	blobPath, err := uc.storeExtractionBlob(persistCtx, caseId, analysis.Raw)
	if err != nil {
		return models.KycIngestionResult{}, err
	}

	documentType := analysis.DocumentType
	if documentType == "" {
		documentType = models.UnknownDocumentType
	}
	extraction, err := uc.repository.CreateKycExtraction(persistCtx, uc.executorFactory.NewExecutor(), uuid.NewString(),
		models.CreateExtractionInput{
			CaseId:       caseId,
			RawDocument:  analysis.Raw,
			DocumentType: documentType,
			BlobPath:     blobPath,
		})
	if err != nil {
		return models.KycIngestionResult{}, errors.Wrap(errors.Mark(err, models.PersistenceError),
			"error recording extraction")
	}

	sideEffects = append(sideEffects, SideEffect(persistCtx, uc.metrics, "transition_extracted",
		func(ctx context.Context) error {
			_, err := uc.lifecycle.TransitionInTransaction(ctx, models.KycTransitionInput{
				CaseId: caseId,
				From:   models.KycStatusDocumentUploaded,
				To:     models.KycStatusExtracted,
				Actor:  models.ActorSystemIngestion,
				Reason: "document analyzed",
			})
			return err
		}))

	logger.InfoContext(ctx, "kyc document ingested",
		"document_type", documentType,
		"blob_path", blobPath,
		"failed_side_effects", len(sideEffects.Failures()))

	return models.KycIngestionResult{
		CaseId:            caseId,
		Extraction:        extraction,
		ExtractionBlobUrl: uc.blobRepository.BlobUrl(uc.extractionBucketUrl, blobPath),
		SideEffects:       sideEffects,
	}, nil
}

func (uc KycIngestionUsecase) documentUrl(ctx context.Context, input models.KycIngestionInput) (string, error) {
	if input.BlobUrl != "" {
		return input.BlobUrl, nil
	}

	expiry := uc.readUrlExpiry
	if expiry == 0 {
		expiry = defaultReadUrlExpiry
	}
	readUrl, err := uc.blobRepository.GenerateSignedReadUrl(ctx, uc.bucketUrl, input.BlobName, expiry)
	if err != nil {
		return "", errors.WithHint(
			errors.Wrapf(err, "error signing read url for %s", input.BlobName),
			"failed to create read URL",
		)
	}
	return readUrl, nil
}

// storeExtractionBlob writes the analysis output under the per case path, or under a
// timestamped path when an earlier extraction already occupies it.
func (uc KycIngestionUsecase) storeExtractionBlob(ctx context.Context, caseId string, raw []byte) (string, error) {
	key := fmt.Sprintf("%s/document-intel.json", caseId)
	err := uc.blobRepository.WriteBlobIfAbsent(ctx, uc.extractionBucketUrl, key, extractionBlobContentType, raw)
	if errors.Is(err, models.ErrBlobAlreadyExists) {
		key = fmt.Sprintf("%s/document-intel-%d.json", caseId, uc.clock.Now().UnixMilli())
		err = uc.blobRepository.WriteBlobIfAbsent(ctx, uc.extractionBucketUrl, key, extractionBlobContentType, raw)
	}
	if err != nil {
		return "", errors.Wrapf(errors.Mark(err, models.PersistenceError),
			"error storing extraction blob of kyc case %s", caseId)
	}
	return key, nil
}
