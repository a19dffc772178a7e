package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/checkmarble/kyc-backend/mocks"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories/clock"
)

type KycIngestionUsecaseTestSuite struct {
	suite.Suite
	repository         *mocks.KycRepository
	executor           *mocks.Transaction
	executorFactory    *mocks.ExecutorFactory
	transaction        *mocks.Transaction
	transactionFactory *mocks.TransactionFactory
	blobRepository     *mocks.BlobRepository
	documentAnalyzer   *mocks.DocumentAnalyzer
	metrics            *recordingMetrics
	clock              *clock.Mock

	analysis models.DocumentAnalysisResult
}

func (suite *KycIngestionUsecaseTestSuite) SetupTest() {
	suite.repository = new(mocks.KycRepository)
	suite.executor = new(mocks.Transaction)
	suite.executorFactory = new(mocks.ExecutorFactory)
	suite.transaction = new(mocks.Transaction)
	suite.transactionFactory = &mocks.TransactionFactory{TxMock: suite.transaction}
	suite.blobRepository = new(mocks.BlobRepository)
	suite.documentAnalyzer = new(mocks.DocumentAnalyzer)
	suite.metrics = newRecordingMetrics()
	suite.clock = clock.NewMock(time.UnixMilli(1717243200000).UTC())

	suite.analysis = models.DocumentAnalysisResult{
		Raw:          []byte(`{"status":"succeeded","analyzeResult":{"documents":[{"docType":"idDocument.passport"}]}}`),
		DocumentType: "idDocument.passport",
	}
	suite.executorFactory.On("NewExecutor").Return(suite.executor)
}

func (suite *KycIngestionUsecaseTestSuite) makeUsecase() KycIngestionUsecase {
	return KycIngestionUsecase{
		executorFactory:     suite.executorFactory,
		repository:          suite.repository,
		lifecycle:           NewKycLifecycle(suite.transactionFactory, suite.repository, suite.metrics),
		blobRepository:      suite.blobRepository,
		documentAnalyzer:    suite.documentAnalyzer,
		metrics:             suite.metrics,
		clock:               suite.clock,
		bucketUrl:           testBucketUrl,
		extractionBucketUrl: testExtractionBucketUrl,
	}
}

func (suite *KycIngestionUsecaseTestSuite) AssertExpectations() {
	t := suite.T()
	suite.repository.AssertExpectations(t)
	suite.transactionFactory.AssertExpectations(t)
	suite.blobRepository.AssertExpectations(t)
	suite.documentAnalyzer.AssertExpectations(t)
}

func (suite *KycIngestionUsecaseTestSuite) givenCase(status models.KycStatus) {
	suite.repository.On("GetKycCaseById", mock.Anything, suite.executor, testCaseId).
		Return(models.KycCase{Id: testCaseId, Status: status}, nil)
}

func (suite *KycIngestionUsecaseTestSuite) expectTransition(from, to models.KycStatus) {
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, testCaseId, from, to).
		Return(true, nil).Once()
	suite.repository.On("CreateKycStateTransition", mock.Anything, suite.transaction,
		mock.MatchedBy(func(t models.StateTransition) bool {
			return t.FromState == from && t.ToState == to && t.Actor == models.ActorSystemIngestion
		})).
		Return(models.StateTransition{CaseId: testCaseId, FromState: from, ToState: to}, nil).Once()
}

func (suite *KycIngestionUsecaseTestSuite) expectExtractionRecorded(blobPath string) {
	suite.repository.On("CreateKycExtraction", mock.Anything, suite.executor, anyUuid(),
		mock.MatchedBy(func(input models.CreateExtractionInput) bool {
			return input.CaseId == testCaseId && input.BlobPath == blobPath &&
				input.DocumentType == "idDocument.passport"
		})).
		Return(models.ExtractionRecord{Id: "extraction-1", CaseId: testCaseId, BlobPath: blobPath}, nil)
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_fromBlobName() {
	suite.givenCase(models.KycStatusCreated)
	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	suite.expectTransition(models.KycStatusCreated, models.KycStatusDocumentUploaded)
	suite.blobRepository.On("GenerateSignedReadUrl", mock.Anything, testBucketUrl,
		testCaseId+"/document-1.jpg", time.Hour).
		Return("https://storage.example/doc?sig=read", nil)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, "https://storage.example/doc?sig=read").
		Return(suite.analysis, nil)
	suite.blobRepository.On("WriteBlobIfAbsent", mock.Anything, testExtractionBucketUrl,
		testCaseId+"/document-intel.json", "application/json", suite.analysis.Raw).Return(nil)
	suite.expectExtractionRecorded(testCaseId + "/document-intel.json")
	suite.expectTransition(models.KycStatusDocumentUploaded, models.KycStatusExtracted)
	suite.blobRepository.On("BlobUrl", testExtractionBucketUrl, testCaseId+"/document-intel.json").
		Return("mem://kyc-extractions/" + testCaseId + "/document-intel.json")

	result, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:   testCaseId,
		BlobName: testCaseId + "/document-1.jpg",
	})

	suite.Require().NoError(err)
	suite.Equal(testCaseId, result.CaseId)
	suite.Equal("extraction-1", result.Extraction.Id)
	suite.Equal("mem://kyc-extractions/"+testCaseId+"/document-intel.json", result.ExtractionBlobUrl)
	suite.Empty(result.SideEffects.Failures())
	suite.Equal([]string{"CREATED->DOCUMENT_UPLOADED", "DOCUMENT_UPLOADED->EXTRACTED"}, suite.metrics.transitions)
	suite.Equal(1, suite.metrics.upstreamCalls[upstreamDocumentIntelligence])
	suite.AssertExpectations()
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_retryAfterFailedAnalysisKeepsFirstBlob() {
	suite.givenCase(models.KycStatusDocumentUploaded)
	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, "https://partner.example/doc.jpg").
		Return(suite.analysis, nil)
	suite.blobRepository.On("WriteBlobIfAbsent", mock.Anything, testExtractionBucketUrl,
		testCaseId+"/document-intel.json", mock.Anything, mock.Anything).
		Return(errors.Wrap(models.ErrBlobAlreadyExists, "mem"))
	retryKey := testCaseId + "/document-intel-1717243200000.json"
	suite.blobRepository.On("WriteBlobIfAbsent", mock.Anything, testExtractionBucketUrl, retryKey, mock.Anything, mock.Anything).
		Return(nil)
	suite.expectExtractionRecorded(retryKey)
	suite.expectTransition(models.KycStatusDocumentUploaded, models.KycStatusExtracted)
	suite.blobRepository.On("BlobUrl", testExtractionBucketUrl, retryKey).Return("mem://kyc-extractions/" + retryKey)

	result, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.Require().NoError(err)
	suite.Equal(retryKey, result.Extraction.BlobPath)
	suite.Equal([]string{"DOCUMENT_UPLOADED->EXTRACTED"}, suite.metrics.transitions)
	suite.AssertExpectations()
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_wrongState() {
	for _, status := range []models.KycStatus{
		models.KycStatusExtracted, models.KycStatusAnalyzed, models.KycStatusApproved,
	} {
		suite.SetupTest()
		suite.givenCase(status)

		_, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
			CaseId:  testCaseId,
			BlobUrl: "https://partner.example/doc.jpg",
		})

		suite.ErrorIs(err, models.InvalidStateError, status)
		suite.documentAnalyzer.AssertNotCalled(suite.T(), "AnalyzeDocument", mock.Anything, mock.Anything)
	}
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_concurrentUploadTransition() {
	suite.givenCase(models.KycStatusCreated)
	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, testCaseId,
		models.KycStatusCreated, models.KycStatusDocumentUploaded).Return(false, nil)
	suite.repository.On("GetKycCaseById", mock.Anything, suite.transaction, testCaseId).
		Return(models.KycCase{Id: testCaseId, Status: models.KycStatusExtracted}, nil)

	_, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.ErrorIs(err, models.InvalidStateError)
	suite.documentAnalyzer.AssertNotCalled(suite.T(), "AnalyzeDocument", mock.Anything, mock.Anything)
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_analysisFailure() {
	suite.givenCase(models.KycStatusDocumentUploaded)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, mock.Anything).
		Return(models.DocumentAnalysisResult{}, errors.New("connection reset"))

	_, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.ErrorIs(err, models.UpstreamError)
	suite.Equal(1, suite.metrics.upstreamErrors[upstreamDocumentIntelligence])
	suite.blobRepository.AssertNotCalled(suite.T(), "WriteBlobIfAbsent",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	suite.repository.AssertNotCalled(suite.T(), "CreateKycExtraction",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_extractionRecordFailureIsFatal() {
	suite.givenCase(models.KycStatusDocumentUploaded)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, mock.Anything).Return(suite.analysis, nil)
	suite.blobRepository.On("WriteBlobIfAbsent", mock.Anything, testExtractionBucketUrl, mock.Anything,
		mock.Anything, mock.Anything).Return(nil)
	suite.repository.On("CreateKycExtraction", mock.Anything, suite.executor, mock.Anything, mock.Anything).
		Return(models.ExtractionRecord{}, errors.New("disk full"))

	_, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.True(errors.Is(err, models.PersistenceError), "marked as a persistence error: %v", err)
	suite.repository.AssertNotCalled(suite.T(), "UpdateKycCaseStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_finalTransitionFailureIsReported() {
	suite.givenCase(models.KycStatusDocumentUploaded)
	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).Return(nil)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, mock.Anything).Return(suite.analysis, nil)
	suite.blobRepository.On("WriteBlobIfAbsent", mock.Anything, testExtractionBucketUrl, mock.Anything,
		mock.Anything, mock.Anything).Return(nil)
	suite.expectExtractionRecorded(testCaseId + "/document-intel.json")
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, testCaseId,
		models.KycStatusDocumentUploaded, models.KycStatusExtracted).Return(false, errors.New("timeout"))
	suite.blobRepository.On("BlobUrl", testExtractionBucketUrl, mock.Anything).Return("mem://blob")

	result, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.Require().NoError(err)
	suite.Require().Len(result.SideEffects.Failures(), 1)
	suite.Equal("transition_extracted", result.SideEffects.Failures()[0].Name)
	suite.Equal([]string{"transition_extracted"}, suite.metrics.sideEffectFailures)
}

// The caller hanging up after the analysis does not lose the extraction.
func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_persistsAfterCallerCancels() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	live := mock.MatchedBy(func(ctx context.Context) bool { return ctx.Err() == nil })

	suite.givenCase(models.KycStatusDocumentUploaded)
	suite.transactionFactory.On("Transaction", live, mock.Anything).Return(nil)
	suite.documentAnalyzer.On("AnalyzeDocument", mock.Anything, "https://partner.example/doc.jpg").
		Run(func(mock.Arguments) { cancel() }).
		Return(suite.analysis, nil)
	suite.blobRepository.On("WriteBlobIfAbsent", live, testExtractionBucketUrl,
		testCaseId+"/document-intel.json", "application/json", suite.analysis.Raw).Return(nil)
	suite.repository.On("CreateKycExtraction", live, suite.executor, anyUuid(), mock.Anything).
		Return(models.ExtractionRecord{Id: "extraction-1", CaseId: testCaseId}, nil)
	suite.expectTransition(models.KycStatusDocumentUploaded, models.KycStatusExtracted)
	suite.blobRepository.On("BlobUrl", testExtractionBucketUrl, mock.Anything).Return("mem://blob")

	result, err := suite.makeUsecase().IngestDocument(ctx, models.KycIngestionInput{
		CaseId:  testCaseId,
		BlobUrl: "https://partner.example/doc.jpg",
	})

	suite.Require().NoError(err)
	suite.Equal("extraction-1", result.Extraction.Id)
	suite.Empty(result.SideEffects.Failures())
	suite.AssertExpectations()
}

func (suite *KycIngestionUsecaseTestSuite) TestIngestDocument_validation() {
	_, err := suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{BlobUrl: "x"})
	suite.ErrorIs(err, models.ValidationError)

	_, err = suite.makeUsecase().IngestDocument(context.Background(), models.KycIngestionInput{CaseId: testCaseId})
	suite.ErrorIs(err, models.ValidationError)
}

func TestKycIngestionUsecase(t *testing.T) {
	suite.Run(t, new(KycIngestionUsecaseTestSuite))
}
