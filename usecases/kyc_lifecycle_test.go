package usecases

import (
	"context"
	"testing"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/checkmarble/kyc-backend/mocks"
	"github.com/checkmarble/kyc-backend/models"
)

type KycLifecycleTestSuite struct {
	suite.Suite
	repository         *mocks.KycRepository
	transaction        *mocks.Transaction
	transactionFactory *mocks.TransactionFactory
	metrics            *recordingMetrics

	caseId string
}

func (suite *KycLifecycleTestSuite) SetupTest() {
	suite.repository = new(mocks.KycRepository)
	suite.transaction = new(mocks.Transaction)
	suite.transactionFactory = &mocks.TransactionFactory{TxMock: suite.transaction}
	suite.metrics = newRecordingMetrics()
	suite.caseId = "5b3cb9c5-6f3c-4d55-9f2d-6e3b1d6e7b11"
}

func (suite *KycLifecycleTestSuite) makeLifecycle() KycLifecycle {
	return NewKycLifecycle(suite.transactionFactory, suite.repository, suite.metrics)
}

func (suite *KycLifecycleTestSuite) AssertExpectations() {
	t := suite.T()
	suite.repository.AssertExpectations(t)
	suite.transactionFactory.AssertExpectations(t)
}

func (suite *KycLifecycleTestSuite) TestCreateCase_recordsInitialTransition() {
	kycCase := models.KycCase{Id: suite.caseId, UserId: "user-1", FullName: "Jane Doe"}
	suite.repository.On("CreateKycCase", mock.Anything, suite.transaction,
		mock.MatchedBy(func(c models.KycCase) bool { return c.Status == models.KycStatusCreated })).
		Return(models.KycCase{Id: suite.caseId, Status: models.KycStatusCreated}, nil)
	suite.repository.On("CreateKycStateTransition", mock.Anything, suite.transaction,
		mock.MatchedBy(func(t models.StateTransition) bool {
			return t.FromState == models.KycStatusNone && t.ToState == models.KycStatusCreated &&
				t.Actor == "user-1" && isUuid(t.Id)
		})).
		Return(models.StateTransition{CaseId: suite.caseId, ToState: models.KycStatusCreated}, nil)

	created, transition, err := suite.makeLifecycle().CreateCase(context.Background(), suite.transaction, kycCase, "user-1")

	suite.Require().NoError(err)
	suite.Equal(models.KycStatusCreated, created.Status)
	suite.Equal(models.KycStatusCreated, transition.ToState)
	suite.Empty(suite.metrics.transitions, "metrics wait for the commit")
	suite.AssertExpectations()
}

func (suite *KycLifecycleTestSuite) TestTransition_rejectsEdgeOutsideTheLifecycle() {
	for _, edge := range [][2]models.KycStatus{
		{models.KycStatusCreated, models.KycStatusApproved},
		{models.KycStatusExtracted, models.KycStatusDocumentUploaded},
		{models.KycStatusApproved, models.KycStatusPendingReview},
		{models.KycStatusRejected, models.KycStatusApproved},
	} {
		_, err := suite.makeLifecycle().Transition(context.Background(), suite.transaction, models.KycTransitionInput{
			CaseId: suite.caseId,
			From:   edge[0],
			To:     edge[1],
		})
		suite.ErrorIs(err, models.ErrKycTransitionNotAllowed)
		suite.ErrorIs(err, models.InvalidStateError)
	}
	suite.repository.AssertNotCalled(suite.T(), "UpdateKycCaseStatus")
}

func (suite *KycLifecycleTestSuite) TestTransition_success() {
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, suite.caseId,
		models.KycStatusExtracted, models.KycStatusAnalyzed).Return(true, nil)
	suite.repository.On("CreateKycStateTransition", mock.Anything, suite.transaction,
		mock.MatchedBy(func(t models.StateTransition) bool {
			return t.FromState == models.KycStatusExtracted && t.ToState == models.KycStatusAnalyzed &&
				t.Actor == models.ActorSystemAnalysis && t.Reason == "risk:LOW"
		})).
		Return(models.StateTransition{
			CaseId:    suite.caseId,
			FromState: models.KycStatusExtracted,
			ToState:   models.KycStatusAnalyzed,
		}, nil)

	transition, err := suite.makeLifecycle().Transition(context.Background(), suite.transaction, models.KycTransitionInput{
		CaseId: suite.caseId,
		From:   models.KycStatusExtracted,
		To:     models.KycStatusAnalyzed,
		Actor:  models.ActorSystemAnalysis,
		Reason: "risk:LOW",
	})

	suite.Require().NoError(err)
	suite.Equal(models.KycStatusAnalyzed, transition.ToState)
	suite.AssertExpectations()
}

func (suite *KycLifecycleTestSuite) TestTransition_concurrentMoveIsAnInvalidState() {
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, suite.caseId,
		models.KycStatusExtracted, models.KycStatusAnalyzed).Return(false, nil)
	suite.repository.On("GetKycCaseById", mock.Anything, suite.transaction, suite.caseId).
		Return(models.KycCase{Id: suite.caseId, Status: models.KycStatusApproved}, nil)

	_, err := suite.makeLifecycle().Transition(context.Background(), suite.transaction, models.KycTransitionInput{
		CaseId: suite.caseId,
		From:   models.KycStatusExtracted,
		To:     models.KycStatusAnalyzed,
	})

	suite.ErrorIs(err, models.InvalidStateError)
	suite.repository.AssertNotCalled(suite.T(), "CreateKycStateTransition")
	suite.AssertExpectations()
}

func (suite *KycLifecycleTestSuite) TestTransition_unknownCase() {
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, suite.caseId,
		models.KycStatusCreated, models.KycStatusDocumentUploaded).Return(false, nil)
	suite.repository.On("GetKycCaseById", mock.Anything, suite.transaction, suite.caseId).
		Return(models.KycCase{}, errors.Wrap(models.ErrKycCaseNotFound, "kyc case"))

	_, err := suite.makeLifecycle().Transition(context.Background(), suite.transaction, models.KycTransitionInput{
		CaseId: suite.caseId,
		From:   models.KycStatusCreated,
		To:     models.KycStatusDocumentUploaded,
	})

	suite.ErrorIs(err, models.NotFoundError)
	suite.AssertExpectations()
}

func (suite *KycLifecycleTestSuite) TestTransitionInTransaction_countsOnlyCommittedTransitions() {
	input := models.KycTransitionInput{
		CaseId: suite.caseId,
		From:   models.KycStatusCreated,
		To:     models.KycStatusDocumentUploaded,
		Actor:  models.ActorSystemIngestion,
	}
	suite.repository.On("UpdateKycCaseStatus", mock.Anything, suite.transaction, suite.caseId,
		models.KycStatusCreated, models.KycStatusDocumentUploaded).Return(true, nil)
	suite.repository.On("CreateKycStateTransition", mock.Anything, suite.transaction, mock.Anything).
		Return(models.StateTransition{
			FromState: models.KycStatusCreated,
			ToState:   models.KycStatusDocumentUploaded,
		}, nil)

	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).
		Return(errors.New("commit failed")).Once()
	_, err := suite.makeLifecycle().TransitionInTransaction(context.Background(), input)
	suite.Error(err)
	suite.Empty(suite.metrics.transitions)

	suite.transactionFactory.On("Transaction", mock.Anything, mock.Anything).Return(nil).Once()
	_, err = suite.makeLifecycle().TransitionInTransaction(context.Background(), input)
	suite.NoError(err)
	suite.Equal([]string{"CREATED->DOCUMENT_UPLOADED"}, suite.metrics.transitions)
	suite.AssertExpectations()
}

func TestKycLifecycle(t *testing.T) {
	suite.Run(t, new(KycLifecycleTestSuite))
}
