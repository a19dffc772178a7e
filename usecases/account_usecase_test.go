package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/checkmarble/kyc-backend/mocks"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories/clock"
)

type AccountUsecaseTestSuite struct {
	suite.Suite
	repository      *mocks.KycRepository
	executor        *mocks.Transaction
	executorFactory *mocks.ExecutorFactory
	tokenRepository *mocks.TokenRepository
	clock           *clock.Mock
}

func (suite *AccountUsecaseTestSuite) SetupTest() {
	suite.repository = new(mocks.KycRepository)
	suite.executor = new(mocks.Transaction)
	suite.executorFactory = new(mocks.ExecutorFactory)
	suite.tokenRepository = new(mocks.TokenRepository)
	suite.clock = clock.NewMock(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))

	suite.executorFactory.On("NewExecutor").Return(suite.executor)
}

func (suite *AccountUsecaseTestSuite) makeUsecase() AccountUsecase {
	return AccountUsecase{
		executorFactory: suite.executorFactory,
		repository:      suite.repository,
		tokenIssuer:     suite.tokenRepository,
		clock:           suite.clock,
	}
}

func (suite *AccountUsecaseTestSuite) TestRegister() {
	suite.repository.On("CreateUser", mock.Anything, suite.executor, mock.MatchedBy(func(u models.User) bool {
		return isUuid(u.Id) && u.Email == "jane@example.com" &&
			len(u.Roles) == 1 && u.Roles[0] == models.RoleUser &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("s3cret")) == nil
	})).Return(models.User{Id: "user-1", Email: "jane@example.com"}, nil)

	user, err := suite.makeUsecase().Register(context.Background(), models.CreateUserInput{
		Email:    " Jane@Example.com ",
		Password: "s3cret",
	})

	suite.Require().NoError(err)
	suite.Equal("user-1", user.Id)
	suite.repository.AssertExpectations(suite.T())
}

func (suite *AccountUsecaseTestSuite) TestRegister_missingFields() {
	_, err := suite.makeUsecase().Register(context.Background(), models.CreateUserInput{Email: "jane@example.com"})
	suite.ErrorIs(err, models.ValidationError)

	_, err = suite.makeUsecase().Register(context.Background(), models.CreateUserInput{Password: "x"})
	suite.ErrorIs(err, models.ValidationError)
}

func (suite *AccountUsecaseTestSuite) TestRegister_duplicate() {
	suite.repository.On("CreateUser", mock.Anything, suite.executor, mock.Anything).
		Return(models.User{}, errors.Wrap(models.ErrUserAlreadyExists, "email"))

	_, err := suite.makeUsecase().Register(context.Background(), models.CreateUserInput{
		Email:    "jane@example.com",
		Password: "s3cret",
	})

	suite.ErrorIs(err, models.ConflictError)
}

func (suite *AccountUsecaseTestSuite) TestLogin() {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	suite.Require().NoError(err)
	user := models.User{Id: "user-1", Email: "jane@example.com", PasswordHash: string(hash)}
	suite.repository.On("GetUserByEmail", mock.Anything, suite.executor, "jane@example.com").Return(user, nil)
	suite.tokenRepository.On("IssueToken", user, suite.clock.Now()).
		Return(models.AccessToken{Token: "signed", ExpiresAt: suite.clock.Now().Add(time.Hour)}, nil)

	token, err := suite.makeUsecase().Login(context.Background(), models.LoginInput{
		Email:    "JANE@example.com",
		Password: "s3cret",
	})

	suite.Require().NoError(err)
	suite.Equal("signed", token.Token)
	suite.tokenRepository.AssertExpectations(suite.T())
}

func (suite *AccountUsecaseTestSuite) TestLogin_invalidCredentials() {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	suite.Require().NoError(err)
	suite.repository.On("GetUserByEmail", mock.Anything, suite.executor, "jane@example.com").
		Return(models.User{PasswordHash: string(hash)}, nil)
	suite.repository.On("GetUserByEmail", mock.Anything, suite.executor, "ghost@example.com").
		Return(models.User{}, errors.Wrap(models.NotFoundError, "unknown user"))

	_, err = suite.makeUsecase().Login(context.Background(), models.LoginInput{Email: "jane@example.com", Password: "wrong"})
	suite.ErrorIs(err, models.ErrInvalidCredentials)

	_, err = suite.makeUsecase().Login(context.Background(), models.LoginInput{Email: "ghost@example.com", Password: "s3cret"})
	suite.ErrorIs(err, models.ErrInvalidCredentials)
	suite.ErrorIs(err, models.AuthError)
	suite.tokenRepository.AssertNotCalled(suite.T(), "IssueToken", mock.Anything, mock.Anything)
}

func (suite *AccountUsecaseTestSuite) TestEnsureAdmin() {
	suite.repository.On("GetUserByEmail", mock.Anything, suite.executor, "root@example.com").
		Return(models.User{}, errors.Wrap(models.NotFoundError, "unknown user"))
	suite.repository.On("CreateUser", mock.Anything, suite.executor, mock.MatchedBy(func(u models.User) bool {
		return u.Email == "root@example.com" && len(u.Roles) == 1 && u.Roles[0] == models.RoleAdmin
	})).Return(models.User{Id: "admin-1"}, nil)

	err := suite.makeUsecase().EnsureAdmin(context.Background(), "Root@example.com", "changeme")

	suite.Require().NoError(err)
	suite.repository.AssertExpectations(suite.T())
}

func (suite *AccountUsecaseTestSuite) TestEnsureAdmin_existing() {
	suite.repository.On("GetUserByEmail", mock.Anything, suite.executor, "root@example.com").
		Return(models.User{Id: "admin-1"}, nil)

	err := suite.makeUsecase().EnsureAdmin(context.Background(), "root@example.com", "changeme")

	suite.Require().NoError(err)
	suite.repository.AssertNotCalled(suite.T(), "CreateUser", mock.Anything, mock.Anything, mock.Anything)
}

func (suite *AccountUsecaseTestSuite) TestEnsureAdmin_notConfigured() {
	suite.NoError(suite.makeUsecase().EnsureAdmin(context.Background(), "", ""))
	suite.repository.AssertNotCalled(suite.T(), "GetUserByEmail", mock.Anything, mock.Anything, mock.Anything)
}

func TestAccountUsecase(t *testing.T) {
	suite.Run(t, new(AccountUsecaseTestSuite))
}
