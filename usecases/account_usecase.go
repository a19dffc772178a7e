package usecases

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories"
	"github.com/checkmarble/kyc-backend/repositories/clock"
	"github.com/checkmarble/kyc-backend/usecases/executor_factory"
	"github.com/checkmarble/kyc-backend/utils"
)

const passwordHashCost = 10

type userRepository interface {
	CreateUser(ctx context.Context, exec repositories.Executor, user models.User) (models.User, error)
	GetUserByEmail(ctx context.Context, exec repositories.Executor, email string) (models.User, error)
}

type tokenIssuer interface {
	IssueToken(user models.User, now time.Time) (models.AccessToken, error)
}

type AccountUsecase struct {
	executorFactory executor_factory.ExecutorFactory
	repository      userRepository
	tokenIssuer     tokenIssuer
	clock           clock.Clock
}

func (uc AccountUsecase) Register(ctx context.Context, input models.CreateUserInput) (models.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return models.User{}, errors.Wrap(models.ValidationError, "email and password are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), passwordHashCost)
	if err != nil {
		return models.User{}, errors.Wrap(err, "error hashing password")
	}
	roles := input.Roles
	if len(roles) == 0 {
		roles = []string{models.RoleUser}
	}

	return uc.repository.CreateUser(ctx, uc.executorFactory.NewExecutor(), models.User{
		Id:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: string(hash),
		Roles:        roles,
	})
}

// Login never tells an unknown email from a wrong password.
func (uc AccountUsecase) Login(ctx context.Context, input models.LoginInput) (models.AccessToken, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return models.AccessToken{}, errors.Wrap(models.ValidationError, "email and password are required")
	}

	user, err := uc.repository.GetUserByEmail(ctx, uc.executorFactory.NewExecutor(), email)
	if errors.Is(err, models.NotFoundError) {
		return models.AccessToken{}, models.ErrInvalidCredentials
	} else if err != nil {
		return models.AccessToken{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)); err != nil {
		return models.AccessToken{}, models.ErrInvalidCredentials
	}

	return uc.tokenIssuer.IssueToken(user, uc.clock.Now())
}

// EnsureAdmin seeds the first admin account, and is a no-op once it exists.
func (uc AccountUsecase) EnsureAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}
	logger := utils.LoggerFromContext(ctx)

	_, err := uc.repository.GetUserByEmail(ctx, uc.executorFactory.NewExecutor(), strings.ToLower(email))
	if err == nil {
		return nil
	}
	if !errors.Is(err, models.NotFoundError) {
		return err
	}

	_, err = uc.Register(ctx, models.CreateUserInput{
		Email:    email,
		Name:     "admin",
		Password: password,
		Roles:    []string{models.RoleAdmin},
	})
	if errors.Is(err, models.ErrUserAlreadyExists) {
		return nil
	}
	if err != nil {
		return errors.Wrap(err, "error creating the admin user")
	}
	logger.InfoContext(ctx, "admin user created", "email", strings.ToLower(email))
	return nil
}
