package repositories

import (
	"context"
	"strings"

	"github.com/Masterminds/squirrel"
	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/repositories/dbmodels"
)

func (repo *KycDbRepository) CreateUser(ctx context.Context, exec Executor, user models.User) (models.User, error) {
	created, err := SqlToModel(ctx, exec,
		NewQueryBuilder().
			Insert(dbmodels.TABLE_USERS).
			Columns("id", "email", "name", "password_hash", "roles").
			Values(user.Id, user.Email, user.Name, user.PasswordHash, user.Roles).
			Suffix("RETURNING "+strings.Join(dbmodels.SelectUserColumn, ",")),
		dbmodels.AdaptUser,
	)

	if IsUniqueViolationError(err) {
		return models.User{}, errors.Wrapf(models.ErrUserAlreadyExists, "email %s", user.Email)
	}
	return created, err
}

func (repo *KycDbRepository) GetUserByEmail(ctx context.Context, exec Executor, email string) (models.User, error) {
	user, err := SqlToOptionalModel(ctx, exec,
		NewQueryBuilder().
			Select(dbmodels.SelectUserColumn...).
			From(dbmodels.TABLE_USERS).
			Where(squirrel.Eq{"email": email}),
		dbmodels.AdaptUser,
	)
	if err != nil {
		return models.User{}, err
	}
	if user == nil {
		return models.User{}, errors.Wrap(models.NotFoundError, "unknown user")
	}
	return *user, nil
}
