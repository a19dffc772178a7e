package dbmodels

import (
	"time"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

type DBUser struct {
	Id           string    `db:"id"`
	Email        string    `db:"email"`
	Name         string    `db:"name"`
	PasswordHash string    `db:"password_hash"`
	Roles        []string  `db:"roles"`
	CreatedAt    time.Time `db:"created_at"`
}

const TABLE_USERS = "users"

var SelectUserColumn = utils.ColumnList[DBUser]()

func AdaptUser(db DBUser) (models.User, error) {
	return models.User{
		Id:           db.Id,
		Email:        db.Email,
		Name:         db.Name,
		PasswordHash: db.PasswordHash,
		Roles:        db.Roles,
		CreatedAt:    db.CreatedAt,
	}, nil
}
