package dbmodels

import (
	"time"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

type DBKycCase struct {
	Id           string    `db:"id"`
	UserId       string    `db:"user_id"`
	FullName     string    `db:"full_name"`
	DateOfBirth  time.Time `db:"date_of_birth"`
	DocumentType string    `db:"document_type"`
	Status       string    `db:"status"`
	RiskLevel    string    `db:"risk_level"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

const TABLE_KYC_CASES = "kyc_cases"

var SelectKycCaseColumn = utils.ColumnList[DBKycCase]()

func AdaptKycCase(db DBKycCase) (models.KycCase, error) {
	return models.KycCase{
		Id:           db.Id,
		UserId:       db.UserId,
		FullName:     db.FullName,
		DateOfBirth:  db.DateOfBirth,
		DocumentType: db.DocumentType,
		Status:       models.KycStatusFrom(db.Status),
		RiskLevel:    models.RiskLevel(db.RiskLevel),
		CreatedAt:    db.CreatedAt,
		UpdatedAt:    db.UpdatedAt,
	}, nil
}
