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

const defaultUploadUrlExpiry = 15 * time.Minute

type uploadUrlSigner interface {
	GenerateSignedUploadUrl(ctx context.Context, bucketUrl, key string, expiry time.Duration) (string, error)
}

type KycIntakeUsecase struct {
	transactionFactory executor_factory.TransactionFactory
	lifecycle          KycLifecycle
	blobRepository     uploadUrlSigner
	metrics            kycMetrics
	clock              clock.Clock
	bucketUrl          string
	uploadUrlExpiry    time.Duration
}

func (uc KycIntakeUsecase) validate(input models.CreateKycCaseInput) (models.KycCase, error) {
	userId := strings.TrimSpace(input.UserId)
	fullName := strings.TrimSpace(input.FullName)
	if userId == "" {
		return models.KycCase{}, errors.Wrap(models.ValidationError, "userId is required")
	}
	if fullName == "" {
		return models.KycCase{}, errors.Wrap(models.ValidationError, "fullName is required")
	}

	dob, ok := kyc_features.ParseDateOfBirth(input.DateOfBirth)
	if !ok {
		return models.KycCase{}, errors.Wrapf(models.ValidationError,
			"dob must be an ISO date (YYYY-MM-DD), got %q", input.DateOfBirth)
	}
	if dob.After(uc.clock.Now()) {
		return models.KycCase{}, errors.Wrap(models.ValidationError, "dob cannot be in the future")
	}

	documentType := strings.TrimSpace(input.DocumentType)
	if documentType == "" {
		documentType = models.DefaultKycDocumentType
	}

	return models.KycCase{
		Id:           uuid.NewString(),
		UserId:       userId,
		FullName:     fullName,
		DateOfBirth:  dob,
		DocumentType: documentType,
		Status:       models.KycStatusCreated,
		RiskLevel:    models.RiskLevelLow,
	}, nil
}

// StartKyc opens a case and hands back a short lived url the applicant uploads the
// document to. Recording the case is best effort, the url is not.
func (uc KycIntakeUsecase) StartKyc(ctx context.Context, input models.CreateKycCaseInput) (models.KycIntakeResult, error) {
	kycCase, err := uc.validate(input)
	if err != nil {
		return models.KycIntakeResult{}, err
	}

	ctx, span := utils.StartSpan(ctx, "usecases.KycIntakeUsecase.StartKyc", kycCase.Id)
	defer span.End()
	logger := utils.KycCaseLogger(ctx, kycCase.Id)

	persisted := SideEffect(ctx, uc.metrics, "create_kyc_case", func(ctx context.Context) error {
		var created models.KycCase
		var initial models.StateTransition
		err := uc.transactionFactory.Transaction(ctx, func(tx repositories.Executor) error {
			var err error
			created, initial, err = uc.lifecycle.CreateCase(ctx, tx, kycCase, kycCase.UserId)
			return err
		})
		if err != nil {
			return err
		}
		kycCase = created
		uc.lifecycle.RecordCommitted(initial)
		return nil
	})

	expiry := uc.uploadUrlExpiry
	if expiry == 0 {
		expiry = defaultUploadUrlExpiry
	}
	key := fmt.Sprintf("%s/document-%d.jpg", kycCase.Id, uc.clock.Now().UnixMilli())
	uploadUrl, err := uc.blobRepository.GenerateSignedUploadUrl(ctx, uc.bucketUrl, key, expiry)
	if err != nil {
		return models.KycIntakeResult{}, errors.WithHint(
			errors.Wrapf(err, "error signing upload url for kyc case %s", kycCase.Id),
			"failed to create upload URL",
		)
	}

	logger.InfoContext(ctx, "kyc case started", "persisted", !persisted.Failed())
	return models.KycIntakeResult{
		Case:        kycCase,
		UploadUrl:   uploadUrl,
		ExpiresIn:   int(expiry.Seconds()),
		SideEffects: models.SideEffects{persisted},
	}, nil
}
