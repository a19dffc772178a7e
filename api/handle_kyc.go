package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/checkmarble/kyc-backend/dto"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/usecases"
	"github.com/checkmarble/kyc-backend/utils"
)

const userIdHeader = "X-User-Id"

// Case ids are uuids in the store, anything else cannot match a case.
func parseKycId(kycId string) (string, error) {
	kycId = strings.TrimSpace(kycId)
	if kycId == "" {
		return "", errors.Wrap(models.ValidationError, "kycId is required")
	}
	if _, err := uuid.Parse(kycId); err != nil {
		return "", models.ErrKycCaseNotFound
	}
	return kycId, nil
}

func logSideEffectFailures(ctx context.Context, kycId string, sideEffects models.SideEffects) {
	if failed := dto.AdaptSideEffectFailuresDto(sideEffects); len(failed) > 0 {
		utils.LoggerFromContext(ctx).WarnContext(ctx, "kyc request served with failed side effects",
			"kyc_id", kycId, "side_effects", failed)
	}
}

func handleStartKyc(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.StartKycBody
		if err := c.ShouldBindJSON(&body); err != nil {
			presentBindingError(ctx, c, err)
			return
		}
		if body.UserId == "" {
			body.UserId = c.GetHeader(userIdHeader)
		}

		usecase := uc.NewKycIntakeUsecase()
		result, err := usecase.StartKyc(ctx, models.CreateKycCaseInput{
			UserId:       body.UserId,
			FullName:     body.FullName,
			DateOfBirth:  body.Dob,
			DocumentType: body.IdType,
		})
		if presentError(ctx, c, err) {
			return
		}
		logSideEffectFailures(ctx, result.Case.Id, result.SideEffects)

		c.JSON(http.StatusOK, gin.H{
			"kycId":     result.Case.Id,
			"uploadUrl": result.UploadUrl,
			"expiresIn": result.ExpiresIn,
			"message":   "Upload document to the provided URL using PUT",
		})
	}
}

func handleUploadDocument(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.UploadDocumentBody
		if err := c.ShouldBindJSON(&body); err != nil {
			presentBindingError(ctx, c, err)
			return
		}
		kycId, err := parseKycId(body.KycId)
		if presentError(ctx, c, err) {
			return
		}

		usecase := uc.NewKycIngestionUsecase()
		result, err := usecase.IngestDocument(ctx, models.KycIngestionInput{
			CaseId:   kycId,
			BlobUrl:  body.BlobUrl,
			BlobName: body.BlobName,
		})
		if presentError(ctx, c, err) {
			return
		}
		logSideEffectFailures(ctx, kycId, result.SideEffects)

		c.JSON(http.StatusOK, gin.H{
			"message":           "Document analyzed and stored",
			"extractionBlobUrl": result.ExtractionBlobUrl,
			"kycId":             result.CaseId,
		})
	}
}

func handleAnalyzeKyc(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		var body dto.AnalyzeBody
		if err := c.ShouldBindJSON(&body); err != nil {
			presentBindingError(ctx, c, err)
			return
		}
		kycId, err := parseKycId(body.KycId)
		if presentError(ctx, c, err) {
			return
		}

		usecase := uc.NewKycAnalysisUsecase()
		result, err := usecase.AnalyzeRisk(ctx, kycId)
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Risk assessment stored",
			"kycId":   result.CaseId,
			"status":  result.Status,
			"riskRec": dto.AdaptRiskAssessmentDto(result.Assessment),
		})
	}
}
