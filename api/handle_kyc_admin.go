package api

import (
	"io"
	"net/http"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"

	"github.com/checkmarble/kyc-backend/dto"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/pure_utils"
	"github.com/checkmarble/kyc-backend/usecases"
)

type kycIdUriInput struct {
	KycId string `uri:"kycId"`
}

func kycIdFromUri(c *gin.Context) (string, error) {
	var input kycIdUriInput
	if err := c.ShouldBindUri(&input); err != nil {
		return "", err
	}
	return parseKycId(input.KycId)
}

func handleListPendingKyc(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		params := struct {
			Limit int `form:"limit" binding:"omitempty,min=1"`
		}{}
		if err := c.ShouldBindQuery(&params); err != nil {
			presentBindingError(ctx, c, err)
			return
		}

		usecase := uc.NewKycReviewUsecase()
		cases, err := usecase.ListPendingReview(ctx, params.Limit)
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusOK, gin.H{"items": pure_utils.Map(cases, dto.AdaptKycCaseDto)})
	}
}

func handleGetKycForReview(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		kycId, err := kycIdFromUri(c)
		if presentError(ctx, c, err) {
			return
		}

		usecase := uc.NewKycReviewUsecase()
		detail, err := usecase.GetReviewDetail(ctx, kycId)
		if presentError(ctx, c, err) {
			return
		}

		var extraction *dto.APIExtraction
		if detail.Extraction != nil {
			e := dto.AdaptExtractionDto(*detail.Extraction)
			extraction = &e
		}
		c.JSON(http.StatusOK, gin.H{
			"request":    dto.AdaptKycCaseDto(detail.Case),
			"extraction": extraction,
		})
	}
}

func handleGetKycHistory(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		kycId, err := kycIdFromUri(c)
		if presentError(ctx, c, err) {
			return
		}

		usecase := uc.NewKycReviewUsecase()
		history, err := usecase.GetCaseHistory(ctx, kycId)
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusOK, dto.AdaptKycHistoryDto(history))
	}
}

func handlePostKycDecision(uc usecases.Usecases) func(c *gin.Context) {
	return func(c *gin.Context) {
		ctx := c.Request.Context()
		kycId, err := kycIdFromUri(c)
		if presentError(ctx, c, err) {
			return
		}
		var body dto.DecisionBody
		if err := c.ShouldBindJSON(&body); err != nil && !errors.Is(err, io.EOF) {
			presentBindingError(ctx, c, err)
			return
		}

		usecase := uc.NewKycReviewUsecase()
		record, err := usecase.RecordDecision(ctx, models.KycDecisionInput{
			CaseId:   kycId,
			Decision: body.Decision,
			Note:     body.Note,
		})
		if presentError(ctx, c, err) {
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Decision recorded",
			"rec":     dto.AdaptDecisionDto(record),
		})
	}
}
