package repositories

import (
	"context"

	"github.com/checkmarble/llmberjack"
	"github.com/cockroachdb/errors"

	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

const riskClassificationInstruction = `You are a compliance assistant. You receive de-identified features extracted from an identity document, as JSON.
Classify the KYC risk as LOW, MEDIUM or HIGH, give a confidence score between 0.0 and 1.0 and a short human readable reasoning.
Output ONLY a JSON object with the keys riskLevel, confidenceScore and reasoning. Respond with JSON only.`

// ReasoningRepository sends the de-identified features of a case to the configured llm.
// The raw text of the answer is returned untouched, parsing is left to the caller.
type ReasoningRepository struct {
	client *llmberjack.Llmberjack
	model  string
}

func NewReasoningRepository(client *llmberjack.Llmberjack, model string) *ReasoningRepository {
	return &ReasoningRepository{client: client, model: model}
}

func (repo *ReasoningRepository) ClassifyRisk(ctx context.Context, payload string) (models.ReasoningOutput, error) {
	ctx, span := utils.StartSpan(ctx, "repositories.ReasoningRepository.ClassifyRisk", "")
	defer span.End()

	if repo.client == nil {
		return models.ReasoningOutput{}, errors.Wrap(models.ErrReasoningServiceFailed, "reasoning client not configured")
	}

	request := llmberjack.NewRequest[string]().
		WithInstruction(riskClassificationInstruction).
		WithText(llmberjack.RoleUser, payload)
	if repo.model != "" {
		request = request.WithModel(repo.model)
	}

	response, err := request.Do(ctx, repo.client)
	if err != nil {
		return models.ReasoningOutput{}, errors.Wrap(models.ErrReasoningServiceFailed, err.Error())
	}
	text, err := response.Get(0)
	if err != nil {
		return models.ReasoningOutput{}, errors.Wrap(models.ErrReasoningServiceFailed, err.Error())
	}

	return models.ReasoningOutput{Text: text, ModelVersion: repo.model}, nil
}
