package kyc_features

import (
	"strings"

	"github.com/tidwall/gjson"

	"github.com/checkmarble/kyc-backend/models"
)

const unknownModelVersion = "unknown"

// ParseRiskOutput never fails: an answer that is not a json object is kept as the
// reasoning of a MEDIUM classification.
func ParseRiskOutput(output models.ReasoningOutput) models.RiskClassification {
	modelVersion := output.ModelVersion
	if modelVersion == "" {
		modelVersion = unknownModelVersion
	}

	text := stripCodeFence(output.Text)
	if !gjson.Valid(text) || !gjson.Parse(text).IsObject() {
		return models.RiskClassification{
			RiskLevel:       models.RiskLevelMedium,
			ConfidenceScore: models.FallbackConfidenceScore,
			Reasoning:       models.FallbackReasoningPrefix + output.Text,
			ModelVersion:    modelVersion,
		}
	}

	parsed := gjson.Parse(text)
	level, ok := models.RiskLevelFrom(parsed.Get("riskLevel").String())
	if !ok {
		level = models.RiskLevelMedium
	}

	confidence := models.FallbackConfidenceScore
	if c := parsed.Get("confidenceScore"); c.Exists() {
		confidence = clamp(c.Float(), 0, 1)
	}

	return models.RiskClassification{
		RiskLevel:       level,
		ConfidenceScore: confidence,
		Reasoning:       parsed.Get("reasoning").String(),
		ModelVersion:    modelVersion,
	}
}

func stripCodeFence(text string) string {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimPrefix(trimmed, "json")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func clamp(v, low, high float64) float64 {
	return max(low, min(high, v))
}
