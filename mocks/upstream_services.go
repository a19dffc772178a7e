package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/checkmarble/kyc-backend/models"
)

type DocumentAnalyzer struct {
	mock.Mock
}

func (m *DocumentAnalyzer) AnalyzeDocument(ctx context.Context, documentUrl string) (models.DocumentAnalysisResult, error) {
	args := m.Called(ctx, documentUrl)
	return args.Get(0).(models.DocumentAnalysisResult), args.Error(1)
}

type RiskReasoner struct {
	mock.Mock
}

func (m *RiskReasoner) ClassifyRisk(ctx context.Context, payload string) (models.ReasoningOutput, error) {
	args := m.Called(ctx, payload)
	return args.Get(0).(models.ReasoningOutput), args.Error(1)
}

type TokenRepository struct {
	mock.Mock
}

func (m *TokenRepository) Validate(ctx context.Context, token string) (models.Credentials, error) {
	args := m.Called(ctx, token)
	return args.Get(0).(models.Credentials), args.Error(1)
}

func (m *TokenRepository) IssueToken(user models.User, now time.Time) (models.AccessToken, error) {
	args := m.Called(user, now)
	return args.Get(0).(models.AccessToken), args.Error(1)
}
