package repositories

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/cockroachdb/errors"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/models"
	"github.com/checkmarble/kyc-backend/utils"
)

const (
	defaultDocumentIntelligenceApiVersion = "2024-09-30-preview"
	defaultDocumentIntelligencePolls      = 30
	documentIntelligenceKeyHeader         = "Ocp-Apim-Subscription-Key"
	maxDocumentIntelligenceBodySize       = 20 << 20
)

var errDocumentAnalysisRunning = errors.New("document analysis still running")

// DocumentIntelligenceRepository submits a document url to the prebuilt id model and
// waits for the analysis to complete.
type DocumentIntelligenceRepository struct {
	client  *http.Client
	config  infra.DocumentIntelligenceConfig
	limiter *rate.Limiter
}

func NewDocumentIntelligenceRepository(config infra.DocumentIntelligenceConfig) *DocumentIntelligenceRepository {
	if config.ApiVersion == "" {
		config.ApiVersion = defaultDocumentIntelligenceApiVersion
	}
	if config.PollAttempts == 0 {
		config.PollAttempts = defaultDocumentIntelligencePolls
	}
	if config.PollInterval == 0 {
		config.PollInterval = time.Second
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if config.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(config.RequestsPerSecond), config.RequestsPerSecond)
	}

	return &DocumentIntelligenceRepository{
		client: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   30 * time.Second,
		},
		config:  config,
		limiter: limiter,
	}
}

// do shares the request budget between submissions and polls of all concurrent analyses.
func (repo *DocumentIntelligenceRepository) do(req *http.Request) (*http.Response, error) {
	if err := repo.limiter.Wait(req.Context()); err != nil {
		return nil, errors.Wrap(models.ErrDocumentAnalysisFailed, err.Error())
	}
	return repo.client.Do(req)
}

func (repo *DocumentIntelligenceRepository) analyzeUrl() string {
	return fmt.Sprintf("%s/formrecognizer/documentModels/%s:analyze?api-version=%s",
		repo.config.Endpoint,
		url.PathEscape(repo.config.ModelId),
		url.QueryEscape(repo.config.ApiVersion),
	)
}

func (repo *DocumentIntelligenceRepository) AnalyzeDocument(ctx context.Context, documentUrl string) (models.DocumentAnalysisResult, error) {
	ctx, span := utils.StartSpan(ctx, "repositories.DocumentIntelligenceRepository.AnalyzeDocument", "")
	defer span.End()

	if repo.config.Endpoint == "" || repo.config.ModelId == "" {
		return models.DocumentAnalysisResult{}, errors.Wrap(models.ErrDocumentAnalysisFailed,
			"document intelligence endpoint or model id not configured")
	}

	body, err := json.Marshal(map[string]string{"urlSource": documentUrl})
	if err != nil {
		return models.DocumentAnalysisResult{}, errors.Wrap(err, "failed to marshal analyze request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, repo.analyzeUrl(), bytes.NewReader(body))
	if err != nil {
		return models.DocumentAnalysisResult{}, errors.Wrap(err, "failed to build analyze request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(documentIntelligenceKeyHeader, repo.config.ApiKey)

	resp, err := repo.do(req)
	if err != nil {
		return models.DocumentAnalysisResult{}, errors.Wrap(models.ErrDocumentAnalysisFailed, err.Error())
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentIntelligenceBodySize))
	if err != nil {
		return models.DocumentAnalysisResult{}, errors.Wrap(models.ErrDocumentAnalysisFailed, err.Error())
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return models.DocumentAnalysisResult{}, errors.Wrapf(models.ErrDocumentAnalysisFailed,
			"analyze request returned %d: %s", resp.StatusCode, respBody)
	}

	operationLocation := resp.Header.Get("Operation-Location")
	if operationLocation == "" {
		// some api versions answer synchronously
		return adaptDocumentAnalysisResult(respBody), nil
	}

	var result []byte
	err = retry.Do(
		func() error {
			var err error
			result, err = repo.pollOperation(ctx, operationLocation)
			return err
		},
		retry.Attempts(repo.config.PollAttempts),
		retry.Delay(repo.config.PollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.Context(ctx),
		retry.RetryIf(func(err error) bool {
			return errors.Is(err, errDocumentAnalysisRunning)
		}),
	)
	switch {
	case errors.Is(err, errDocumentAnalysisRunning):
		return models.DocumentAnalysisResult{}, errors.Wrapf(models.ErrDocumentAnalysisTimeout,
			"no result after %d polls", repo.config.PollAttempts)
	case err != nil:
		return models.DocumentAnalysisResult{}, err
	}

	return adaptDocumentAnalysisResult(result), nil
}

func (repo *DocumentIntelligenceRepository) pollOperation(ctx context.Context, operationLocation string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, operationLocation, nil)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build poll request")
	}
	req.Header.Set(documentIntelligenceKeyHeader, repo.config.ApiKey)

	resp, err := repo.do(req)
	if err != nil {
		return nil, errors.Wrap(models.ErrDocumentAnalysisFailed, err.Error())
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentIntelligenceBodySize))
	if err != nil {
		return nil, errors.Wrap(models.ErrDocumentAnalysisFailed, err.Error())
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, errors.Wrapf(models.ErrDocumentAnalysisFailed, "status check returned %d", resp.StatusCode)
	}

	switch analysisStatus(body) {
	case "succeeded", "succeededWithDocumentErrors", "partiallySucceeded":
		return body, nil
	case "failed":
		return nil, errors.Wrapf(models.ErrDocumentAnalysisFailed, "analysis failed: %s",
			gjson.GetBytes(body, "error.message").String())
	default:
		return nil, errDocumentAnalysisRunning
	}
}

func analysisStatus(body []byte) string {
	for _, path := range []string{"status", "analyzeResult.status", "analysisResult.status"} {
		if status := gjson.GetBytes(body, path); status.Exists() && status.String() != "" {
			return status.String()
		}
	}
	return ""
}

func adaptDocumentAnalysisResult(body []byte) models.DocumentAnalysisResult {
	documentType := models.UnknownDocumentType
	for _, path := range []string{"documentType", "analyzeResult.documents.0.docType", "documents.0.docType"} {
		if value := gjson.GetBytes(body, path).String(); value != "" {
			documentType = value
			break
		}
	}

	raw := body
	if !gjson.ValidBytes(raw) {
		// the audit blob and the jsonb column only take json
		raw, _ = json.Marshal(map[string]string{"content": string(body)})
	}

	return models.DocumentAnalysisResult{Raw: raw, DocumentType: documentType}
}
