package cmd

import (
	"errors"
	"strings"
	"time"

	"github.com/checkmarble/kyc-backend/api"
	"github.com/checkmarble/kyc-backend/infra"
	"github.com/checkmarble/kyc-backend/utils"
)

// set at build time with -ldflags
var apiVersion = "dev"

type ServerConfig struct {
	loggingFormat       string
	sentryDsn           string
	createAdminEmail    string
	createAdminPassword string
}

func pgConfigFromEnv() infra.PgConfig {
	return infra.PgConfig{
		ConnectionString:    utils.GetEnv("PG_CONNECTION_STRING", ""),
		Database:            utils.GetEnv("PG_DATABASE", "kyc"),
		DbConnectWithSocket: utils.GetEnv("PG_CONNECT_WITH_SOCKET", false),
		Hostname:            utils.GetEnv("PG_HOSTNAME", ""),
		Password:            utils.GetEnv("PG_PASSWORD", ""),
		Port:                utils.GetEnv("PG_PORT", "5432"),
		User:                utils.GetEnv("PG_USER", ""),
		MaxPoolConnections:  utils.GetEnv("PG_MAX_POOL_SIZE", infra.DEFAULT_MAX_CONNECTIONS),
		SslMode:             utils.GetEnv("PG_SSL_MODE", "prefer"),
	}
}

func apiConfigFromEnv() api.Configuration {
	var allowedOrigins []string
	for _, origin := range strings.Split(utils.GetEnv("CORS_ALLOWED_ORIGINS", ""), ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			allowedOrigins = append(allowedOrigins, origin)
		}
	}

	return api.Configuration{
		Env:                 utils.GetEnv("ENV", "development"),
		AppName:             "kyc-backend",
		AppVersion:          apiVersion,
		Host:                utils.GetEnv("HOST", "0.0.0.0"),
		Port:                utils.GetRequiredEnv[string]("PORT"),
		RequestLoggingLevel: utils.GetEnv("REQUEST_LOGGING_LEVEL", "info"),
		AllowedOrigins:      allowedOrigins,
		MaxBodySize:         int64(utils.GetEnv("MAX_BODY_SIZE_BYTES", 1<<20)),
		DefaultTimeout:      time.Duration(utils.GetEnv("DEFAULT_TIMEOUT_SECOND", 10)) * time.Second,
		IngestionTimeout:    time.Duration(utils.GetEnv("INGESTION_TIMEOUT_SECOND", 45)) * time.Second,
		AnalysisTimeout:     time.Duration(utils.GetEnv("ANALYSIS_TIMEOUT_SECOND", 60)) * time.Second,
	}
}

func blobConfigFromEnv() infra.BlobConfig {
	return infra.BlobConfig{
		DocumentBucketUrl:   utils.GetRequiredEnv[string]("DOCUMENT_BUCKET_URL"),
		ExtractionBucketUrl: utils.GetEnv("EXTRACTION_BUCKET_URL", ""),
		UploadUrlExpiry:     time.Duration(utils.GetEnv("UPLOAD_URL_EXPIRY_MINUTE", 15)) * time.Minute,
		ReadUrlExpiry:       time.Duration(utils.GetEnv("READ_URL_EXPIRY_MINUTE", 60)) * time.Minute,
	}
}

func documentIntelligenceConfigFromEnv() infra.DocumentIntelligenceConfig {
	return infra.DocumentIntelligenceConfig{
		Endpoint:          utils.GetRequiredEnv[string]("DOCUMENT_INTELLIGENCE_ENDPOINT"),
		ApiKey:            utils.GetRequiredEnv[string]("DOCUMENT_INTELLIGENCE_API_KEY"),
		ModelId:           utils.GetEnv("DOCUMENT_INTELLIGENCE_MODEL_ID", "prebuilt-idDocument"),
		ApiVersion:        utils.GetEnv("DOCUMENT_INTELLIGENCE_API_VERSION", "2023-07-31"),
		PollAttempts:      uint(utils.GetEnv("DOCUMENT_INTELLIGENCE_POLL_ATTEMPTS", 30)),
		PollInterval:      time.Duration(utils.GetEnv("DOCUMENT_INTELLIGENCE_POLL_INTERVAL_MS", 1000)) * time.Millisecond,
		RequestsPerSecond: utils.GetEnv("DOCUMENT_INTELLIGENCE_REQUESTS_PER_SECOND", 10),
	}
}

func reasoningConfigFromEnv() infra.ReasoningConfig {
	return infra.ReasoningConfig{
		ProviderType: infra.ReasoningProviderType(utils.GetEnv("REASONING_PROVIDER", "openai")),
		BaseUrl:      utils.GetEnv("REASONING_BASE_URL", ""),
		ApiKey:       utils.GetEnv("REASONING_API_KEY", ""),
		Model:        utils.GetRequiredEnv[string]("REASONING_MODEL"),
		Backend:      utils.GetEnv("REASONING_BACKEND", ""),
		Project:      utils.GetEnv("REASONING_PROJECT", ""),
		Location:     utils.GetEnv("REASONING_LOCATION", ""),
	}
}

func authConfigFromEnv() infra.AuthConfig {
	return infra.AuthConfig{
		JwksUri:       utils.GetEnv("AUTH_JWKS_URI", ""),
		Audience:      utils.GetEnv("AUTH_AUDIENCE", ""),
		Issuer:        utils.GetEnv("AUTH_ISSUER", ""),
		SharedSecret:  utils.GetEnv("AUTH_SHARED_SECRET", ""),
		TokenLifetime: time.Duration(utils.GetEnv("TOKEN_LIFETIME_MINUTE", 60)) * time.Minute,
	}
}

func telemetryConfigFromEnv(appName string) infra.TelemetryConfiguration {
	return infra.TelemetryConfiguration{
		Enabled:         utils.GetEnv("ENABLE_TRACING", false),
		ApplicationName: appName,
		Exporter:        utils.GetEnv("TRACING_EXPORTER", "otlp"),
		ProjectID:       utils.GetEnv("GOOGLE_CLOUD_PROJECT", ""),
		SamplingRate:    utils.GetEnv("TRACING_SAMPLING_RATE", 0.1),
	}
}

func (config ServerConfig) Validate() error {
	if (config.createAdminEmail == "") != (config.createAdminPassword == "") {
		return errors.New("CREATE_ADMIN_EMAIL and CREATE_ADMIN_PASSWORD must be set together")
	}
	return nil
}
