package infra

import (
	"fmt"
	"time"
)

type PgConfig struct {
	ConnectionString    string
	Database            string
	DbConnectWithSocket bool
	Hostname            string
	Password            string
	Port                string
	User                string
	MaxPoolConnections  int
	SslMode             string
}

func (config PgConfig) GetConnectionString() string {
	if config.ConnectionString != "" {
		return config.ConnectionString
	}

	if config.SslMode == "" {
		config.SslMode = "prefer"
	}

	connectionString := fmt.Sprintf("host=%s user=%s password=%s database=%s sslmode=%s",
		config.Hostname, config.User, config.Password, config.Database, config.SslMode)
	if !config.DbConnectWithSocket {
		// the port is only needed when not connecting through a unix socket proxy
		connectionString = fmt.Sprintf("%s port=%s", connectionString, config.Port)
	}
	return connectionString
}

// BlobConfig points at the bucket holding the raw documents and the one holding the
// extraction audit blobs. Any gocloud.dev bucket url is accepted (gs://, s3://, azblob://,
// file://, mem://).
type BlobConfig struct {
	DocumentBucketUrl   string
	ExtractionBucketUrl string
	UploadUrlExpiry     time.Duration
	ReadUrlExpiry       time.Duration
}

// ExtractionBucket falls back to the document bucket when no extraction bucket is set.
func (c BlobConfig) ExtractionBucket() string {
	if c.ExtractionBucketUrl != "" {
		return c.ExtractionBucketUrl
	}
	return c.DocumentBucketUrl
}

type DocumentIntelligenceConfig struct {
	Endpoint     string
	ApiKey       string
	ModelId      string
	ApiVersion   string
	PollAttempts uint
	PollInterval time.Duration
	// Zero disables the client side limit.
	RequestsPerSecond int
}

type ReasoningProviderType string

const (
	ReasoningProviderOpenAI   ReasoningProviderType = "openai"
	ReasoningProviderAIStudio ReasoningProviderType = "aistudio"
)

type ReasoningConfig struct {
	ProviderType ReasoningProviderType
	BaseUrl      string
	ApiKey       string
	Model        string
	Backend      string
	Project      string
	Location     string
}

type AuthConfig struct {
	JwksUri       string
	Audience      string
	Issuer        string
	SharedSecret  string
	TokenLifetime time.Duration
}

type TelemetryConfiguration struct {
	Enabled         bool
	ApplicationName string
	Exporter        string
	ProjectID       string
	SamplingRate    float64
}
