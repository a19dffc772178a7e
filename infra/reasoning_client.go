package infra

import (
	"github.com/checkmarble/llmberjack"
	"github.com/checkmarble/llmberjack/llms/aistudio"
	"github.com/checkmarble/llmberjack/llms/openai"
	"github.com/cockroachdb/errors"
	"google.golang.org/genai"
)

// NewReasoningClient builds the llm adapter used for the risk classification.
func NewReasoningClient(config ReasoningConfig) (*llmberjack.Llmberjack, error) {
	var provider llmberjack.Llm
	var err error

	switch config.ProviderType {
	case ReasoningProviderOpenAI, "":
		opts := []openai.Opt{}
		if config.BaseUrl != "" {
			opts = append(opts, openai.WithBaseUrl(config.BaseUrl))
		}
		if config.ApiKey != "" {
			opts = append(opts, openai.WithApiKey(config.ApiKey))
		}
		provider, err = openai.New(opts...)
	case ReasoningProviderAIStudio:
		backend := genai.BackendGeminiAPI
		if config.Backend == "vertex" {
			backend = genai.BackendVertexAI
		}
		opts := []aistudio.Opt{aistudio.WithBackend(backend)}
		if config.ApiKey != "" {
			opts = append(opts, aistudio.WithApiKey(config.ApiKey))
		}
		if config.Project != "" {
			opts = append(opts, aistudio.WithProject(config.Project))
		}
		if config.Location != "" {
			opts = append(opts, aistudio.WithLocation(config.Location))
		}
		provider, err = aistudio.New(opts...)
	default:
		return nil, errors.Errorf("unsupported reasoning provider type: %s", config.ProviderType)
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reasoning provider")
	}

	client, err := llmberjack.New(
		llmberjack.WithProvider("reasoning", provider),
		llmberjack.WithDefaultModel(config.Model),
	)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create reasoning adapter")
	}
	return client, nil
}
