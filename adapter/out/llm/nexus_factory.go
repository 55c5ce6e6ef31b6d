package llm

import (
	"context"
	"fmt"

	"nexus_server/core/port/out"
)

const (
	ProviderGemini = "gemini"
	ProviderVertex = "vertex"
	ProviderOpenAI = "openai"
)

// Config selects and configures one backend.
type Config struct {
	Provider string

	GoogleAPIKey   string
	GeminiEndpoint string

	ProjectID string
	Location  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (out.LanguageModel, error) {
	switch cfg.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, GeminiConfig{APIKey: cfg.GoogleAPIKey, Endpoint: cfg.GeminiEndpoint})
	case ProviderVertex:
		return NewVertexClient(ctx, VertexConfig{ProjectID: cfg.ProjectID, Location: cfg.Location})
	case ProviderOpenAI:
		return NewOpenAIClient(OpenAIConfig{APIKey: cfg.OpenAIAPIKey, BaseURL: cfg.OpenAIBaseURL}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
