package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexus_server/core/port/out"

	"cloud.google.com/go/vertexai/genai"
)

// ErrListUnsupported means the backend has no model catalog call.
var ErrListUnsupported = errors.New("model listing not supported")

// VertexConfig configures the Vertex AI Gemini client.
type VertexConfig struct {
	ProjectID string
	Location  string
}

// VertexClient wraps the Vertex AI Gemini API.
type VertexClient struct {
	client *genai.Client
}

var _ out.LanguageModel = (*VertexClient)(nil)

// NewVertexClient creates a Vertex AI client using application default credentials.
func NewVertexClient(ctx context.Context, cfg VertexConfig) (*VertexClient, error) {
	if cfg.ProjectID == "" {
		return nil, errors.New("vertex: project id is required")
	}
	location := cfg.Location
	if location == "" {
		location = "us-central1"
	}

	client, err := genai.NewClient(ctx, cfg.ProjectID, location)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vertex AI client: %w", err)
	}
	return &VertexClient{client: client}, nil
}

func (v *VertexClient) Provider() string { return ProviderVertex }

// ListModels always fails; model selection falls back to the configured default.
func (v *VertexClient) ListModels(ctx context.Context) ([]out.ModelInfo, error) {
	return nil, ErrListUnsupported
}

func (v *VertexClient) Generate(ctx context.Context, model, prompt string, cfg *out.GenerationConfig) (string, error) {
	m := v.client.GenerativeModel(strings.TrimPrefix(model, "models/"))
	if cfg != nil {
		m.SetTemperature(cfg.Temperature)
		m.SetTopP(cfg.TopP)
		m.SetTopK(cfg.TopK)
		m.SetMaxOutputTokens(cfg.MaxOutputTokens)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", fmt.Errorf("failed to generate content: %w", err)
	}
	return candidateText(resp)
}

// Close closes the Vertex AI client.
func (v *VertexClient) Close() error {
	return v.client.Close()
}

func candidateText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			sb.WriteString(string(text))
		}
	}
	return sb.String(), nil
}
