// Package llm adapts hosted language model APIs to out.LanguageModel.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"nexus_server/core/port/out"

	"google.golang.org/genai"
)

const generateAction = "generateContent"

var (
	// ErrNoCandidates is returned when a backend answers without any content.
	ErrNoCandidates = errors.New("no response candidates returned")
	// ErrMissingAPIKey is returned by every call of a Gemini client built without a key.
	ErrMissingAPIKey = errors.New("gemini api key is not configured")
)

// GeminiConfig configures the Gemini API client.
type GeminiConfig struct {
	APIKey string
	// Endpoint overrides the API base URL when set.
	Endpoint string
}

// GeminiClient talks to the Gemini API with an API key. Without a key the
// client still constructs, and each call fails with ErrMissingAPIKey.
type GeminiClient struct {
	client *genai.Client
}

var _ out.LanguageModel = (*GeminiClient)(nil)

// NewGeminiClient creates a Gemini API client.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return &GeminiClient{}, nil
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.Endpoint != "" {
		cc.HTTPOptions.BaseURL = cfg.Endpoint
	}

	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

func (c *GeminiClient) Provider() string { return ProviderGemini }

// ListModels walks every page of the model catalog.
func (c *GeminiClient) ListModels(ctx context.Context) ([]out.ModelInfo, error) {
	if c.client == nil {
		return nil, ErrMissingAPIKey
	}

	var models []out.ModelInfo
	page, err := c.client.Models.List(ctx, &genai.ListModelsConfig{PageSize: 100})
	for {
		if errors.Is(err, genai.ErrPageDone) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("list models: %w", err)
		}
		for _, m := range page.Items {
			if m == nil {
				continue
			}
			models = append(models, out.ModelInfo{
				Name:             m.Name,
				SupportsGenerate: contains(m.SupportedActions, generateAction),
			})
		}
		page, err = page.Next(ctx)
	}
	return models, nil
}

// Generate runs a single-turn generateContent call.
func (c *GeminiClient) Generate(ctx context.Context, model, prompt string, cfg *out.GenerationConfig) (string, error) {
	if c.client == nil {
		return "", ErrMissingAPIKey
	}

	resp, err := c.client.Models.GenerateContent(ctx, qualify(model), genai.Text(prompt), generationConfig(cfg))
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}
	return geminiText(resp)
}

func generationConfig(cfg *out.GenerationConfig) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{}
	if cfg == nil {
		return gc
	}
	if cfg.Temperature != 0 {
		gc.Temperature = genai.Ptr(cfg.Temperature)
	}
	if cfg.TopP != 0 {
		gc.TopP = genai.Ptr(cfg.TopP)
	}
	if cfg.TopK != 0 {
		gc.TopK = genai.Ptr(float32(cfg.TopK))
	}
	gc.MaxOutputTokens = cfg.MaxOutputTokens
	return gc
}

func geminiText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil {
		return "", ErrNoCandidates
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			return "", fmt.Errorf("prompt blocked: %s", resp.PromptFeedback.BlockReason)
		}
		return "", ErrNoCandidates
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String(), nil
}

// qualify adds the resource prefix the REST path expects.
func qualify(model string) string {
	if strings.HasPrefix(model, "models/") || strings.HasPrefix(model, "tunedModels/") {
		return model
	}
	return "models/" + model
}

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
