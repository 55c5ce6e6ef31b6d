package llm

import (
	"context"
	"fmt"
	"strings"

	"nexus_server/core/port/out"

	openai "github.com/sashabaranov/go-openai"
)

// OpenAIConfig configures the OpenAI client.
type OpenAIConfig struct {
	APIKey string
	// BaseURL overrides the API base URL when set.
	BaseURL string
}

// OpenAIClient maps generation onto a single-message chat completion.
// TopK has no OpenAI equivalent and is ignored.
type OpenAIClient struct {
	client *openai.Client
}

var _ out.LanguageModel = (*OpenAIClient)(nil)

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	config := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		config.BaseURL = cfg.BaseURL
	}
	return &OpenAIClient{client: openai.NewClientWithConfig(config)}
}

func (c *OpenAIClient) Provider() string { return ProviderOpenAI }

// ListModels reports chat-capable models as generating.
func (c *OpenAIClient) ListModels(ctx context.Context) ([]out.ModelInfo, error) {
	list, err := c.client.ListModels(ctx)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}

	models := make([]out.ModelInfo, 0, len(list.Models))
	for _, m := range list.Models {
		models = append(models, out.ModelInfo{
			Name:             m.ID,
			SupportsGenerate: isChatModel(m.ID),
		})
	}
	return models, nil
}

func (c *OpenAIClient) Generate(ctx context.Context, model, prompt string, cfg *out.GenerationConfig) (string, error) {
	req := openai.ChatCompletionRequest{
		Model: model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleUser,
				Content: prompt,
			},
		},
	}
	if cfg != nil {
		req.Temperature = cfg.Temperature
		req.TopP = cfg.TopP
		req.MaxTokens = int(cfg.MaxOutputTokens)
	}

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrNoCandidates
	}
	return resp.Choices[0].Message.Content, nil
}

func isChatModel(id string) bool {
	if strings.Contains(id, "instruct") || strings.Contains(id, "audio") || strings.Contains(id, "realtime") {
		return false
	}
	return strings.HasPrefix(id, "gpt-")
}
