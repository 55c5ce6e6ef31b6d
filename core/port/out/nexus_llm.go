package out

import "context"

// LanguageModel is a hosted text-to-text model.
type LanguageModel interface {
	// Provider names the backend for logs.
	Provider() string
	ListModels(ctx context.Context) ([]ModelInfo, error)
	// Generate sends prompt to model. A nil config uses the backend defaults.
	Generate(ctx context.Context, model, prompt string, cfg *GenerationConfig) (string, error)
}

type ModelInfo struct {
	Name             string
	SupportsGenerate bool
}

// GenerationConfig holds sampling parameters. Zero fields are left unset.
type GenerationConfig struct {
	Temperature     float32
	TopP            float32
	TopK            int32
	MaxOutputTokens int32
}
