package extraction

import (
	"context"
	"strings"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"
)

// SelectionRules drives SelectModel.
type SelectionRules struct {
	// Preferred names are tried in order first.
	Preferred []string
	// FastHint and ProHint are substrings identifying model tiers.
	FastHint string
	ProHint  string
	// Fallback is used when listing fails or yields nothing.
	Fallback string
}

// DefaultGeminiRules matches the Gemini API model catalog.
func DefaultGeminiRules() SelectionRules {
	return SelectionRules{
		Preferred: []string{
			"models/gemini-1.5-flash",
			"models/gemini-1.5-pro",
			"models/gemini-1.0-pro",
			"models/gemini-pro",
		},
		FastHint: "flash",
		ProHint:  "pro",
		Fallback: "models/gemini-1.5-flash",
	}
}

// DefaultVertexRules uses Vertex AI publisher model ids.
func DefaultVertexRules() SelectionRules {
	return SelectionRules{
		Preferred: []string{"gemini-1.5-flash", "gemini-1.5-pro", "gemini-1.0-pro"},
		FastHint:  "flash",
		ProHint:   "pro",
		Fallback:  "gemini-1.5-flash",
	}
}

// DefaultOpenAIRules prefers the small chat models.
func DefaultOpenAIRules() SelectionRules {
	return SelectionRules{
		Preferred: []string{"gpt-4o-mini", "gpt-4o", "gpt-3.5-turbo"},
		FastHint:  "mini",
		ProHint:   "gpt-4",
		Fallback:  "gpt-4o-mini",
	}
}

// RulesFor returns the default rules for a provider name. Unknown names get the Gemini rules.
func RulesFor(provider string) SelectionRules {
	switch provider {
	case "vertex":
		return DefaultVertexRules()
	case "openai":
		return DefaultOpenAIRules()
	default:
		return DefaultGeminiRules()
	}
}

// WithOverrides replaces the preference list and fallback when they are non-empty.
func (r SelectionRules) WithOverrides(preferred []string, fallback string) SelectionRules {
	if len(preferred) > 0 {
		r.Preferred = append([]string(nil), preferred...)
	}
	if fallback != "" {
		r.Fallback = fallback
	}
	return r
}

// SelectModel lists the backend's models once and picks one for generation.
// The result is meant to be computed at startup and handed to consumers.
func SelectModel(ctx context.Context, lm out.LanguageModel, rules SelectionRules) domain.ModelSelection {
	log := logger.WithField("provider", lm.Provider())

	models, err := lm.ListModels(ctx)
	if err != nil {
		log.WithError(err).Warn("[SelectModel] listing models failed, using fallback %s", rules.Fallback)
		return domain.ModelSelection{Name: rules.Fallback, Source: domain.ModelFromFallback}
	}

	sel := Choose(models, rules)
	log.WithField("source", string(sel.Source)).Info("[SelectModel] selected model %s", sel.Name)
	return sel
}

// Choose applies the preference order to an already listed catalog.
func Choose(models []out.ModelInfo, rules SelectionRules) domain.ModelSelection {
	var available []string
	seen := make(map[string]bool)
	for _, m := range models {
		if m.SupportsGenerate && m.Name != "" && !seen[m.Name] {
			available = append(available, m.Name)
			seen[m.Name] = true
		}
	}

	if len(available) == 0 {
		return domain.ModelSelection{Name: rules.Fallback, Source: domain.ModelFromFallback}
	}

	for _, p := range rules.Preferred {
		if seen[p] {
			return domain.ModelSelection{Name: p, Source: domain.ModelFromPreferred}
		}
	}
	if name := firstContaining(available, rules.FastHint); name != "" {
		return domain.ModelSelection{Name: name, Source: domain.ModelFromFast}
	}
	if name := firstContaining(available, rules.ProHint); name != "" {
		return domain.ModelSelection{Name: name, Source: domain.ModelFromPro}
	}
	return domain.ModelSelection{Name: available[0], Source: domain.ModelFromFirst}
}

func firstContaining(names []string, hint string) string {
	if hint == "" {
		return ""
	}
	hint = strings.ToLower(hint)
	for _, n := range names {
		if strings.Contains(strings.ToLower(n), hint) {
			return n
		}
	}
	return ""
}
