package extraction

import (
	"context"
	"errors"
	"testing"

	"nexus_server/core/domain"
	"nexus_server/core/port/out"

	"github.com/stretchr/testify/assert"
)

func gen(names ...string) []out.ModelInfo {
	models := make([]out.ModelInfo, len(names))
	for i, n := range names {
		models[i] = out.ModelInfo{Name: n, SupportsGenerate: true}
	}
	return models
}

func TestChoose(t *testing.T) {
	rules := DefaultGeminiRules()

	tests := []struct {
		name   string
		models []out.ModelInfo
		want   domain.ModelSelection
	}{
		{
			name:   "first preference wins",
			models: gen("models/gemini-1.0-pro", "models/gemini-1.5-pro", "models/gemini-1.5-flash"),
			want:   domain.ModelSelection{Name: "models/gemini-1.5-flash", Source: domain.ModelFromPreferred},
		},
		{
			name:   "later preference",
			models: gen("models/text-bison", "models/gemini-pro"),
			want:   domain.ModelSelection{Name: "models/gemini-pro", Source: domain.ModelFromPreferred},
		},
		{
			name:   "any fast model",
			models: gen("models/gemini-2.0-pro-exp", "models/gemini-2.0-flash"),
			want:   domain.ModelSelection{Name: "models/gemini-2.0-flash", Source: domain.ModelFromFast},
		},
		{
			name:   "any pro model",
			models: gen("models/embedding-001", "models/gemini-2.5-pro"),
			want:   domain.ModelSelection{Name: "models/gemini-2.5-pro", Source: domain.ModelFromPro},
		},
		{
			name:   "first available",
			models: gen("models/aqa", "models/text-bison"),
			want:   domain.ModelSelection{Name: "models/aqa", Source: domain.ModelFromFirst},
		},
		{
			name: "non generating models ignored",
			models: []out.ModelInfo{
				{Name: "models/gemini-1.5-flash", SupportsGenerate: false},
				{Name: "models/gemini-1.5-pro", SupportsGenerate: true},
			},
			want: domain.ModelSelection{Name: "models/gemini-1.5-pro", Source: domain.ModelFromPreferred},
		},
		{
			name:   "empty catalog",
			models: nil,
			want:   domain.ModelSelection{Name: "models/gemini-1.5-flash", Source: domain.ModelFromFallback},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Choose(tt.models, rules))
		})
	}
}

func TestSelectModel_ListFailure(t *testing.T) {
	lm := &fakeModel{listErr: errors.New("403")}
	sel := SelectModel(context.Background(), lm, DefaultGeminiRules())
	assert.Equal(t, domain.ModelSelection{Name: "models/gemini-1.5-flash", Source: domain.ModelFromFallback}, sel)
}

func TestSelectModel_UsesCatalog(t *testing.T) {
	lm := &fakeModel{models: gen("models/gemini-1.5-pro")}
	sel := SelectModel(context.Background(), lm, DefaultGeminiRules())
	assert.Equal(t, "models/gemini-1.5-pro", sel.Name)
}

func TestRulesFor(t *testing.T) {
	assert.Equal(t, DefaultGeminiRules(), RulesFor("gemini"))
	assert.Equal(t, DefaultGeminiRules(), RulesFor(""))
	assert.Equal(t, "gemini-1.5-flash", RulesFor("vertex").Fallback)
	assert.Equal(t, "gpt-4o-mini", RulesFor("openai").Fallback)
}

func TestSelectionRules_WithOverrides(t *testing.T) {
	base := DefaultGeminiRules()

	same := base.WithOverrides(nil, "")
	assert.Equal(t, base, same)

	got := base.WithOverrides([]string{"models/gemini-2.0-flash"}, "models/gemini-2.0-flash")
	assert.Equal(t, []string{"models/gemini-2.0-flash"}, got.Preferred)
	assert.Equal(t, "models/gemini-2.0-flash", got.Fallback)
	assert.Equal(t, "flash", got.FastHint)
	// the receiver is untouched
	assert.Equal(t, "models/gemini-1.5-flash", base.Preferred[0])
}
