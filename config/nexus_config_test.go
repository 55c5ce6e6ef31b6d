package config

import (
	"testing"
	"time"

	"nexus_server/pkg/apperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"DATABASE_URL": "postgres://localhost/nexus"})
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "session", cfg.SessionCookieName)
	assert.Equal(t, 14*24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "http://localhost:8080/auth/google/callback", cfg.GoogleRedirectURL)
	assert.Equal(t, []string{"http://localhost:3000", "http://127.0.0.1:3000"}, cfg.AllowedOrigins)
	assert.Equal(t, "gemini", cfg.LLMProvider)
	assert.Equal(t, "us-central1", cfg.GoogleCloudRegion)
	assert.Equal(t, "secret.key", cfg.EncryptionKeyFile)
	assert.Equal(t, "subject:(interview) newer_than:14d", cfg.SyncQuery)
	assert.Equal(t, int64(5), cfg.SyncMaxMessages)
	assert.Equal(t, 4, cfg.SyncWorkers)
	assert.Equal(t, 5*time.Minute, cfg.SyncTimeout)
	assert.Empty(t, cfg.ModelPreferences)

	// development gets an ephemeral secret
	assert.Len(t, cfg.SecretKey, 64)
	assert.NoError(t, cfg.Validate())
	assert.Contains(t, cfg.Warnings(), "SECRET_KEY not set; using an ephemeral secret, sessions end on restart")
}

func TestLoadFrom_Overrides(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"ENV":                   "production",
		"LOG_LEVEL":             "warn",
		"DATABASE_URL":          "postgres://db/nexus",
		"SECRET_KEY":            "k",
		"ALLOWED_ORIGINS":       " https://app.example , ,https://www.example",
		"LLM_PROVIDER":          " OpenAI ",
		"OPENAI_API_KEY":        "sk",
		"LLM_MODEL_PREFERENCES": "gpt-4o,gpt-4o-mini",
		"SYNC_MAX_MESSAGES":     "20",
		"SYNC_TIMEOUT":          "90s",
		"SESSION_MAX_AGE":       "24h",
	})
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, "warn", cfg.LogLevel)
	assert.Equal(t, []string{"https://app.example", "https://www.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "openai", cfg.LLMProvider)
	assert.Equal(t, []string{"gpt-4o", "gpt-4o-mini"}, cfg.ModelPreferences)
	assert.Equal(t, int64(20), cfg.SyncMaxMessages)
	assert.Equal(t, 90*time.Second, cfg.SyncTimeout)
	assert.Equal(t, 24*time.Hour, cfg.SessionMaxAge)
	assert.Equal(t, "k", cfg.SecretKey)
	assert.NoError(t, cfg.Validate())
}

func TestLoadFrom_BadValue(t *testing.T) {
	_, err := LoadFrom(map[string]string{"SYNC_WORKERS": "many"})
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		vars    map[string]string
		wantErr string
	}{
		{"missing database", map[string]string{}, "DATABASE_URL"},
		{"production without secret", map[string]string{"ENV": "production", "DATABASE_URL": "x"}, "SECRET_KEY"},
		{"unknown provider", map[string]string{"DATABASE_URL": "x", "LLM_PROVIDER": "claude"}, "LLM_PROVIDER"},
		{"zero workers", map[string]string{"DATABASE_URL": "x", "SYNC_WORKERS": "0"}, "SYNC_WORKERS"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := LoadFrom(tt.vars)
			require.NoError(t, err)
			err = cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			assert.Equal(t, apperr.CodeConfigError, apperr.AsAppError(err).Code)
		})
	}
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"LLM_PROVIDER": "claude", "SYNC_WORKERS": "0"})
	require.NoError(t, err)

	err = cfg.Validate()
	require.True(t, apperr.IsAppError(err))
	for _, name := range []string{"DATABASE_URL", "LLM_PROVIDER", "SYNC_WORKERS"} {
		assert.Contains(t, err.Error(), name)
	}
}

func TestWarnings(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"DATABASE_URL":         "x",
		"SECRET_KEY":           "k",
		"GOOGLE_CLIENT_ID":     "id",
		"GOOGLE_CLIENT_SECRET": "secret",
		"GOOGLE_API_KEY":       "key",
		"REDIS_URL":            "redis://localhost:6379",
	})
	require.NoError(t, err)
	assert.Empty(t, cfg.Warnings())

	cfg, err = LoadFrom(map[string]string{"DATABASE_URL": "x", "SECRET_KEY": "k", "LLM_PROVIDER": "vertex"})
	require.NoError(t, err)
	w := cfg.Warnings()
	assert.Contains(t, w, "GOOGLE_CLOUD_PROJECT not set; the Vertex AI client cannot start")
	assert.Contains(t, w, "REDIS_URL not set; OAuth state is kept in memory")
	assert.Contains(t, w, "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set; sign-in will fail")
}
