package config

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"nexus_server/pkg/apperr"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	Port        string `env:"PORT" envDefault:"8080"`
	Environment string `env:"ENV" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL"`

	// Storage
	DatabaseURL string `env:"DATABASE_URL"`
	RedisURL    string `env:"REDIS_URL"`

	// Session
	SecretKey         string        `env:"SECRET_KEY"`
	SessionCookieName string        `env:"SESSION_COOKIE_NAME" envDefault:"session"`
	SessionMaxAge     time.Duration `env:"SESSION_MAX_AGE" envDefault:"336h"`

	// OAuth - Google
	GoogleClientID     string `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string `env:"GOOGLE_CLIENT_SECRET"`
	GoogleRedirectURL  string `env:"GOOGLE_REDIRECT_URL" envDefault:"http://localhost:8080/auth/google/callback"`

	// Front end
	FrontendURL          string   `env:"FRONTEND_URL" envDefault:"http://localhost:3000"`
	FrontendRedirectPath string   `env:"FRONTEND_REDIRECT_PATH" envDefault:"/dashboard"`
	AllowedOrigins       []string `env:"ALLOWED_ORIGINS" envDefault:"http://localhost:3000,http://127.0.0.1:3000" envSeparator:","`

	// Language model
	LLMProvider        string   `env:"LLM_PROVIDER" envDefault:"gemini"`
	GoogleAPIKey       string   `env:"GOOGLE_API_KEY"`
	GoogleCloudProject string   `env:"GOOGLE_CLOUD_PROJECT"`
	GoogleCloudRegion  string   `env:"GOOGLE_CLOUD_LOCATION" envDefault:"us-central1"`
	OpenAIAPIKey       string   `env:"OPENAI_API_KEY"`
	ModelPreferences   []string `env:"LLM_MODEL_PREFERENCES" envSeparator:","`
	DefaultModel       string   `env:"LLM_DEFAULT_MODEL"`

	// Token encryption
	EncryptionKeyFile string `env:"ENCRYPTION_KEY_FILE" envDefault:"secret.key"`

	// Sync
	SyncQuery       string        `env:"SYNC_QUERY" envDefault:"subject:(interview) newer_than:14d"`
	SyncMaxMessages int64         `env:"SYNC_MAX_MESSAGES" envDefault:"5"`
	SyncWorkers     int           `env:"SYNC_WORKERS" envDefault:"4"`
	SyncTimeout     time.Duration `env:"SYNC_TIMEOUT" envDefault:"5m"`

	generatedSecret bool
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return parse(env.Options{})
}

// LoadFrom parses the given variables instead of the process environment.
func LoadFrom(vars map[string]string) (*Config, error) {
	return parse(env.Options{Environment: vars})
}

func parse(opts env.Options) (*Config, error) {
	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, opts); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.LLMProvider = strings.ToLower(strings.TrimSpace(cfg.LLMProvider))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.IsDevelopment() {
			cfg.LogLevel = "debug"
		}
	}
	cfg.AllowedOrigins = trimAll(cfg.AllowedOrigins)
	cfg.ModelPreferences = trimAll(cfg.ModelPreferences)

	if cfg.SecretKey == "" && !cfg.IsProduction() {
		secret, err := randomSecret()
		if err != nil {
			return nil, err
		}
		cfg.SecretKey = secret
		cfg.generatedSecret = true
	}
	return cfg, nil
}

// Validate reports configuration the service cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SecretKey == "" {
		errs = append(errs, errors.New("SECRET_KEY is required in production"))
	}
	switch c.LLMProvider {
	case "gemini", "vertex", "openai":
	default:
		errs = append(errs, fmt.Errorf("LLM_PROVIDER %q is not one of gemini, vertex, openai", c.LLMProvider))
	}
	if c.SyncMaxMessages <= 0 {
		errs = append(errs, errors.New("SYNC_MAX_MESSAGES must be positive"))
	}
	if c.SyncWorkers <= 0 {
		errs = append(errs, errors.New("SYNC_WORKERS must be positive"))
	}
	if len(errs) == 0 {
		return nil
	}
	return apperr.ConfigError(errors.Join(errs...))
}

// Warnings lists gaps that leave features degraded but let the service run.
func (c *Config) Warnings() []string {
	var w []string
	if c.generatedSecret {
		w = append(w, "SECRET_KEY not set; using an ephemeral secret, sessions end on restart")
	}
	if c.GoogleClientID == "" || c.GoogleClientSecret == "" {
		w = append(w, "GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set; sign-in will fail")
	}
	switch c.LLMProvider {
	case "gemini":
		if c.GoogleAPIKey == "" {
			w = append(w, "GOOGLE_API_KEY not set; extraction and feedback calls will fail")
		}
	case "vertex":
		if c.GoogleCloudProject == "" {
			w = append(w, "GOOGLE_CLOUD_PROJECT not set; the Vertex AI client cannot start")
		}
	case "openai":
		if c.OpenAIAPIKey == "" {
			w = append(w, "OPENAI_API_KEY not set; extraction and feedback calls will fail")
		}
	}
	if c.RedisURL == "" {
		w = append(w, "REDIS_URL not set; OAuth state is kept in memory")
	}
	return w
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func trimAll(in []string) []string {
	out := in[:0]
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func randomSecret() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate session secret: %w", err)
	}
	return hex.EncodeToString(b), nil
}
