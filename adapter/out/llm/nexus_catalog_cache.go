package llm

import (
	"context"
	"time"

	"nexus_server/core/port/out"
	"nexus_server/pkg/logger"
)

// JSONCache is the subset of pkg/cache.RedisCache the catalog needs.
type JSONCache interface {
	GetJSON(ctx context.Context, key string, dest any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

// CachedCatalog remembers a provider's model list between restarts.
// Generate calls pass straight through.
type CachedCatalog struct {
	out.LanguageModel
	cache JSONCache
	ttl   time.Duration
}

func NewCachedCatalog(lm out.LanguageModel, cache JSONCache, ttl time.Duration) *CachedCatalog {
	return &CachedCatalog{LanguageModel: lm, cache: cache, ttl: ttl}
}

// ListModels serves from the cache when possible. Cache errors fall back to
// the provider; an empty listing is never cached.
func (c *CachedCatalog) ListModels(ctx context.Context) ([]out.ModelInfo, error) {
	key := "models:" + c.Provider()

	var cached []out.ModelInfo
	hit, err := c.cache.GetJSON(ctx, key, &cached)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Warn("[CachedCatalog.ListModels] cache read failed")
	}
	if hit && len(cached) > 0 {
		return cached, nil
	}

	models, err := c.LanguageModel.ListModels(ctx)
	if err != nil || len(models) == 0 {
		return models, err
	}
	if err := c.cache.SetJSON(ctx, key, models, c.ttl); err != nil {
		logger.WithContext(ctx).WithError(err).Warn("[CachedCatalog.ListModels] cache write failed")
	}
	return models, nil
}

// Close releases the wrapped client when it holds resources.
func (c *CachedCatalog) Close() error {
	if closer, ok := c.LanguageModel.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
