package embed

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/sambitsargam/ChainLens-sub000/internal/cache"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// Cached decorates a Provider with a vector cache. Cache failures never fail the call.
type Cached struct {
	Provider
	cache  cache.Cache
	logger *slog.Logger
}

// NewCached wraps p with c
func NewCached(p Provider, c cache.Cache, logger *slog.Logger) *Cached {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cached{Provider: p, cache: c, logger: logger}
}

// Embed returns a cached vector when present, otherwise calls the wrapped provider
func (c *Cached) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	key := cache.EmbeddingKey(c.Name(), c.Model(), text)

	if data, ok := c.cache.Get(key); ok {
		var vec model.EmbeddingVector
		if err := json.Unmarshal(data, &vec); err == nil && vec.Provider == c.Name() {
			return vec, nil
		}
		_ = c.cache.Delete(key)
	}

	vec, err := c.Provider.Embed(ctx, text)
	if err != nil {
		return vec, err
	}

	if data, err := json.Marshal(vec); err == nil {
		if err := c.cache.Set(key, data, 0); err != nil {
			c.logger.Debug("embedding cache write failed", "provider", c.Name(), "err", err)
		}
	}

	return vec, nil
}
