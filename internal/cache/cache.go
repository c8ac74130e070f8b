// Package cache stores embedding vectors between runs. It is optional: the
// comparison core works without it.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// Cache defines the interface for caching
type Cache interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration) error
	Delete(key string) error
	Clear() error
}

// EmbeddingKey derives a cache key from the provider, model and input text.
// Vectors from different providers or models never share a key.
func EmbeddingKey(provider, modelName, text string) string {
	h := sha256.New()
	h.Write([]byte(provider))
	h.Write([]byte{0})
	h.Write([]byte(modelName))
	h.Write([]byte{0})
	h.Write([]byte(text))
	return "chainlens:v1:embed:" + provider + ":" + hex.EncodeToString(h.Sum(nil))
}

// FromConfig builds the cache described by cfg, or nil when caching is disabled
func FromConfig(cfg model.CacheConfig) Cache {
	if !cfg.Enabled {
		return nil
	}
	if cfg.Dir == "" {
		return NewMemoryCache(cfg.MemoryTTL, 10*time.Minute)
	}
	return NewLayeredCache(cfg.MemoryTTL, cfg.Dir, cfg.DiskTTL)
}
