package embed

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/cache"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
)

// RegistryOptions carries optional collaborators for NewRegistry
type RegistryOptions struct {
	Cache  cache.Cache // nil disables caching
	Waiter Waiter
	Logger *slog.Logger

	// HTTP carries the proxy settings for provider clients
	HTTP model.HTTPConfig

	// Retry overrides DefaultRetryPolicy when MaxAttempts is set
	Retry retry.Policy
}

// NewRegistry builds a chain from the configured priority order, registering
// only providers that have credentials. An empty chain is not an error here;
// callers fall back to lexical similarity.
func NewRegistry(ctx context.Context, cfg model.EmbeddingConfig, creds model.Credentials, opts RegistryOptions) (*Chain, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	seen := make(map[string]bool)

	for _, name := range cfg.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := newProvider(ctx, name, cfg, creds, opts.HTTP)
		if err != nil {
			return nil, err
		}
		if p == nil {
			logger.Debug("embedding provider not configured, skipping", "provider", name)
			continue
		}

		if opts.Cache != nil {
			p = NewCached(p, opts.Cache, logger)
		}
		providers = append(providers, p)
	}

	chainOpts := []ChainOption{WithWaiter(opts.Waiter), WithLogger(logger)}
	if opts.Retry.MaxAttempts > 0 {
		chainOpts = append(chainOpts, WithRetryPolicy(opts.Retry))
	}
	return NewChain(providers, chainOpts...), nil
}

// newProvider returns nil, nil when the provider has no credentials
func newProvider(ctx context.Context, name string, cfg model.EmbeddingConfig, creds model.Credentials, httpCfg model.HTTPConfig) (Provider, error) {
	switch name {
	case "openai":
		if creds.OpenAIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(Config{
			APIKey:        creds.OpenAIKey,
			BaseURL:       creds.OpenAIBaseURL,
			Model:         cfg.OpenAIModel,
			MaxInputChars: cfg.MaxInputChars,
			Timeout:       cfg.Timeout,
			HTTPProxy:     httpCfg.HTTPProxy,
			HTTPSProxy:    httpCfg.HTTPSProxy,
			NoProxy:       httpCfg.NoProxy,
		})

	case "gemini":
		if creds.GeminiKey == "" {
			return nil, nil
		}
		return NewGeminiProvider(ctx, Config{
			APIKey:        creds.GeminiKey,
			Model:         cfg.GeminiModel,
			MaxInputChars: cfg.MaxInputChars,
			Timeout:       cfg.Timeout,
			HTTPProxy:     httpCfg.HTTPProxy,
			HTTPSProxy:    httpCfg.HTTPSProxy,
			NoProxy:       httpCfg.NoProxy,
		})

	case "ollama":
		if creds.OllamaBaseURL == "" {
			return nil, nil
		}
		return NewOllamaProvider(Config{
			BaseURL:       creds.OllamaBaseURL,
			Model:         cfg.OllamaModel,
			MaxInputChars: cfg.MaxInputChars,
			Timeout:       cfg.Timeout,
			HTTPProxy:     httpCfg.HTTPProxy,
			HTTPSProxy:    httpCfg.HTTPSProxy,
			NoProxy:       httpCfg.NoProxy,
		})

	default:
		return nil, fmt.Errorf("%w: %s (supported: openai, gemini, ollama)", ErrUnknownProvider, name)
	}
}
