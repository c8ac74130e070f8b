package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/cache"
	"github.com/sambitsargam/ChainLens-sub000/internal/embed"
	"github.com/sambitsargam/ChainLens-sub000/internal/ensemble"
	"github.com/sambitsargam/ChainLens-sub000/internal/llm"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/pipeline"
	"github.com/sambitsargam/ChainLens-sub000/internal/worker"
)

// buildPipeline wires providers, cache, rate limiter and loader from cfg.
// Credentials are read from the environment once, here.
func buildPipeline(ctx context.Context, cfg *model.Config, pcfg pipeline.Config) (*pipeline.Pipeline, error) {
	logger := slog.Default()
	creds := model.CredentialsFromEnv()

	// One limiter for every outbound call: embedding and classification
	// providers are keyed by name, article fetches by host
	limiter := worker.NewLimiter(cfg.RateLimiting.RequestsPerSecond, cfg.RateLimiting.BurstSize)
	for name, rps := range cfg.RateLimiting.Providers {
		limiter.SetRate(limiterKey(name), rps, cfg.RateLimiting.BurstSize)
	}

	chain, err := embed.NewRegistry(ctx, cfg.Embedding, creds, embed.RegistryOptions{
		Cache:  cache.FromConfig(cfg.Cache),
		Waiter: limiter,
		Logger: logger,
		HTTP:   cfg.HTTP,
	})
	if err != nil {
		return nil, fmt.Errorf("embedding providers: %w", err)
	}

	var classifier *ensemble.Classifier
	if !pcfg.SkipClassification {
		providers, err := llm.NewRegistry(ctx, cfg.Classify, creds, llm.RegistryOptions{HTTP: cfg.HTTP, Logger: logger})
		if err != nil {
			return nil, fmt.Errorf("classification providers: %w", err)
		}
		classifier = ensemble.New(providers, ensemble.OptionsFromConfig(cfg.Classify),
			ensemble.WithWaiter(limiter),
			ensemble.WithLogger(logger))
	}

	loader := pipeline.NewLoader(cfg.HTTP,
		pipeline.WithLimiter(limiter),
		pipeline.WithLoaderLogger(logger))

	if chain.Len() == 0 {
		logger.Warn("no embedding provider configured, comparisons use lexical similarity")
	}
	logger.Debug("providers configured", "embedding", chain.Names(), "classification", providerNames(classifier))

	return pipeline.New(pcfg, pipeline.Deps{
		Chain:      chain,
		Classifier: classifier,
		Loader:     loader,
		Logger:     logger,
	}), nil
}

// limiterKey maps a config key to the limiter key used by the providers.
// Viper keys cannot hold ":" reliably, so embedding overrides use "embed_".
func limiterKey(name string) string {
	if rest, ok := strings.CutPrefix(name, "embed_"); ok {
		return "embed:" + rest
	}
	return name
}

func providerNames(c *ensemble.Classifier) []string {
	if c == nil {
		return nil
	}
	return c.Providers()
}
