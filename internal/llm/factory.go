package llm

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// RegistryOptions carries optional settings for NewRegistry
type RegistryOptions struct {
	HTTP   model.HTTPConfig // Proxy settings
	Logger *slog.Logger
}

// NewRegistry builds the provider list in configured priority order,
// registering only providers that have credentials. Unconfigured providers
// are skipped; an empty result is left for the caller to reject.
func NewRegistry(ctx context.Context, cfg model.ClassifyConfig, creds model.Credentials, opts RegistryOptions) ([]Provider, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var providers []Provider
	seen := make(map[string]bool)

	for _, name := range cfg.Providers {
		name = strings.ToLower(strings.TrimSpace(name))
		if name == "claude" {
			name = "anthropic"
		}
		if seen[name] {
			continue
		}
		seen[name] = true

		p, err := NewProvider(ctx, name, ConfigFromModel(name, cfg, opts.HTTP), creds)
		if err != nil {
			return nil, err
		}
		if p == nil {
			logger.Debug("classification provider not configured, skipping", "provider", name, "err", ErrProviderUnavailable)
			continue
		}
		providers = append(providers, p)
	}

	return providers, nil
}

// NewProvider creates a named provider. It returns nil, nil when the
// provider has no credentials.
func NewProvider(ctx context.Context, name string, config Config, creds model.Credentials) (Provider, error) {
	switch name {
	case "openai":
		if creds.OpenAIKey == "" {
			return nil, nil
		}
		config.APIKey = creds.OpenAIKey
		config.BaseURL = creds.OpenAIBaseURL
		return NewOpenAIProvider(config)

	case "gemini":
		if creds.GeminiKey == "" {
			return nil, nil
		}
		config.APIKey = creds.GeminiKey
		return NewGeminiProvider(ctx, config)

	case "grok", "xai":
		if creds.XAIKey == "" {
			return nil, nil
		}
		config.APIKey = creds.XAIKey
		config.BaseURL = creds.XAIBaseURL
		return NewGrokProvider(config)

	case "anthropic":
		if creds.AnthropicKey == "" {
			return nil, nil
		}
		config.APIKey = creds.AnthropicKey
		config.BaseURL = creds.AnthropicBaseURL
		return NewAnthropicProvider(config)

	case "ollama":
		if creds.OllamaBaseURL == "" {
			return nil, nil
		}
		config.BaseURL = creds.OllamaBaseURL
		return NewOllamaProvider(config)

	default:
		return nil, fmt.Errorf("%w: %s (supported: openai, gemini, grok, anthropic, ollama)", ErrUnknownProvider, name)
	}
}

// ConfigFromModel converts the classify config section for one provider
func ConfigFromModel(name string, cfg model.ClassifyConfig, httpCfg model.HTTPConfig) Config {
	return Config{
		Model:      cfg.Models[name],
		Timeout:    cfg.Timeout,
		MaxTokens:  cfg.MaxTokens,
		HTTPProxy:  httpCfg.HTTPProxy,
		HTTPSProxy: httpCfg.HTTPSProxy,
		NoProxy:    httpCfg.NoProxy,
	}
}
