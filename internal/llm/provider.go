// Package llm holds the classification provider clients and the prompt and
// response handling shared by all of them.
package llm

import (
	"context"
	"net/http"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/util"
)

// Provider defines the interface for classification providers
type Provider interface {
	// Name returns the registry name, also used for tie-breaking and rate limiting
	Name() string

	// Complete sends one prompt and returns the raw model text
	Complete(ctx context.Context, req Request) (string, error)
}

// Request is a single completion request
type Request struct {
	System      string
	Prompt      string
	Model       string // Overrides the provider default when set
	MaxTokens   int
	Temperature float64
}

// Config holds provider client configuration
type Config struct {
	// Name overrides the registry name, e.g. "grok" for an OpenAI-compatible endpoint
	Name string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints
	BaseURL string

	// Timeout bounds one HTTP round trip
	Timeout time.Duration

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Timeout:   30 * time.Second,
		MaxTokens: 400,
	}
}

func (c Config) maxTokens(req Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 400
}

func (c Config) model(req Request, fallback string) string {
	if req.Model != "" {
		return req.Model
	}
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c Config) httpClient() *http.Client {
	timeout := c.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: util.NewTransport(c.HTTPProxy, c.HTTPSProxy, c.NoProxy),
	}
}
