package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
)

// Result is a vector together with the provider that produced it
type Result struct {
	Vector       model.EmbeddingVector
	ProviderUsed string
}

// Chain tries providers in a fixed priority order
type Chain struct {
	providers []Provider
	waiter    Waiter
	policy    retry.Policy
	logger    *slog.Logger
}

// ChainOption configures a Chain
type ChainOption func(*Chain)

// WithWaiter rate-limits every outbound call through w, keyed by provider name
func WithWaiter(w Waiter) ChainOption {
	return func(c *Chain) { c.waiter = w }
}

// WithRetryPolicy replaces the policy applied to rate-limited provider calls
func WithRetryPolicy(p retry.Policy) ChainOption {
	return func(c *Chain) { c.policy = p }
}

// WithLogger sets the logger used for swallowed provider errors
func WithLogger(l *slog.Logger) ChainOption {
	return func(c *Chain) {
		if l != nil {
			c.logger = l
		}
	}
}

// NewChain creates a chain over providers, highest priority first
func NewChain(providers []Provider, opts ...ChainOption) *Chain {
	c := &Chain{
		providers: providers,
		policy:    DefaultRetryPolicy(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Len returns the number of providers in the chain
func (c *Chain) Len() int {
	if c == nil {
		return 0
	}
	return len(c.providers)
}

// Names returns provider names in priority order
func (c *Chain) Names() []string {
	if c == nil {
		return nil
	}
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// EmbedWith embeds text using only the named provider
func (c *Chain) EmbedWith(ctx context.Context, name string, text string) (model.EmbeddingVector, error) {
	for _, p := range c.providers {
		if p.Name() == name {
			return c.embed(ctx, p, text)
		}
	}
	return model.EmbeddingVector{}, fmt.Errorf("%w: %s", ErrUnknownProvider, name)
}

// EmbedWithFallback returns the first successful embedding in priority order.
// Earlier failures are logged and swallowed.
func (c *Chain) EmbedWithFallback(ctx context.Context, text string) (Result, error) {
	return c.EmbedFrom(ctx, 0, text)
}

// EmbedFrom is EmbedWithFallback starting at the provider at index start
func (c *Chain) EmbedFrom(ctx context.Context, start int, text string) (Result, error) {
	if c.Len() == 0 {
		return Result{}, fmt.Errorf("%w: no providers configured", ErrNoProviderAvailable)
	}

	var errs []error
	for i := start; i < len(c.providers); i++ {
		p := c.providers[i]
		vec, err := c.embed(ctx, p, text)
		if err == nil {
			return Result{Vector: vec, ProviderUsed: p.Name()}, nil
		}

		c.logger.Warn("embedding provider failed, trying next", "provider", p.Name(), "err", err)
		errs = append(errs, fmt.Errorf("%s: %w", p.Name(), err))

		if ctx.Err() != nil {
			break
		}
	}

	return Result{}, fmt.Errorf("%w: %w", ErrNoProviderAvailable, errors.Join(errs...))
}

// IndexOf returns the priority index of the named provider, or -1
func (c *Chain) IndexOf(name string) int {
	for i, p := range c.providers {
		if p.Name() == name {
			return i
		}
	}
	return -1
}

func (c *Chain) embed(ctx context.Context, p Provider, text string) (model.EmbeddingVector, error) {
	text = Truncate(text, p.MaxInputChars())

	var vec model.EmbeddingVector
	err := retry.Do(ctx, c.policy, func(ctx context.Context, attempt int) error {
		if c.waiter != nil {
			if err := c.waiter.Wait(ctx, "embed:"+p.Name()); err != nil {
				return err
			}
		}

		var err error
		vec, err = p.Embed(ctx, text)
		if err != nil && IsRetryable(err) {
			c.logger.Warn("embedding provider rate limited", "provider", p.Name(), "attempt", attempt+1, "err", err)
		}
		return err
	})
	if err != nil {
		return model.EmbeddingVector{}, err
	}

	// Providers stamp their own name; enforce it so downstream comparisons stay honest
	if vec.Provider != p.Name() || vec.Dimension != len(vec.Values) {
		return model.EmbeddingVector{}, fmt.Errorf("%w: provider %s returned vector stamped %s/%d with %d values",
			ErrIncompatibleVectors, p.Name(), vec.Provider, vec.Dimension, len(vec.Values))
	}

	return vec, nil
}
