// Package ensemble fans one discrepancy out to every configured
// classification provider and reconciles their votes.
package ensemble

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/llm"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/retry"
	"github.com/sambitsargam/ChainLens-sub000/internal/worker"
)

// Input is the discrepancy handed to every provider
type Input = llm.Input

// Waiter rate-limits calls per provider name
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Options tune each provider call
type Options struct {
	Timeout     time.Duration // Per call, not per discrepancy
	MaxAttempts int
	BaseBackoff time.Duration
	MaxBackoff  time.Duration
	MaxTokens   int
	Temperature float64
}

// OptionsFromConfig converts the classify config section
func OptionsFromConfig(cfg model.ClassifyConfig) Options {
	return Options{
		Timeout:     cfg.Timeout,
		MaxAttempts: cfg.MaxAttempts,
		BaseBackoff: cfg.BaseBackoff,
		MaxBackoff:  cfg.MaxBackoff,
		MaxTokens:   cfg.MaxTokens,
	}
}

func (o Options) policy() retry.Policy {
	return retry.Policy{
		MaxAttempts: o.MaxAttempts,
		BaseDelay:   o.BaseBackoff,
		MaxDelay:    o.MaxBackoff,
		Retryable:   llm.IsRetryable,
	}
}

// Classifier asks every provider for a verdict concurrently
type Classifier struct {
	providers []llm.Provider
	opts      Options
	waiter    Waiter
	logger    *slog.Logger
}

// Option configures a Classifier
type Option func(*Classifier)

// WithWaiter rate-limits provider calls through w
func WithWaiter(w Waiter) Option {
	return func(c *Classifier) { c.waiter = w }
}

// WithLogger sets the logger
func WithLogger(l *slog.Logger) Option {
	return func(c *Classifier) {
		if l != nil {
			c.logger = l
		}
	}
}

// New creates a classifier over providers, highest priority first
func New(providers []llm.Provider, opts Options, options ...Option) *Classifier {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 3
	}

	c := &Classifier{
		providers: providers,
		opts:      opts,
		logger:    slog.Default(),
	}
	for _, o := range options {
		o(c)
	}
	return c
}

// Providers returns provider names in priority order
func (c *Classifier) Providers() []string {
	names := make([]string, len(c.providers))
	for i, p := range c.providers {
		names[i] = p.Name()
	}
	return names
}

// Classify returns one vote per provider, in provider priority order.
// Provider failures become votes with Error set; only an empty provider
// list or an empty input is returned as an error.
func (c *Classifier) Classify(ctx context.Context, in Input) ([]model.ClassificationVote, error) {
	if len(c.providers) == 0 {
		return nil, llm.ErrNoProvidersConfigured
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	prompt := llm.BuildClassificationPrompt(in)

	pool := worker.NewPool(ctx, len(c.providers))
	pool.Start()
	for _, p := range c.providers {
		pool.Submit(&voteJob{classifier: c, provider: p, prompt: prompt})
	}
	results := pool.Wait()

	byProvider := make(map[string]model.ClassificationVote, len(results))
	for _, r := range results {
		vote := r.(*voteResult).vote
		byProvider[vote.Provider] = vote
	}

	votes := make([]model.ClassificationVote, len(c.providers))
	for i, p := range c.providers {
		vote, ok := byProvider[p.Name()]
		if !ok {
			// Never ran because ctx was cancelled first
			vote = failedVote(p.Name(), ctx.Err())
		}
		votes[i] = vote
	}

	return votes, nil
}

// Discrepancy classifies in and aggregates the votes into a discrepancy record
func (c *Classifier) Discrepancy(ctx context.Context, in Input, side model.Side) (*model.Discrepancy, error) {
	votes, err := c.Classify(ctx, in)
	if err != nil {
		return nil, err
	}

	consensus := Aggregate(votes)
	if len(consensus.Failed) == len(votes) {
		c.logger.Warn("every provider failed, using default label",
			"err", llm.ErrAllProvidersFailed, "label", consensus.Label, "providers", len(votes))
	}

	claim := in.Claim
	if side == model.SideMissing {
		claim = in.CounterpartClaim
	}

	var counterpart *string
	if in.CounterpartContext != "" {
		text := in.CounterpartContext
		counterpart = &text
	}

	failed := make([]string, 0, len(consensus.Failed))
	for _, v := range consensus.Failed {
		failed = append(failed, v.Provider)
	}

	return &model.Discrepancy{
		Claim:              claim,
		CounterpartContext: counterpart,
		Votes:              votes,
		ConsensusLabel:     consensus.Label,
		Disagreement:       consensus.Disagreement,
		Side:               side,
		Confidence:         consensus.Confidence,
		FailedProviders:    failed,
	}, nil
}

// vote runs one provider call with rate limiting, timeout and retry
func (c *Classifier) vote(ctx context.Context, p llm.Provider, prompt string) model.ClassificationVote {
	req := llm.Request{
		System:      llm.SystemPrompt,
		Prompt:      prompt,
		MaxTokens:   c.opts.MaxTokens,
		Temperature: c.opts.Temperature,
	}

	var raw string
	err := retry.Do(ctx, c.opts.policy(), func(ctx context.Context, attempt int) error {
		if c.waiter != nil {
			if err := c.waiter.Wait(ctx, p.Name()); err != nil {
				return err
			}
		}

		callCtx, cancel := context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()

		text, err := p.Complete(callCtx, req)
		if err != nil {
			if errors.Is(callCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil && !errors.Is(err, llm.ErrTimeout) {
				err = fmt.Errorf("%w: %w", llm.ErrTimeout, err)
			}
			c.logger.Warn("classification provider failed", "provider", p.Name(), "attempt", attempt+1, "err", err)
			return err
		}

		raw = text
		return nil
	})
	if err != nil {
		return failedVote(p.Name(), err)
	}

	verdict, err := llm.ParseVerdict(raw)
	if err != nil {
		c.logger.Warn("unparseable classification response", "provider", p.Name(), "err", err)
		return failedVote(p.Name(), err)
	}
	if verdict.Substituted {
		c.logger.Warn("provider returned a label outside the taxonomy, using default",
			"provider", p.Name(), "label", verdict.RawLabel, "default", model.DefaultLabel)
	}

	return model.ClassificationVote{
		Provider:    p.Name(),
		Label:       verdict.Label,
		Explanation: verdict.Explanation,
	}
}

func failedVote(provider string, err error) model.ClassificationVote {
	if err == nil {
		err = errors.New("provider call did not run")
	}
	return model.ClassificationVote{
		Provider:  provider,
		Error:     err.Error(),
		ErrorKind: llm.Kind(err),
	}
}

// voteJob is one provider call on the worker pool
type voteJob struct {
	classifier *Classifier
	provider   llm.Provider
	prompt     string
}

func (j *voteJob) Execute(ctx context.Context) worker.Result {
	return &voteResult{vote: j.classifier.vote(ctx, j.provider, j.prompt)}
}

type voteResult struct {
	vote model.ClassificationVote
}

func (r *voteResult) GetError() error {
	if r.vote.Failed() {
		return errors.New(r.vote.Error)
	}
	return nil
}
