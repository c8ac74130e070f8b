package ensemble

import (
	"context"
	"sync"
	"time"

	"github.com/sambitsargam/ChainLens-sub000/internal/llm"
)

// scriptedProvider returns queued responses, then repeats the last one
type scriptedProvider struct {
	name    string
	replies []reply
	delay   time.Duration

	mu    sync.Mutex
	calls int
}

type reply struct {
	text string
	err  error
}

func (p *scriptedProvider) Name() string { return p.name }

func (p *scriptedProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.mu.Lock()
	i := p.calls
	p.calls++
	p.mu.Unlock()

	if p.delay > 0 {
		select {
		case <-time.After(p.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}

	if i >= len(p.replies) {
		i = len(p.replies) - 1
	}
	r := p.replies[i]
	return r.text, r.err
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func labelled(name, label string) *scriptedProvider {
	return &scriptedProvider{
		name:    name,
		replies: []reply{{text: `{"label": "` + label + `", "explanation": "because ` + name + `"}`}},
	}
}

func failing(name string, err error) *scriptedProvider {
	return &scriptedProvider{name: name, replies: []reply{{err: err}}}
}

// recordingWaiter records every rate-limit key
type recordingWaiter struct {
	mu   sync.Mutex
	keys []string
}

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.keys = append(w.keys, key)
	return nil
}

func fastOptions() Options {
	return Options{
		Timeout:     time.Second,
		MaxAttempts: 3,
		BaseBackoff: time.Millisecond,
		MaxBackoff:  5 * time.Millisecond,
	}
}

// cancellingProvider cancels the request context mid fan-out, then answers
type cancellingProvider struct {
	*scriptedProvider
	cancel context.CancelFunc
}

func (p *cancellingProvider) Complete(ctx context.Context, req llm.Request) (string, error) {
	p.cancel()
	return p.scriptedProvider.Complete(ctx, req)
}
