package worker

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

// providerResult is what one provider call hands back to the fan-out
type providerResult struct {
	provider string
	err      error
}

func (r *providerResult) GetError() error {
	return r.err
}

// providerJob simulates one classification call to a named provider
type providerJob struct {
	provider string
	latency  time.Duration
	err      error

	// inFlight and peak track concurrency across jobs sharing them
	inFlight *atomic.Int32
	peak     *atomic.Int32
	started  chan<- struct{}
}

func (j *providerJob) Execute(ctx context.Context) Result {
	if j.inFlight != nil {
		n := j.inFlight.Add(1)
		defer j.inFlight.Add(-1)
		for {
			p := j.peak.Load()
			if n <= p || j.peak.CompareAndSwap(p, n) {
				break
			}
		}
	}
	if j.started != nil {
		close(j.started)
	}

	if j.latency > 0 {
		select {
		case <-time.After(j.latency):
		case <-ctx.Done():
			return &providerResult{provider: j.provider, err: ctx.Err()}
		}
	}
	return &providerResult{provider: j.provider, err: j.err}
}

func TestNewPool(t *testing.T) {
	tests := []struct {
		workers int
		want    int
	}{
		{5, 5},
		{0, 1},
		{-1, 1},
	}
	for _, tt := range tests {
		if got := NewPool(context.Background(), tt.workers).workers; got != tt.want {
			t.Errorf("NewPool(%d) has %d workers, want %d", tt.workers, got, tt.want)
		}
	}
}

func TestPool_FanOutKeepsProviderOrder(t *testing.T) {
	providers := []string{"openai", "gemini", "grok", "anthropic", "ollama"}

	pool := NewPool(context.Background(), len(providers))
	pool.Start()

	// Later providers answer first
	for i, name := range providers {
		pool.Submit(&providerJob{provider: name, latency: time.Duration(len(providers)-i) * 5 * time.Millisecond})
	}

	results := pool.Wait()
	if len(results) != len(providers) {
		t.Fatalf("expected %d results, got %d", len(providers), len(results))
	}
	for i, r := range results {
		if got := r.(*providerResult).provider; got != providers[i] {
			t.Errorf("result %d came from %s, want %s", i, got, providers[i])
		}
	}
}

func TestPool_BoundedConcurrency(t *testing.T) {
	const workers = 3
	pool := NewPool(context.Background(), workers)
	pool.Start()

	var inFlight, peak atomic.Int32
	for i := 0; i < 20; i++ {
		pool.Submit(&providerJob{
			provider: fmt.Sprintf("p%d", i),
			latency:  5 * time.Millisecond,
			inFlight: &inFlight,
			peak:     &peak,
		})
	}

	if results := pool.Wait(); len(results) != 20 {
		t.Errorf("expected 20 results, got %d", len(results))
	}
	if got := peak.Load(); got > workers {
		t.Errorf("peak concurrency %d exceeded %d workers", got, workers)
	}
}

func TestPool_FailedCallsBecomeResults(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	pool.Submit(&providerJob{provider: "openai", err: errors.New("429 too many requests")})
	pool.Submit(&providerJob{provider: "gemini"})

	results := pool.Wait()
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}
	if results[0].GetError() == nil {
		t.Error("expected the openai call to carry its error")
	}
	if results[1].GetError() != nil {
		t.Errorf("expected gemini to succeed, got %v", results[1].GetError())
	}
}

func TestResultCollector(t *testing.T) {
	c := NewResultCollector()
	c.add(indexed{seq: 1, result: &providerResult{provider: "gemini", err: errors.New("err")}})
	c.add(indexed{seq: 0, result: &providerResult{provider: "openai"}})

	res := c.Results()
	if len(res) != 2 {
		t.Fatalf("expected 2 results, got %d", len(res))
	}
	if res[0].(*providerResult).provider != "openai" {
		t.Error("expected results sorted by submission order")
	}
}

func TestPool_SubmitAfterShutdown(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()
	pool.Shutdown()

	done := make(chan bool)
	go func() {
		done <- pool.Submit(&providerJob{provider: "openai"})
	}()

	select {
	case accepted := <-done:
		if accepted {
			t.Error("expected Submit to refuse work after shutdown")
		}
	case <-time.After(time.Second):
		t.Fatal("Submit after shutdown blocked")
	}
}

func TestPool_ShutdownCancelsInFlightCalls(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	started := make(chan struct{})
	pool.Submit(&providerJob{provider: "ollama", latency: time.Minute, started: started})
	<-started

	done := make(chan struct{})
	go func() {
		pool.Shutdown()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Shutdown did not cancel the slow call")
	}

	if _, ok := <-pool.results; ok {
		t.Fatal("expected results channel to be drained and closed")
	}
}

func TestPool_ManyPairsDoNotDeadlock(t *testing.T) {
	pool := NewPool(context.Background(), 2)
	pool.Start()

	done := make(chan []Result)
	go func() {
		for i := 0; i < 100; i++ {
			pool.Submit(&providerJob{provider: fmt.Sprintf("pair-%d", i)})
		}
		done <- pool.Wait()
	}()

	select {
	case results := <-done:
		if len(results) != 100 {
			t.Errorf("expected 100 results, got %d", len(results))
		}
	case <-time.After(5 * time.Second):
		t.Fatal("pool deadlocked with more jobs than buffer space")
	}
}

func TestPool_ParentContextCancels(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(ctx, 1)
	pool.Start()
	cancel()

	if pool.Submit(&providerJob{provider: "openai"}) {
		t.Error("expected Submit to refuse work after parent cancellation")
	}
	pool.Shutdown()
}
