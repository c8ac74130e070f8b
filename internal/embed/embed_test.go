package embed

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/sambitsargam/ChainLens-sub000/internal/cache"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

func vec(provider string, values ...float32) model.EmbeddingVector {
	return model.EmbeddingVector{Values: values, Provider: provider, Dimension: len(values)}
}

func TestCosine(t *testing.T) {
	tests := []struct {
		name string
		a, b model.EmbeddingVector
		want float64
	}{
		{"identical", vec("p", 1, 2, 3), vec("p", 1, 2, 3), 1},
		{"orthogonal", vec("p", 1, 0), vec("p", 0, 1), 0},
		{"opposite", vec("p", 1, 0), vec("p", -1, 0), -1},
		{"zero magnitude", vec("p", 0, 0), vec("p", 1, 1), 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Cosine(tt.a, tt.b)
			if err != nil {
				t.Fatalf("Cosine failed: %v", err)
			}
			if math.IsNaN(got) || math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Cosine() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNormalized(t *testing.T) {
	got, err := Normalized(vec("p", 1, 0), vec("p", -1, 0))
	if err != nil {
		t.Fatalf("Normalized failed: %v", err)
	}
	if got != 0 {
		t.Errorf("Expected 0 for opposite vectors, got %v", got)
	}

	got, _ = Normalized(vec("p", 1, 1), vec("p", 1, 1))
	if math.Abs(got-1) > 1e-9 {
		t.Errorf("Expected 1 for identical vectors, got %v", got)
	}

	got, _ = Normalized(vec("p", 1, 0), vec("p", 0, 1))
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("Expected 0.5 for orthogonal vectors, got %v", got)
	}
}

func TestCosine_RejectsMixedVectors(t *testing.T) {
	if _, err := Cosine(vec("openai", 1, 0), vec("gemini", 1, 0)); !errors.Is(err, ErrIncompatibleVectors) {
		t.Errorf("Expected ErrIncompatibleVectors for mixed providers, got %v", err)
	}
	if _, err := Cosine(vec("openai", 1, 0), vec("openai", 1, 0, 0)); !errors.Is(err, ErrIncompatibleVectors) {
		t.Errorf("Expected ErrIncompatibleVectors for mixed dimensions, got %v", err)
	}

	bad := model.EmbeddingVector{Values: []float32{1, 2}, Provider: "openai", Dimension: 3}
	if _, err := Normalized(bad, bad); !errors.Is(err, ErrIncompatibleVectors) {
		t.Errorf("Expected ErrIncompatibleVectors for inconsistent dimension, got %v", err)
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("héllo wörld", 5); got != "héllo" {
		t.Errorf("Truncate() = %q, want %q", got, "héllo")
	}
	if got := Truncate("short", 100); got != "short" {
		t.Errorf("Truncate() should not change short text, got %q", got)
	}
	if got := Truncate("unbounded", 0); got != "unbounded" {
		t.Errorf("Truncate() with 0 should not change text, got %q", got)
	}
}

func TestChain_EmbedWithFallback(t *testing.T) {
	first := &fakeProvider{name: "first", dim: 3, err: errDown}
	second := &fakeProvider{name: "second", dim: 4}
	third := &fakeProvider{name: "third", dim: 5}

	chain := NewChain([]Provider{first, second, third})
	res, err := chain.EmbedWithFallback(context.Background(), "text")
	if err != nil {
		t.Fatalf("EmbedWithFallback failed: %v", err)
	}

	if res.ProviderUsed != "second" {
		t.Errorf("Expected second provider, got %s", res.ProviderUsed)
	}
	if res.Vector.Dimension != 4 {
		t.Errorf("Expected dimension 4, got %d", res.Vector.Dimension)
	}
	if third.callCount() != 0 {
		t.Error("Expected lower priority provider not to be called after success")
	}
}

func TestChain_AllFail(t *testing.T) {
	chain := NewChain([]Provider{
		&fakeProvider{name: "a", dim: 2, err: errDown},
		&fakeProvider{name: "b", dim: 2, err: errDown},
	})

	_, err := chain.EmbedWithFallback(context.Background(), "text")
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Errorf("Expected ErrNoProviderAvailable, got %v", err)
	}
	if !errors.Is(err, errDown) {
		t.Errorf("Expected provider errors to be joined, got %v", err)
	}
}

func TestChain_Empty(t *testing.T) {
	var chain *Chain
	if chain.Len() != 0 {
		t.Error("Expected nil chain to have length 0")
	}

	_, err := NewChain(nil).EmbedWithFallback(context.Background(), "text")
	if !errors.Is(err, ErrNoProviderAvailable) {
		t.Errorf("Expected ErrNoProviderAvailable, got %v", err)
	}
}

func TestChain_EmbedWith(t *testing.T) {
	a := &fakeProvider{name: "a", dim: 2}
	b := &fakeProvider{name: "b", dim: 3}
	chain := NewChain([]Provider{a, b})

	v, err := chain.EmbedWith(context.Background(), "b", "text")
	if err != nil {
		t.Fatalf("EmbedWith failed: %v", err)
	}
	if v.Provider != "b" || a.callCount() != 0 {
		t.Errorf("Expected only provider b to be used, got %s (a calls: %d)", v.Provider, a.callCount())
	}

	if _, err := chain.EmbedWith(context.Background(), "zzz", "text"); !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}
}

func TestChain_TruncatesInput(t *testing.T) {
	p := &fakeProvider{name: "p", dim: 2, maxIn: 4}
	chain := NewChain([]Provider{p})

	if _, err := chain.EmbedWithFallback(context.Background(), "abcdefgh"); err != nil {
		t.Fatalf("EmbedWithFallback failed: %v", err)
	}
	if p.calls[0] != "abcd" {
		t.Errorf("Expected truncated input abcd, got %q", p.calls[0])
	}
}

// mislabelingProvider stamps vectors with a foreign provider name
type mislabelingProvider struct{ fakeProvider }

func (m *mislabelingProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	return vec("someone-else", 1, 0), nil
}

func TestChain_RejectsMislabeledVectors(t *testing.T) {
	chain := NewChain([]Provider{&mislabelingProvider{fakeProvider{name: "honest"}}})

	if _, err := chain.EmbedWith(context.Background(), "honest", "text"); !errors.Is(err, ErrIncompatibleVectors) {
		t.Errorf("Expected ErrIncompatibleVectors, got %v", err)
	}
}

type recordingWaiter struct{ keys []string }

func (w *recordingWaiter) Wait(ctx context.Context, key string) error {
	w.keys = append(w.keys, key)
	return nil
}

func TestChain_Waiter(t *testing.T) {
	w := &recordingWaiter{}
	chain := NewChain([]Provider{&fakeProvider{name: "p", dim: 2}}, WithWaiter(w))

	_, _ = chain.EmbedWithFallback(context.Background(), "text")
	if len(w.keys) != 1 || w.keys[0] != "embed:p" {
		t.Errorf("Expected waiter keyed embed:p, got %v", w.keys)
	}
}

func TestCached_HitSkipsProvider(t *testing.T) {
	p := &fakeProvider{name: "p", dim: 3}
	c := NewCached(p, cache.NewMemoryCache(0, 0), nil)

	first, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	second, err := c.Embed(context.Background(), "text")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}

	if p.callCount() != 1 {
		t.Errorf("Expected 1 provider call, got %d", p.callCount())
	}
	if second.Provider != first.Provider || second.Dimension != first.Dimension {
		t.Errorf("Cached vector differs: %+v vs %+v", first, second)
	}
}

func TestNewRegistry_CapabilityRegistration(t *testing.T) {
	cfg := model.DefaultConfig().Embedding

	chain, err := NewRegistry(context.Background(), cfg, model.Credentials{}, RegistryOptions{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	if chain.Len() != 0 {
		t.Errorf("Expected empty chain without credentials, got %v", chain.Names())
	}

	chain, err = NewRegistry(context.Background(), cfg, model.Credentials{
		OpenAIKey:     "sk-test",
		OllamaBaseURL: "http://localhost:11434",
	}, RegistryOptions{})
	if err != nil {
		t.Fatalf("NewRegistry failed: %v", err)
	}
	names := chain.Names()
	if len(names) != 2 || names[0] != "openai" || names[1] != "ollama" {
		t.Errorf("Expected [openai ollama], got %v", names)
	}
}

func TestNewRegistry_UnknownProvider(t *testing.T) {
	cfg := model.EmbeddingConfig{Providers: []string{"openai", "cohere"}}

	_, err := NewRegistry(context.Background(), cfg, model.Credentials{OpenAIKey: "k"}, RegistryOptions{})
	if !errors.Is(err, ErrUnknownProvider) {
		t.Errorf("Expected ErrUnknownProvider, got %v", err)
	}
}
