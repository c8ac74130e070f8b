package diff

import (
	"context"
	"errors"
	"sync"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

var errDown = errors.New("provider down")

// oneHotProvider gives every distinct text its own orthogonal unit vector,
// so identical texts score 1 and different texts score 0.5 normalized
type oneHotProvider struct {
	name   string
	dim    int
	fixed  map[string][]float32
	failOn map[string]bool
	down   bool

	mu    sync.Mutex
	slots map[string]int
	calls []string
}

func newOneHot(name string) *oneHotProvider {
	return &oneHotProvider{
		name:   name,
		dim:    256,
		fixed:  make(map[string][]float32),
		failOn: make(map[string]bool),
		slots:  make(map[string]int),
	}
}

func (f *oneHotProvider) Name() string       { return f.name }
func (f *oneHotProvider) Model() string      { return f.name + "-model" }
func (f *oneHotProvider) MaxInputChars() int { return 0 }

func (f *oneHotProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, text)

	if f.down || f.failOn[text] {
		return model.EmbeddingVector{}, errDown
	}

	if v, ok := f.fixed[text]; ok {
		return model.EmbeddingVector{Values: v, Provider: f.name, Dimension: len(v)}, nil
	}

	slot, ok := f.slots[text]
	if !ok {
		slot = len(f.slots) % f.dim
		f.slots[text] = slot
	}
	values := make([]float32, f.dim)
	values[slot] = 1
	return model.EmbeddingVector{Values: values, Provider: f.name, Dimension: f.dim}, nil
}

func (f *oneHotProvider) callsFor(texts []string) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	want := make(map[string]bool, len(texts))
	for _, t := range texts {
		want[t] = true
	}
	n := 0
	for _, c := range f.calls {
		if want[c] {
			n++
		}
	}
	return n
}

func (f *oneHotProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func sentences(texts ...string) []model.Sentence {
	out := make([]model.Sentence, len(texts))
	for i, t := range texts {
		out[i] = model.Sentence{Text: t, Index: i}
	}
	return out
}
