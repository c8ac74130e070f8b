package embed

import (
	"context"
	"errors"
	"sync"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// fakeProvider returns fixed vectors per text and records every call
type fakeProvider struct {
	name    string
	dim     int
	maxIn   int
	vectors map[string][]float32
	err     error

	mu    sync.Mutex
	calls []string
}

func (f *fakeProvider) Name() string       { return f.name }
func (f *fakeProvider) Model() string      { return f.name + "-model" }
func (f *fakeProvider) MaxInputChars() int { return f.maxIn }

func (f *fakeProvider) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	f.mu.Lock()
	f.calls = append(f.calls, text)
	f.mu.Unlock()

	if f.err != nil {
		return model.EmbeddingVector{}, f.err
	}
	values, ok := f.vectors[text]
	if !ok {
		values = make([]float32, f.dim)
		if f.dim > 0 {
			values[0] = 1
		}
	}
	return model.EmbeddingVector{Values: values, Provider: f.name, Dimension: len(values)}, nil
}

func (f *fakeProvider) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

var errDown = errors.New("provider down")
