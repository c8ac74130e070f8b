package pipeline

import (
	"context"
	"sync"

	"github.com/sambitsargam/ChainLens-sub000/internal/ensemble"
	"github.com/sambitsargam/ChainLens-sub000/internal/llm"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// oneHotEmbedder gives each distinct text its own unit vector
type oneHotEmbedder struct {
	mu    sync.Mutex
	slots map[string]int
}

func newOneHotEmbedder() *oneHotEmbedder {
	return &oneHotEmbedder{slots: make(map[string]int)}
}

func (e *oneHotEmbedder) Name() string       { return "onehot" }
func (e *oneHotEmbedder) Model() string      { return "onehot-1" }
func (e *oneHotEmbedder) MaxInputChars() int { return 0 }

func (e *oneHotEmbedder) Embed(ctx context.Context, text string) (model.EmbeddingVector, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	const dim = 128
	slot, ok := e.slots[text]
	if !ok {
		slot = len(e.slots) % dim
		e.slots[text] = slot
	}
	values := make([]float32, dim)
	values[slot] = 1
	return model.EmbeddingVector{Values: values, Provider: e.Name(), Dimension: dim}, nil
}

// fixedClassifier answers every prompt with the same label
type fixedClassifier struct {
	name  string
	label string

	mu      sync.Mutex
	prompts []string
}

func (f *fixedClassifier) Name() string { return f.name }

func (f *fixedClassifier) Complete(ctx context.Context, req llm.Request) (string, error) {
	f.mu.Lock()
	f.prompts = append(f.prompts, req.Prompt)
	f.mu.Unlock()
	return `{"label": "` + f.label + `", "explanation": "fixed answer"}`, nil
}

func (f *fixedClassifier) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.prompts)
}

func newEnsemble(providers ...llm.Provider) *ensemble.Classifier {
	return ensemble.New(providers, ensemble.Options{MaxAttempts: 1})
}
