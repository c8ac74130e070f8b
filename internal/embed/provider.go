// Package embed obtains vector representations of text from ranked external
// embedding services and compares them.
package embed

import (
	"context"
	"errors"
	"unicode/utf8"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

var (
	// ErrNoProviderAvailable is returned when every provider in a chain failed
	ErrNoProviderAvailable = errors.New("no embedding provider available")

	// ErrIncompatibleVectors is returned when comparing vectors from different
	// providers or of different dimensions
	ErrIncompatibleVectors = errors.New("incompatible embedding vectors")

	// ErrUnknownProvider is returned when a chain is asked for a provider it does not hold
	ErrUnknownProvider = errors.New("unknown embedding provider")

	// ErrEmptyEmbedding is returned when a provider answers without vector data
	ErrEmptyEmbedding = errors.New("empty embedding returned")
)

// Provider produces embedding vectors for text
type Provider interface {
	// Name returns the provider name stamped on every vector it produces
	Name() string

	// Model returns the embedding model in use
	Model() string

	// MaxInputChars is the input cap; longer text is truncated before the call
	MaxInputChars() int

	// Embed returns the embedding of text
	Embed(ctx context.Context, text string) (model.EmbeddingVector, error)
}

// Waiter blocks until an outbound call to the named provider is allowed
type Waiter interface {
	Wait(ctx context.Context, key string) error
}

// Truncate cuts text to at most maxChars runes. maxChars <= 0 disables truncation.
func Truncate(text string, maxChars int) string {
	if maxChars <= 0 || utf8.RuneCountInString(text) <= maxChars {
		return text
	}
	runes := []rune(text)
	return string(runes[:maxChars])
}

// newVector stamps raw values with the producing provider
func newVector(provider string, values []float32) (model.EmbeddingVector, error) {
	if len(values) == 0 {
		return model.EmbeddingVector{}, ErrEmptyEmbedding
	}
	return model.EmbeddingVector{
		Values:    values,
		Provider:  provider,
		Dimension: len(values),
	}, nil
}
