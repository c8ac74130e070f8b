package embed

import (
	"fmt"
	"math"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// Compatible reports whether two vectors may be compared
func Compatible(a, b model.EmbeddingVector) bool {
	return a.Provider == b.Provider &&
		a.Dimension == b.Dimension &&
		len(a.Values) == a.Dimension &&
		len(b.Values) == b.Dimension
}

// Cosine returns the cosine similarity of a and b in [-1,1].
// A zero-magnitude vector yields 0.
func Cosine(a, b model.EmbeddingVector) (float64, error) {
	if !Compatible(a, b) {
		return 0, fmt.Errorf("%w: %s/%d vs %s/%d", ErrIncompatibleVectors, a.Provider, a.Dimension, b.Provider, b.Dimension)
	}

	var dot, normA, normB float64
	for i := range a.Values {
		x := float64(a.Values[i])
		y := float64(b.Values[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}

	if normA == 0 || normB == 0 {
		return 0, nil
	}

	cos := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	// Guard float drift past the bounds
	return math.Max(-1, math.Min(1, cos)), nil
}

// Normalized maps cosine similarity into [0,1] for threshold comparisons
func Normalized(a, b model.EmbeddingVector) (float64, error) {
	cos, err := Cosine(a, b)
	if err != nil {
		return 0, err
	}
	return clamp01((cos + 1) / 2), nil
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
