package model

// Method records which similarity measure produced a comparison
type Method string

const (
	MethodEmbedding       Method = "embedding"
	MethodLexicalFallback Method = "lexical-fallback"
)

// EmbeddingVector is a provider-specific vector representation of a text.
// Two vectors are only comparable when Provider and Dimension match.
type EmbeddingVector struct {
	Values    []float32 `json:"values"`
	Provider  string    `json:"provider"`
	Dimension int       `json:"dimension"`
}

// ComparisonResult is the outcome of comparing a reference article with a candidate
type ComparisonResult struct {
	// GlobalSimilarity is in [0,1], rounded to 2 decimals
	GlobalSimilarity float64 `json:"globalSimilarity"`
	Method           Method  `json:"method"`

	// Candidate sentences with no reference counterpart, and the reverse
	AddedInCandidate   []Sentence      `json:"addedInCandidate"`
	MissingInCandidate []Sentence      `json:"missingInCandidate"`
	Stats              ComparisonStats `json:"stats"`

	// Best-scoring counterpart for each unmatched sentence, keyed by the unmatched sentence index.
	// Not serialized; used to build classification context.
	AddedCounterparts   map[int]Counterpart `json:"-"`
	MissingCounterparts map[int]Counterpart `json:"-"`
}

// ComparisonStats summarizes sentence counts for a comparison
type ComparisonStats struct {
	SourceCount  int `json:"sourceCount"` // Sentences segmented from the reference
	TargetCount  int `json:"targetCount"` // Sentences segmented from the candidate
	AddedCount   int `json:"addedCount"`
	MissingCount int `json:"missingCount"`

	EmbeddingProvider string `json:"embeddingProvider,omitempty"`
	Truncated         bool   `json:"truncated,omitempty"` // A scan stopped at the sentence or unmatched cap
}

// Counterpart is the closest sentence in the other article for an unmatched sentence
type Counterpart struct {
	Sentence Sentence
	Score    float64
}
