// Package diff finds sentences in one article that have no sufficiently
// similar counterpart in another.
package diff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sambitsargam/ChainLens-sub000/internal/embed"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// errEmbeddingUnavailable switches a pass to lexical similarity
var errEmbeddingUnavailable = errors.New("embedding unavailable for matching pass")

// Options bound and tune a matching pass
type Options struct {
	// EmbeddingThreshold is the default threshold on normalized cosine similarity
	EmbeddingThreshold float64

	// LexicalThreshold replaces the threshold when a pass falls back to lexical similarity
	LexicalThreshold float64

	// MaxSentences caps how many source sentences are scanned (0 = all)
	MaxSentences int

	// MaxUnmatched stops the scan once this many unmatched sentences are found (0 = no cap)
	MaxUnmatched int
}

// OptionsFromConfig converts the compare config section
func OptionsFromConfig(cfg model.CompareConfig) Options {
	return Options{
		EmbeddingThreshold: cfg.EmbeddingThreshold,
		LexicalThreshold:   cfg.LexicalThreshold,
		MaxSentences:       cfg.MaxSentences,
		MaxUnmatched:       cfg.MaxUnmatched,
	}
}

// Unmatched is a source sentence whose best counterpart scored below the threshold
type Unmatched struct {
	Sentence  model.Sentence
	Best      *model.Sentence // Closest target sentence, nil when the target is empty
	BestScore float64
}

// Match is the outcome of one matching pass
type Match struct {
	Unmatched []Unmatched
	Method    model.Method
	Providers []string // Embedding providers used, in first-use order
	Scanned   int      // Source sentences examined
	Truncated bool     // Scan stopped at MaxSentences or MaxUnmatched
}

// Sentences returns the unmatched sentences in document order
func (m *Match) Sentences() []model.Sentence {
	out := make([]model.Sentence, len(m.Unmatched))
	for i, u := range m.Unmatched {
		out[i] = u.Sentence
	}
	return out
}

// Matcher runs matching passes over an embedding chain
type Matcher struct {
	chain  *embed.Chain
	opts   Options
	logger *slog.Logger
}

// NewMatcher creates a matcher. A nil or empty chain always uses lexical similarity.
func NewMatcher(chain *embed.Chain, opts Options, logger *slog.Logger) *Matcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Matcher{chain: chain, opts: opts, logger: logger}
}

// FindUnmatched returns the source sentences with no target sentence scoring
// at least threshold. A score equal to the threshold is a match.
//
// Every comparison inside one source sentence uses vectors from a single
// provider. If embeddings cannot be obtained for a sentence from any provider,
// the whole pass is redone lexically with the lexical threshold.
func (m *Matcher) FindUnmatched(ctx context.Context, source, target []model.Sentence, threshold float64) (*Match, error) {
	if m.chain.Len() > 0 {
		match, err := m.embeddingPass(ctx, source, target, threshold)
		if err == nil {
			return match, nil
		}
		if !errors.Is(err, errEmbeddingUnavailable) {
			return nil, err
		}
		m.logger.Warn("embedding pass failed, falling back to lexical similarity", "err", err)
	}

	return m.lexicalPass(ctx, source, target)
}

// scan walks the bounded source prefix, asking best for each sentence's closest target
func (m *Matcher) scan(source []model.Sentence, threshold float64, best func(model.Sentence) (*model.Sentence, float64, error)) (*Match, error) {
	match := &Match{Unmatched: make([]Unmatched, 0)}

	limit := len(source)
	if m.opts.MaxSentences > 0 && m.opts.MaxSentences < limit {
		limit = m.opts.MaxSentences
		match.Truncated = true
	}

	for _, s := range source[:limit] {
		if m.opts.MaxUnmatched > 0 && len(match.Unmatched) >= m.opts.MaxUnmatched {
			match.Truncated = true
			break
		}

		counterpart, score, err := best(s)
		if err != nil {
			return nil, err
		}
		match.Scanned++

		if counterpart != nil && score >= threshold {
			continue
		}

		match.Unmatched = append(match.Unmatched, Unmatched{
			Sentence:  s,
			Best:      counterpart,
			BestScore: score,
		})
	}

	return match, nil
}

func (m *Matcher) lexicalPass(ctx context.Context, source, target []model.Sentence) (*Match, error) {
	match, err := m.scan(source, m.opts.LexicalThreshold, func(s model.Sentence) (*model.Sentence, float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		var best *model.Sentence
		bestScore := 0.0
		for i := range target {
			score := Lexical(s.Text, target[i].Text)
			if best == nil || score > bestScore {
				best = &target[i]
				bestScore = score
			}
		}
		return best, bestScore, nil
	})
	if err != nil {
		return nil, err
	}

	match.Method = model.MethodLexicalFallback
	return match, nil
}

func (m *Matcher) embeddingPass(ctx context.Context, source, target []model.Sentence, threshold float64) (*Match, error) {
	targets := newTargetVectors(m.chain, target)
	var used []string

	match, err := m.scan(source, threshold, func(s model.Sentence) (*model.Sentence, float64, error) {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		if len(target) == 0 {
			return nil, 0, nil
		}

		best, score, provider, err := m.bestEmbeddingMatch(ctx, s, target, targets)
		if err != nil {
			return nil, 0, err
		}
		if !containsString(used, provider) {
			used = append(used, provider)
		}
		return best, score, nil
	})
	if err != nil {
		return nil, err
	}

	match.Method = model.MethodEmbedding
	match.Providers = used
	return match, nil
}

// bestEmbeddingMatch embeds s, then compares it only against target vectors
// from the same provider. If that provider cannot embed the target set, the
// next provider in priority order is tried for both sides.
func (m *Matcher) bestEmbeddingMatch(ctx context.Context, s model.Sentence, target []model.Sentence, targets *targetVectors) (*model.Sentence, float64, string, error) {
	start := 0
	for start < m.chain.Len() {
		res, err := m.chain.EmbedFrom(ctx, start, s.Text)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, "", ctxErr
			}
			return nil, 0, "", fmt.Errorf("%w: %w", errEmbeddingUnavailable, err)
		}

		provider := res.ProviderUsed
		vectors, err := targets.get(ctx, provider)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, 0, "", ctxErr
			}
			m.logger.Warn("embedding target sentences failed, trying next provider", "provider", provider, "err", err)
			start = m.chain.IndexOf(provider) + 1
			continue
		}

		var best *model.Sentence
		bestScore := 0.0
		for i, tv := range vectors {
			score, err := embed.Normalized(res.Vector, tv)
			if err != nil {
				// Mixed providers or dimensions: a programming error, never a fallback
				return nil, 0, "", err
			}
			if best == nil || score > bestScore {
				best = &target[i]
				bestScore = score
			}
		}
		return best, bestScore, provider, nil
	}

	return nil, 0, "", fmt.Errorf("%w: no provider could embed both sides", errEmbeddingUnavailable)
}

// targetVectors memoizes the target set's embeddings per provider within one pass
type targetVectors struct {
	chain   *embed.Chain
	target  []model.Sentence
	vectors map[string][]model.EmbeddingVector
	failed  map[string]error
}

func newTargetVectors(chain *embed.Chain, target []model.Sentence) *targetVectors {
	return &targetVectors{
		chain:   chain,
		target:  target,
		vectors: make(map[string][]model.EmbeddingVector),
		failed:  make(map[string]error),
	}
}

func (t *targetVectors) get(ctx context.Context, provider string) ([]model.EmbeddingVector, error) {
	if vecs, ok := t.vectors[provider]; ok {
		return vecs, nil
	}
	if err, ok := t.failed[provider]; ok {
		return nil, err
	}

	vecs := make([]model.EmbeddingVector, len(t.target))
	for i, s := range t.target {
		v, err := t.chain.EmbedWith(ctx, provider, s.Text)
		if err != nil {
			err = fmt.Errorf("embed target sentence %d with %s: %w", s.Index, provider, err)
			t.failed[provider] = err
			return nil, err
		}
		vecs[i] = v
	}

	t.vectors[provider] = vecs
	return vecs, nil
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
