package diff

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/embed"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/segment"
)

// Comparer produces a semantic diff of two articles
type Comparer struct {
	segmenter *segment.Segmenter
	matcher   *Matcher
	chain     *embed.Chain
	opts      Options
	logger    *slog.Logger
}

// NewComparer creates a comparer over the given embedding chain
func NewComparer(chain *embed.Chain, seg *segment.Segmenter, opts Options, logger *slog.Logger) *Comparer {
	if logger == nil {
		logger = slog.Default()
	}
	if seg == nil {
		seg = segment.New(segment.DefaultMinChars)
	}
	return &Comparer{
		segmenter: seg,
		matcher:   NewMatcher(chain, opts, logger),
		chain:     chain,
		opts:      opts,
		logger:    logger,
	}
}

// CompareArticles diffs candidate against reference in both directions.
// The method is "embedding" only when every stage used embeddings.
func (c *Comparer) CompareArticles(ctx context.Context, reference, candidate model.Article) (*model.ComparisonResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refSentences := c.segmenter.Segment(reference.Text)
	candSentences := c.segmenter.Segment(candidate.Text)

	result := &model.ComparisonResult{
		AddedInCandidate:    make([]model.Sentence, 0),
		MissingInCandidate:  make([]model.Sentence, 0),
		AddedCounterparts:   make(map[int]model.Counterpart),
		MissingCounterparts: make(map[int]model.Counterpart),
		Stats: model.ComparisonStats{
			SourceCount: len(refSentences),
			TargetCount: len(candSentences),
		},
	}

	// Identical texts are fully similar by definition, no provider calls needed
	if strings.TrimSpace(reference.Text) == strings.TrimSpace(candidate.Text) {
		result.GlobalSimilarity = 1
		result.Method = model.MethodEmbedding
		if c.chain.Len() == 0 {
			result.Method = model.MethodLexicalFallback
		}
		return result, nil
	}

	global, globalMethod, globalProvider, err := c.globalSimilarity(ctx, reference.Text, candidate.Text)
	if err != nil {
		return nil, err
	}
	result.GlobalSimilarity = round2(global)

	threshold := c.opts.EmbeddingThreshold

	added, err := c.matcher.FindUnmatched(ctx, candSentences, refSentences, threshold)
	if err != nil {
		return nil, fmt.Errorf("find added sentences: %w", err)
	}
	missing, err := c.matcher.FindUnmatched(ctx, refSentences, candSentences, threshold)
	if err != nil {
		return nil, fmt.Errorf("find missing sentences: %w", err)
	}

	for _, u := range added.Unmatched {
		result.AddedInCandidate = append(result.AddedInCandidate, u.Sentence)
		if u.Best != nil {
			result.AddedCounterparts[u.Sentence.Index] = model.Counterpart{Sentence: *u.Best, Score: u.BestScore}
		}
	}
	for _, u := range missing.Unmatched {
		result.MissingInCandidate = append(result.MissingInCandidate, u.Sentence)
		if u.Best != nil {
			result.MissingCounterparts[u.Sentence.Index] = model.Counterpart{Sentence: *u.Best, Score: u.BestScore}
		}
	}

	result.Method = model.MethodEmbedding
	if globalMethod != model.MethodEmbedding || added.Method != model.MethodEmbedding || missing.Method != model.MethodEmbedding {
		result.Method = model.MethodLexicalFallback
	}

	result.Stats.AddedCount = len(result.AddedInCandidate)
	result.Stats.MissingCount = len(result.MissingInCandidate)
	result.Stats.Truncated = added.Truncated || missing.Truncated
	result.Stats.EmbeddingProvider = joinProviders(globalProvider, added.Providers, missing.Providers)

	c.logger.Debug("comparison complete",
		"similarity", result.GlobalSimilarity,
		"method", result.Method,
		"added", result.Stats.AddedCount,
		"missing", result.Stats.MissingCount,
		"truncated", result.Stats.Truncated)

	return result, nil
}

// globalSimilarity scores the whole texts with a single provider for both sides,
// falling back to lexical overlap when no provider can embed both
func (c *Comparer) globalSimilarity(ctx context.Context, a, b string) (float64, model.Method, string, error) {
	start := 0
	for start < c.chain.Len() {
		res, err := c.chain.EmbedFrom(ctx, start, a)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, "", "", ctxErr
			}
			c.logger.Warn("global embedding failed, falling back to lexical similarity", "err", err)
			break
		}

		other, err := c.chain.EmbedWith(ctx, res.ProviderUsed, b)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return 0, "", "", ctxErr
			}
			if errors.Is(err, embed.ErrIncompatibleVectors) {
				return 0, "", "", err
			}
			c.logger.Warn("embedding candidate text failed, trying next provider", "provider", res.ProviderUsed, "err", err)
			start = c.chain.IndexOf(res.ProviderUsed) + 1
			continue
		}

		score, err := embed.Normalized(res.Vector, other)
		if err != nil {
			return 0, "", "", err
		}
		return score, model.MethodEmbedding, res.ProviderUsed, nil
	}

	return Lexical(a, b), model.MethodLexicalFallback, "", nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func joinProviders(global string, groups ...[]string) string {
	var names []string
	if global != "" {
		names = append(names, global)
	}
	for _, g := range groups {
		for _, n := range g {
			if !containsString(names, n) {
				names = append(names, n)
			}
		}
	}
	return strings.Join(names, ",")
}
