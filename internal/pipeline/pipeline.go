// Package pipeline runs one comparison request end to end: load both
// articles, diff them, classify each discrepancy with the provider ensemble
// and assemble the report.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/sambitsargam/ChainLens-sub000/internal/diff"
	"github.com/sambitsargam/ChainLens-sub000/internal/embed"
	"github.com/sambitsargam/ChainLens-sub000/internal/ensemble"
	"github.com/sambitsargam/ChainLens-sub000/internal/llm"
	"github.com/sambitsargam/ChainLens-sub000/internal/model"
	"github.com/sambitsargam/ChainLens-sub000/internal/segment"
)

// contextRadius is how many neighbours on each side of the best counterpart
// are included in the classification context
const contextRadius = 1

// Config holds the per-request settings of a pipeline
type Config struct {
	Compare            model.CompareConfig
	MinChars           int
	MaxDiscrepancies   int
	Topic              string // Defaults to the reference title
	SkipClassification bool
}

// ConfigFromModel extracts pipeline settings from the application config
func ConfigFromModel(cfg *model.Config) Config {
	return Config{
		Compare:          cfg.Compare,
		MinChars:         cfg.Segment.MinChars,
		MaxDiscrepancies: cfg.Classify.MaxDiscrepancies,
	}
}

// Deps are the pipeline's collaborators. Chain and Classifier may be empty;
// Loader is only needed for CompareSources.
type Deps struct {
	Chain      *embed.Chain
	Classifier *ensemble.Classifier
	Loader     *Loader
	Logger     *slog.Logger
}

// Pipeline orchestrates a comparison request
type Pipeline struct {
	cfg        Config
	segmenter  *segment.Segmenter
	comparer   *diff.Comparer
	classifier *ensemble.Classifier
	loader     *Loader
	logger     *slog.Logger
}

// New creates a pipeline
func New(cfg Config, deps Deps) *Pipeline {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	seg := segment.New(cfg.MinChars)
	return &Pipeline{
		cfg:        cfg,
		segmenter:  seg,
		comparer:   diff.NewComparer(deps.Chain, seg, diff.OptionsFromConfig(cfg.Compare), logger),
		classifier: deps.Classifier,
		loader:     deps.Loader,
		logger:     logger,
	}
}

// CompareSources loads both articles and compares them
func (p *Pipeline) CompareSources(ctx context.Context, reference, candidate string) (*model.Report, error) {
	if p.loader == nil {
		return nil, errors.New("pipeline has no article loader")
	}

	ref, err := p.loader.Load(ctx, reference)
	if err != nil {
		return nil, fmt.Errorf("load reference: %w", err)
	}
	cand, err := p.loader.Load(ctx, candidate)
	if err != nil {
		return nil, fmt.Errorf("load candidate: %w", err)
	}

	return p.Compare(ctx, ref, cand)
}

// Compare diffs the articles and classifies the discrepancies: sentences
// added in the candidate first, then sentences missing from it, each in
// document order, up to the discrepancy cap.
func (p *Pipeline) Compare(ctx context.Context, reference, candidate model.Article) (*model.Report, error) {
	comparison, err := p.comparer.CompareArticles(ctx, reference, candidate)
	if err != nil {
		return nil, fmt.Errorf("compare articles: %w", err)
	}

	report := &model.Report{
		ID:             uuid.NewString(),
		Topic:          p.topic(reference, candidate),
		ReferenceTitle: reference.Title,
		CandidateTitle: candidate.Title,
		GeneratedAt:    time.Now().UTC(),
		Comparison:     *comparison,
		Discrepancies:  make([]model.Discrepancy, 0),
	}

	if comparison.Method == model.MethodLexicalFallback {
		report.Warnings = append(report.Warnings, "embeddings unavailable for part of the comparison, lexical similarity used")
	}
	if comparison.Stats.Truncated {
		report.Warnings = append(report.Warnings, "sentence scan stopped at the configured cap, later discrepancies are not listed")
	}

	if p.cfg.SkipClassification {
		return report, nil
	}
	if p.classifier == nil || len(p.classifier.Providers()) == 0 {
		p.logger.Warn("discrepancies not classified", "err", llm.ErrNoProvidersConfigured)
		report.Warnings = append(report.Warnings, llm.ErrNoProvidersConfigured.Error()+", discrepancies not classified")
		return report, nil
	}

	if err := p.classify(ctx, report, reference, candidate); err != nil {
		return nil, err
	}

	report.LabelCounts = model.CountLabels(report.Discrepancies)
	return report, nil
}

// classify runs the ensemble one discrepancy at a time
func (p *Pipeline) classify(ctx context.Context, report *model.Report, reference, candidate model.Article) error {
	refSentences := p.segmenter.Segment(reference.Text)
	candSentences := p.segmenter.Segment(candidate.Text)
	comparison := report.Comparison

	inputs := make([]pendingDiscrepancy, 0, len(comparison.AddedInCandidate)+len(comparison.MissingInCandidate))
	for _, s := range comparison.AddedInCandidate {
		in := ensemble.Input{Topic: report.Topic, Claim: s.Text}
		if cp, ok := comparison.AddedCounterparts[s.Index]; ok {
			in.CounterpartClaim = cp.Sentence.Text
			in.CounterpartContext = neighbourhood(refSentences, cp.Sentence.Index)
		}
		inputs = append(inputs, pendingDiscrepancy{input: in, side: model.SideAdded})
	}
	for _, s := range comparison.MissingInCandidate {
		in := ensemble.Input{Topic: report.Topic, CounterpartClaim: s.Text}
		if cp, ok := comparison.MissingCounterparts[s.Index]; ok {
			in.CounterpartContext = neighbourhood(candSentences, cp.Sentence.Index)
		}
		inputs = append(inputs, pendingDiscrepancy{input: in, side: model.SideMissing})
	}

	limit := len(inputs)
	if p.cfg.MaxDiscrepancies > 0 && limit > p.cfg.MaxDiscrepancies {
		limit = p.cfg.MaxDiscrepancies
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("classified %d of %d discrepancies (max_discrepancies)", limit, len(inputs)))
	}

	for i, pending := range inputs[:limit] {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("classify discrepancy %d: %w", i+1, err)
		}

		d, err := p.classifier.Discrepancy(ctx, pending.input, pending.side)
		if err != nil {
			return fmt.Errorf("classify discrepancy %d: %w", i+1, err)
		}
		report.Discrepancies = append(report.Discrepancies, *d)

		p.logger.Debug("discrepancy classified",
			"index", i+1,
			"side", pending.side,
			"label", d.ConsensusLabel,
			"disagreement", d.Disagreement,
			"failed", len(d.FailedProviders))
	}

	return nil
}

type pendingDiscrepancy struct {
	input ensemble.Input
	side  model.Side
}

func (p *Pipeline) topic(reference, candidate model.Article) string {
	switch {
	case p.cfg.Topic != "":
		return p.cfg.Topic
	case reference.Title != "":
		return reference.Title
	default:
		return candidate.Title
	}
}

// neighbourhood joins the sentence at center with up to contextRadius
// sentences on each side
func neighbourhood(sentences []model.Sentence, center int) string {
	if center < 0 || center >= len(sentences) {
		return ""
	}

	from := max(center-contextRadius, 0)
	to := min(center+contextRadius+1, len(sentences))
	return strings.Join(model.Texts(sentences[from:to]), " ")
}
