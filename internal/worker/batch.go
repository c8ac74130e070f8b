package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// ErrMalformedPair is returned for a pairs-file line without a TAB separator
var ErrMalformedPair = errors.New("malformed pair line")

// Comparer runs one reference/candidate comparison given two source locations
type Comparer interface {
	CompareSources(ctx context.Context, reference, candidate string) (*model.Report, error)
}

// Pair is one reference/candidate comparison request
type Pair struct {
	Reference string
	Candidate string
	Line      int // Line number in the pairs file, 0 when built in code
}

func (p Pair) String() string {
	return p.Reference + " <> " + p.Candidate
}

// PairJob runs one comparison
type PairJob struct {
	Pair     Pair
	Comparer Comparer
}

// Execute executes the comparison job
func (j *PairJob) Execute(ctx context.Context) Result {
	report, err := j.Comparer.CompareSources(ctx, j.Pair.Reference, j.Pair.Candidate)
	return &PairResult{
		Pair:   j.Pair,
		Report: report,
		Error:  err,
	}
}

// PairResult represents the result of a comparison job
type PairResult struct {
	Pair   Pair
	Report *model.Report
	Error  error
}

// GetError returns the error from the comparison result
func (r *PairResult) GetError() error {
	return r.Error
}

// BatchProcessor processes many comparisons concurrently
type BatchProcessor struct {
	comparer    Comparer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(comparer Comparer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		comparer:    comparer,
		concurrency: concurrency,
	}
}

// ProcessPairs runs every pair and returns results in input order
func (b *BatchProcessor) ProcessPairs(ctx context.Context, pairs []Pair) []*PairResult {
	if len(pairs) == 0 {
		return []*PairResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, pair := range pairs {
		if !pool.Submit(&PairJob{Pair: pair, Comparer: b.comparer}) {
			// ctx is done; stop the workers and keep what already finished
			pool.Shutdown()
			break
		}
	}

	results := pool.Wait()

	pairResults := make([]*PairResult, len(results))
	for i, result := range results {
		pairResults[i] = result.(*PairResult)
	}

	return pairResults
}

// ProcessFile reads pairs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*PairResult, error) {
	pairs, err := ReadPairsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read pairs: %w", err)
	}

	return b.ProcessPairs(ctx, pairs), nil
}

// ReadPairsFromFile reads "reference<TAB>candidate" lines.
// Empty lines and # comments are skipped; duplicate pairs are dropped.
func ReadPairsFromFile(filePath string) ([]Pair, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var pairs []Pair
	seen := make(map[Pair]bool)

	scanner := bufio.NewScanner(file)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		ref, cand, ok := strings.Cut(line, "\t")
		ref = strings.TrimSpace(ref)
		cand = strings.TrimSpace(cand)
		if !ok || ref == "" || cand == "" {
			return nil, fmt.Errorf("%w at line %d: %q", ErrMalformedPair, lineNo, line)
		}

		key := Pair{Reference: ref, Candidate: cand}
		if seen[key] {
			continue
		}
		seen[key] = true

		key.Line = lineNo
		pairs = append(pairs, key)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return pairs, nil
}
