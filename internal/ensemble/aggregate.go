package ensemble

import "github.com/sambitsargam/ChainLens-sub000/internal/model"

// Consensus is the reconciled verdict for one discrepancy
type Consensus struct {
	Label        model.Label
	Disagreement bool    // More than one distinct label among successful votes
	Confidence   float64 // Winning votes / successful votes, 0 when all failed
	Counts       map[model.Label]int
	Failed       []model.ClassificationVote
}

// Aggregate reconciles votes given in provider priority order. The most
// common label wins; ties go to the label of the earliest vote. When every
// vote failed the default label is returned without disagreement.
func Aggregate(votes []model.ClassificationVote) Consensus {
	counts := make(map[model.Label]int)
	firstSeen := make(map[model.Label]int)
	var failed []model.ClassificationVote
	successful := 0

	for i, v := range votes {
		if v.Failed() {
			failed = append(failed, v)
			continue
		}
		successful++
		if _, ok := firstSeen[v.Label]; !ok {
			firstSeen[v.Label] = i
		}
		counts[v.Label]++
	}

	if successful == 0 {
		return Consensus{
			Label:  model.DefaultLabel,
			Counts: counts,
			Failed: failed,
		}
	}

	var winner model.Label
	best := 0
	for label, n := range counts {
		if n > best || (n == best && firstSeen[label] < firstSeen[winner]) {
			winner = label
			best = n
		}
	}

	return Consensus{
		Label:        winner,
		Disagreement: len(counts) > 1,
		Confidence:   float64(best) / float64(successful),
		Counts:       counts,
		Failed:       failed,
	}
}
