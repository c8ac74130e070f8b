package model

import "time"

// Report is the complete output of one comparison request
type Report struct {
	ID             string    `json:"id"`
	Topic          string    `json:"topic"`
	ReferenceTitle string    `json:"reference_title"`
	CandidateTitle string    `json:"candidate_title"`
	GeneratedAt    time.Time `json:"generated_at"`

	Comparison    ComparisonResult `json:"comparison"`
	Discrepancies []Discrepancy    `json:"discrepancies"`

	LabelCounts map[Label]int `json:"label_counts,omitempty"` // Consensus label tally
	Warnings    []string      `json:"warnings,omitempty"`
}

// CountLabels tallies consensus labels across discrepancies
func CountLabels(discrepancies []Discrepancy) map[Label]int {
	counts := make(map[Label]int)
	for _, d := range discrepancies {
		counts[d.ConsensusLabel]++
	}
	return counts
}
