package model

import "strings"

// Label is a member of the closed discrepancy taxonomy
type Label string

const (
	LabelFactualInconsistency Label = "factual_inconsistency"
	LabelMissingContext       Label = "missing_context"
	LabelHallucination        Label = "hallucination"
	LabelBias                 Label = "bias"
	LabelAligned              Label = "aligned"
)

// DefaultLabel is substituted for unknown labels and used when every provider fails
const DefaultLabel = LabelFactualInconsistency

// Labels returns the taxonomy in its canonical order
func Labels() []Label {
	return []Label{
		LabelFactualInconsistency,
		LabelMissingContext,
		LabelHallucination,
		LabelBias,
		LabelAligned,
	}
}

// Valid reports whether l belongs to the taxonomy
func (l Label) Valid() bool {
	for _, known := range Labels() {
		if l == known {
			return true
		}
	}
	return false
}

// ParseLabel normalizes free-form provider output into a label.
// ok is false when the value is not part of the taxonomy.
func ParseLabel(s string) (Label, bool) {
	normalized := strings.ToLower(strings.TrimSpace(s))
	normalized = strings.NewReplacer(" ", "_", "-", "_").Replace(normalized)
	l := Label(normalized)
	if !l.Valid() {
		return "", false
	}
	return l, true
}

// Side tells which article a discrepant sentence came from
type Side string

const (
	SideAdded   Side = "added"   // Present in the candidate only
	SideMissing Side = "missing" // Present in the reference only
)

// ClassificationVote is one provider's verdict on one discrepancy
type ClassificationVote struct {
	Provider    string `json:"provider"`
	Label       Label  `json:"label"`
	Explanation string `json:"explanation"`
	Error       string `json:"error,omitempty"`
	ErrorKind   string `json:"error_kind,omitempty"` // rate_limited, malformed_response, timeout, auth, upstream
}

// Failed reports whether the vote carries an error instead of a label
func (v ClassificationVote) Failed() bool {
	return v.Error != ""
}

// Discrepancy is a classified sentence that has no counterpart in the other article
type Discrepancy struct {
	Claim              string               `json:"claim"`
	CounterpartContext *string              `json:"counterpartContext"`
	Votes              []ClassificationVote `json:"votes"`
	ConsensusLabel     Label                `json:"consensusLabel"`
	Disagreement       bool                 `json:"disagreement"`

	Side            Side     `json:"side"`
	Confidence      float64  `json:"confidence"`
	FailedProviders []string `json:"failedProviders,omitempty"`
}
