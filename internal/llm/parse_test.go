package llm

import (
	"errors"
	"testing"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantLabel   model.Label
		wantExpl    string
		substituted bool
	}{
		{
			name:      "direct JSON",
			raw:       `{"label": "bias", "explanation": "Loaded wording."}`,
			wantLabel: model.LabelBias,
			wantExpl:  "Loaded wording.",
		},
		{
			name:      "fenced block",
			raw:       "Here is my answer:\n```json\n{\"label\": \"hallucination\", \"explanation\": \"No source.\"}\n```\nThanks.",
			wantLabel: model.LabelHallucination,
			wantExpl:  "No source.",
		},
		{
			name:      "fence without language tag",
			raw:       "```\n{\"label\": \"aligned\", \"explanation\": \"Same.\"}\n```",
			wantLabel: model.LabelAligned,
			wantExpl:  "Same.",
		},
		{
			name:      "embedded object with braces in strings",
			raw:       `The verdict is {"label": "missing_context", "explanation": "Drops the {date} detail."} as shown.`,
			wantLabel: model.LabelMissingContext,
			wantExpl:  "Drops the {date} detail.",
		},
		{
			name:      "normalized label",
			raw:       `{"label": "Factual Inconsistency", "explanation": "Wrong year."}`,
			wantLabel: model.LabelFactualInconsistency,
			wantExpl:  "Wrong year.",
		},
		{
			name:      "alternate field names",
			raw:       `{"classification": "missing-context", "reason": "Omits scope."}`,
			wantLabel: model.LabelMissingContext,
			wantExpl:  "Omits scope.",
		},
		{
			name:        "unknown label",
			raw:         `{"label": "contradiction", "explanation": "Disagrees."}`,
			wantLabel:   model.DefaultLabel,
			wantExpl:    "Disagrees.",
			substituted: true,
		},
		{
			name:      "think block",
			raw:       "<think>the user wants JSON</think>\n{\"label\": \"aligned\", \"explanation\": \"Fine.\"}",
			wantLabel: model.LabelAligned,
			wantExpl:  "Fine.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.raw)
			if err != nil {
				t.Fatalf("ParseVerdict failed: %v", err)
			}
			if v.Label != tt.wantLabel {
				t.Errorf("Label = %s, want %s", v.Label, tt.wantLabel)
			}
			if v.Explanation != tt.wantExpl {
				t.Errorf("Explanation = %q, want %q", v.Explanation, tt.wantExpl)
			}
			if v.Substituted != tt.substituted {
				t.Errorf("Substituted = %v, want %v", v.Substituted, tt.substituted)
			}
		})
	}
}

func TestParseVerdict_Malformed(t *testing.T) {
	inputs := []string{
		"",
		"I think this is biased.",
		"```json\n{broken\n```",
		`{"label": "bias"`,
		`{}`,
	}

	for _, raw := range inputs {
		if _, err := ParseVerdict(raw); !errors.Is(err, ErrMalformedResponse) {
			t.Errorf("ParseVerdict(%q) error = %v, want ErrMalformedResponse", raw, err)
		}
	}
}
