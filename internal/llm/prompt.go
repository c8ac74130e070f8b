package llm

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// ErrEmptyInput means neither side of the discrepancy carries a claim
var ErrEmptyInput = errors.New("classification input has no claim")

// Input describes one discrepant sentence to classify.
// Claim is the sentence found only in the candidate; CounterpartClaim is the
// sentence found only in the reference. At most one of them is empty.
type Input struct {
	Topic              string
	Claim              string
	CounterpartClaim   string
	CounterpartContext string
}

// Validate checks that at least one side carries a claim
func (in Input) Validate() error {
	if strings.TrimSpace(in.Claim) == "" && strings.TrimSpace(in.CounterpartClaim) == "" {
		return ErrEmptyInput
	}
	return nil
}

// SystemPrompt is sent to every provider as the system instruction
const SystemPrompt = "You are a careful fact-checking analyst comparing two versions of an encyclopedia article. " +
	"You answer only with a single JSON object."

var labelDescriptions = map[model.Label]string{
	model.LabelFactualInconsistency: "the statement contradicts facts stated in the other article",
	model.LabelMissingContext:       "the statement omits or adds context that changes how the facts read",
	model.LabelHallucination:        "the statement asserts something with no support in the other article",
	model.LabelBias:                 "the statement frames the topic with loaded or one-sided language",
	model.LabelAligned:              "the statement is consistent with the other article despite different wording",
}

// BuildClassificationPrompt constructs the classification prompt.
// The output depends only on in, so identical inputs produce identical prompts.
func BuildClassificationPrompt(in Input) string {
	var sb strings.Builder

	sb.WriteString("Classify the discrepancy between a reference article and a candidate article")
	if in.Topic != "" {
		fmt.Fprintf(&sb, " about %q", in.Topic)
	}
	sb.WriteString(".\n\n")

	sb.WriteString("Labels:\n")
	for _, label := range model.Labels() {
		fmt.Fprintf(&sb, "- %s: %s\n", label, labelDescriptions[label])
	}
	sb.WriteString("\n")

	switch {
	case in.Claim != "":
		sb.WriteString("The candidate article contains this statement, which has no close match in the reference:\n")
		fmt.Fprintf(&sb, "CLAIM: %s\n", in.Claim)
		if in.CounterpartClaim != "" {
			fmt.Fprintf(&sb, "CLOSEST REFERENCE STATEMENT: %s\n", in.CounterpartClaim)
		}
	default:
		sb.WriteString("The reference article contains this statement, which the candidate article does not cover:\n")
		fmt.Fprintf(&sb, "CLAIM: %s\n", in.CounterpartClaim)
	}

	if in.CounterpartContext != "" {
		fmt.Fprintf(&sb, "\nCONTEXT FROM THE OTHER ARTICLE:\n%s\n", in.CounterpartContext)
	} else {
		sb.WriteString("\nCONTEXT FROM THE OTHER ARTICLE: (none)\n")
	}

	sb.WriteString("\nRespond with JSON only, in exactly this form:\n")
	sb.WriteString(`{"label": "<one of the labels above>", "explanation": "<one or two sentences>"}`)
	sb.WriteString("\n")

	return sb.String()
}
