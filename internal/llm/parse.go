package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// Verdict is a parsed provider answer
type Verdict struct {
	Label       model.Label
	Explanation string

	// RawLabel is what the provider returned; it differs from Label when an
	// unknown value was replaced by the default label
	RawLabel    string
	Substituted bool
}

type verdictJSON struct {
	Label          string `json:"label"`
	Classification string `json:"classification"`
	Explanation    string `json:"explanation"`
	Reason         string `json:"reason"`
}

// ParseVerdict extracts a verdict from raw model text. It tries the whole
// text as JSON, then a fenced code block, then the first balanced object.
// A label outside the taxonomy becomes model.DefaultLabel with Substituted set.
func ParseVerdict(raw string) (Verdict, error) {
	text := stripThinkBlock(strings.TrimSpace(raw))

	candidates := []string{text}
	if fenced, ok := extractFencedBlock(text); ok {
		candidates = append(candidates, fenced)
	}
	if obj, ok := extractJSONObject(text); ok {
		candidates = append(candidates, obj)
	}

	for _, c := range candidates {
		var v verdictJSON
		if err := json.Unmarshal([]byte(c), &v); err != nil {
			continue
		}
		return toVerdict(v)
	}

	return Verdict{}, fmt.Errorf("%w: no JSON object in %q", ErrMalformedResponse, preview(text, 120))
}

func toVerdict(v verdictJSON) (Verdict, error) {
	rawLabel := v.Label
	if rawLabel == "" {
		rawLabel = v.Classification
	}
	explanation := v.Explanation
	if explanation == "" {
		explanation = v.Reason
	}

	if rawLabel == "" && explanation == "" {
		return Verdict{}, fmt.Errorf("%w: JSON object has neither label nor explanation", ErrMalformedResponse)
	}

	label, ok := model.ParseLabel(rawLabel)
	if !ok {
		return Verdict{
			Label:       model.DefaultLabel,
			Explanation: strings.TrimSpace(explanation),
			RawLabel:    rawLabel,
			Substituted: true,
		}, nil
	}

	return Verdict{
		Label:       label,
		Explanation: strings.TrimSpace(explanation),
		RawLabel:    rawLabel,
	}, nil
}

// extractFencedBlock returns the body of the first ``` block, with or without a language tag
func extractFencedBlock(s string) (string, bool) {
	const fence = "```"
	start := strings.Index(s, fence)
	if start < 0 {
		return "", false
	}
	body := s[start+len(fence):]
	if nl := strings.Index(body, "\n"); nl >= 0 {
		// Drop the language tag line, e.g. "json"
		if tag := strings.TrimSpace(body[:nl]); !strings.HasPrefix(tag, "{") {
			body = body[nl+1:]
		}
	}
	end := strings.Index(body, fence)
	if end < 0 {
		return "", false
	}
	return strings.TrimSpace(body[:end]), true
}

// extractJSONObject returns the first balanced {...} substring, skipping braces inside strings
func extractJSONObject(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1], true
			}
		}
	}
	return "", false
}

// stripThinkBlock removes a leading <think>...</think> reasoning block
func stripThinkBlock(s string) string {
	const open, close = "<think>", "</think>"
	start := strings.Index(s, open)
	if start < 0 {
		return s
	}
	end := strings.Index(s, close)
	if end < 0 {
		return strings.TrimSpace(s[:start])
	}
	return strings.TrimSpace(s[:start] + s[end+len(close):])
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
