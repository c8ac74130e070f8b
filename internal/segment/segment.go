// Package segment splits article text into candidate sentences.
//
// Segmentation is a cheap heuristic: a sentence ends at '.', '!' or '?'
// (optionally followed by closing quotes or brackets) when whitespace follows.
// Fragments below a minimum length are dropped, which suppresses headings,
// captions and list debris. It does not attempt linguistic sentence detection.
package segment

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/sambitsargam/ChainLens-sub000/internal/model"
)

// DefaultMinChars is used when a Segmenter is built with a non-positive minimum
const DefaultMinChars = 20

// Segmenter splits text into sentences
type Segmenter struct {
	minChars int
}

// New creates a segmenter that drops fragments shorter than minChars runes
func New(minChars int) *Segmenter {
	if minChars <= 0 {
		minChars = DefaultMinChars
	}
	return &Segmenter{minChars: minChars}
}

// Segment splits text into sentences in document order
func (s *Segmenter) Segment(text string) []model.Sentence {
	return Split(text, s.minChars)
}

// Split splits text into sentences, keeping those with at least minChars runes
func Split(text string, minChars int) []model.Sentence {
	sentences := make([]model.Sentence, 0)
	if strings.TrimSpace(text) == "" {
		return sentences
	}

	keep := func(fragment string) {
		fragment = collapseSpace(fragment)
		if fragment == "" || utf8.RuneCountInString(fragment) < minChars {
			return
		}
		sentences = append(sentences, model.Sentence{Text: fragment, Index: len(sentences)})
	}

	runes := []rune(text)
	start := 0
	for i := 0; i < len(runes); i++ {
		if !isTerminal(runes[i]) {
			continue
		}

		// Absorb trailing closers: `He left."` or `(see above).)`
		end := i + 1
		for end < len(runes) && isCloser(runes[end]) {
			end++
		}

		if end < len(runes) && !unicode.IsSpace(runes[end]) {
			continue
		}

		keep(string(runes[start:end]))
		start = end
		i = end - 1
	}

	if start < len(runes) {
		keep(string(runes[start:]))
	}

	return sentences
}

func isTerminal(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}

func isCloser(r rune) bool {
	switch r {
	case '"', '\'', ')', ']', '”', '’':
		return true
	}
	return false
}

// collapseSpace trims the fragment and folds internal whitespace runs (including newlines) to one space
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
