package diff

import (
	"strings"
	"unicode"
)

// Lexical returns the Jaccard overlap of the lowercased word-token sets of a and b.
// Identical token sets score 1, disjoint ones 0. It under-estimates paraphrases,
// so it is paired with a stricter threshold than embedding similarity.
func Lexical(a, b string) float64 {
	ta := tokenSet(a)
	tb := tokenSet(b)

	if len(ta) == 0 && len(tb) == 0 {
		return 1
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	intersection := 0
	for tok := range ta {
		if tb[tok] {
			intersection++
		}
	}
	union := len(ta) + len(tb) - intersection

	return float64(intersection) / float64(union)
}

func tokenSet(s string) map[string]bool {
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	set := make(map[string]bool, len(fields))
	for _, f := range fields {
		set[f] = true
	}
	return set
}
