package caption

import (
	"strings"
	"unicode"
)

// DefaultSimilarityThreshold is the Jaccard score at or above which two
// cue texts count as near-duplicates.
const DefaultSimilarityThreshold = 0.92

// Jaccard returns the token-set similarity of a and b in [0, 1]. Both
// inputs are normalized first. Two empty texts are identical (1.0); one
// empty text against a non-empty one scores 0.
func Jaccard(a, b string) float64 {
	ta := tokenSet(Normalize(a))
	tb := tokenSet(Normalize(b))

	if len(ta) == 0 && len(tb) == 0 {
		return 1.0
	}
	if len(ta) == 0 || len(tb) == 0 {
		return 0.0
	}

	small, large := ta, tb
	if len(small) > len(large) {
		small, large = large, small
	}
	inter := 0
	for tok := range small {
		if _, ok := large[tok]; ok {
			inter++
		}
	}
	union := len(ta) + len(tb) - inter
	return float64(inter) / float64(union)
}

// IsNearDuplicate reports whether Jaccard(a, b) >= threshold. A threshold
// <= 0 selects DefaultSimilarityThreshold.
func IsNearDuplicate(a, b string, threshold float64) bool {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return Jaccard(a, b) >= threshold
}

// tokenSet splits normalized text on whitespace and trims punctuation off
// each token, so "test." and "test" are the same token.
func tokenSet(s string) map[string]struct{} {
	fields := strings.Fields(s)
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		tok := strings.TrimFunc(f, unicode.IsPunct)
		if tok == "" {
			continue
		}
		set[tok] = struct{}{}
	}
	return set
}
