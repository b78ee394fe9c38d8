package analysis

import "strings"

// JaccardSimilarity scores two texts in [0, 1] by comparing their lowercase
// word sets: intersection size over union size. Empty input on either side
// yields 0.
func JaccardSimilarity(a, b string) float64 {
	if a == "" || b == "" {
		return 0.0
	}

	wordsA := wordSet(a)
	wordsB := wordSet(b)
	if len(wordsA) == 0 || len(wordsB) == 0 {
		return 0.0
	}

	intersection := 0
	for w := range wordsA {
		if _, ok := wordsB[w]; ok {
			intersection++
		}
	}
	union := len(wordsA) + len(wordsB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, w := range strings.Fields(strings.ToLower(s)) {
		set[w] = struct{}{}
	}
	return set
}
