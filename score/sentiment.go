package score

import (
	"math"
	"strings"
	"unicode"
)

// Sentiment computes the lexical polarity of a text in [-1, 1].
// Deterministic: the same text always yields the same value.
func Sentiment(text string) float64 {
	tokens := tokenize(text)
	if len(tokens) == 0 {
		return 0
	}

	var (
		sum     float64
		hits    int
		negated bool
	)

	for _, token := range tokens {
		if _, ok := negations[token]; ok {
			negated = true
			continue
		}

		weight, ok := polarity[token]
		if !ok {
			negated = false
			continue
		}

		if negated {
			weight = -weight
			negated = false
		}

		sum += weight
		hits++
	}

	if hits == 0 {
		return 0
	}

	// Dampen by hit count so one strong word in a long headline does not
	// saturate the scale.
	value := sum / math.Sqrt(float64(hits)+1)
	return clip(value, -1, 1)
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
}

func clip(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
