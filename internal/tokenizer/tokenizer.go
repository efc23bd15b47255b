// Package tokenizer approximates token counts for prompt budgeting.
package tokenizer

import (
	"encoding/json"
	"math"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rates for English prose. Counts average the per-word and per-character
// approximations and round up.
const (
	tokensPerWord = 1.3
	runesPerToken = 4.0
)

const truncationMarker = " ..."

// Estimator counts tokens for a value. Implementations must be deterministic:
// the same value always yields the same count.
type Estimator interface {
	Estimate(v any) int
}

// CountText approximates the tokens in text. It never decreases when text grows
// by whole words.
func CountText(text string) int {
	words := len(strings.Fields(text))
	if words == 0 {
		return 0
	}
	byWords := float64(words) * tokensPerWord
	byRunes := float64(utf8.RuneCountInString(text)) / runesPerToken
	return int(math.Ceil((byWords + byRunes) / 2))
}

// JSONEstimator counts tokens in a value's JSON encoding. Structural punctuation
// is spaced out first so keys and values count as separate words.
type JSONEstimator struct{}

var jsonSpacer = strings.NewReplacer(`":`, `" :`, `,"`, `, "`, `{`, `{ `, `[`, `[ `)

func (JSONEstimator) Estimate(v any) int {
	b, err := json.Marshal(v)
	if err != nil {
		return 0
	}
	return CountText(jsonSpacer.Replace(string(b)))
}

// Truncate cuts text after the last whole word that keeps it, plus a marker,
// within budget tokens. Whitespace inside the kept prefix is preserved.
func Truncate(text string, budget int) string {
	if budget <= 0 {
		return ""
	}
	if CountText(text) <= budget {
		return text
	}

	ends := wordEnds(text)
	fits := func(n int) bool { return CountText(text[:ends[n-1]]+truncationMarker) <= budget }

	// Largest n with fits(n); the full text is known not to fit.
	low, high := 0, len(ends)-1
	for low < high {
		mid := (low + high + 1) / 2
		if fits(mid) {
			low = mid
		} else {
			high = mid - 1
		}
	}
	if low == 0 {
		return ""
	}
	return text[:ends[low-1]] + truncationMarker
}

// wordEnds returns the byte offset just past each word in text.
func wordEnds(text string) []int {
	var ends []int
	inWord := false
	for i, r := range text {
		space := unicode.IsSpace(r)
		if inWord && space {
			ends = append(ends, i)
		}
		inWord = !space
	}
	if inWord {
		ends = append(ends, len(text))
	}
	return ends
}
