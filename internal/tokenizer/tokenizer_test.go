package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCountText(t *testing.T) {
	assert.Equal(t, 0, CountText(""))
	assert.Equal(t, 0, CountText("  \n\t "))
	// 4 words and 25 runes: (5.2 + 6.25) / 2 rounds up to 6.
	assert.Equal(t, 6, CountText("I prefer morning workouts"))

	short := CountText("I prefer morning workouts")
	long := CountText(strings.Repeat("I prefer morning workouts ", 20))
	assert.Greater(t, long, short)
}

func TestCountText_CountsRunesNotBytes(t *testing.T) {
	assert.Equal(t, CountText("cafe au lait"), CountText("café au lait"))
}

func TestJSONEstimator_Deterministic(t *testing.T) {
	v := map[string]any{"facts": []string{"likes running", "allergic to peanuts"}, "count": 2}
	e := JSONEstimator{}
	assert.Equal(t, e.Estimate(v), e.Estimate(v))
	assert.Greater(t, e.Estimate(v), 0)
}

func TestJSONEstimator_MonotonicOnRemoval(t *testing.T) {
	e := JSONEstimator{}
	full := []string{"a longer fact about knee pain", "prefers evenings", "vegan"}
	assert.LessOrEqual(t, e.Estimate(full[:2]), e.Estimate(full))
	assert.LessOrEqual(t, e.Estimate(full[:1]), e.Estimate(full[:2]))
}

func TestTruncate(t *testing.T) {
	text := strings.Repeat("word ", 200)
	out := Truncate(text, 10)
	assert.True(t, strings.HasSuffix(out, truncationMarker))
	assert.LessOrEqual(t, CountText(out), 10)
	assert.Less(t, len(out), len(text))

	assert.Equal(t, "", Truncate(text, 0))
	assert.Equal(t, "short", Truncate("short", 10))
}

func TestTruncate_KeepsLineBreaks(t *testing.T) {
	text := "user: I run every morning\nassistant: Great, keep it up\n" + strings.Repeat("user: more ", 100)
	out := Truncate(text, 20)
	assert.True(t, strings.HasPrefix(out, "user: I run every morning\nassistant:"))
	assert.LessOrEqual(t, CountText(out), 20)
}

func TestWordEnds(t *testing.T) {
	assert.Equal(t, []int{2, 6, 12}, wordEnds("ab  cd\n efgh"))
	assert.Empty(t, wordEnds("   "))
}
