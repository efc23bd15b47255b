package service

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/samber/lo"
)

// Character ceilings for synthesized summaries.
const (
	WorkoutSummaryMaxChars   = 500
	NutritionSummaryMaxChars = 400
	ActivitySummaryMaxChars  = 300
)

const dominantTimeShare = 0.7

// SummarizeWorkouts describes workouts in a few sentences no longer than
// WorkoutSummaryMaxChars. Times are read in the location they carry.
func SummarizeWorkouts(workouts []domain.Workout) string {
	if len(workouts) == 0 {
		return "No workouts logged recently."
	}

	completed := lo.CountBy(workouts, func(w domain.Workout) bool { return w.Completed })
	out := []string{fmt.Sprintf("%d workouts logged (%d completed).", len(workouts), completed)}

	if top := topCounts(lo.Map(workouts, func(w domain.Workout, _ int) string { return w.Type }), 2); len(top) > 0 {
		out = append(out, fmt.Sprintf("Most frequent: %s.", strings.Join(top, ", ")))
	}

	durations := lo.FilterMap(workouts, func(w domain.Workout, _ int) (float64, bool) { return w.DurationMin, w.DurationMin > 0 })
	if len(durations) > 0 {
		out = append(out, fmt.Sprintf("Average duration %.0f min.", lo.Sum(durations)/float64(len(durations))))
	}

	parts := lo.Map(workouts, func(w domain.Workout, _ int) string { return partOfDay(w.PerformedAt.Hour()) })
	if part, share := dominant(parts); share >= dominantTimeShare {
		out = append(out, fmt.Sprintf("Consistently trains in the %s.", part))
	}

	latest := lo.MaxBy(workouts, func(a, b domain.Workout) bool { return a.PerformedAt.After(b.PerformedAt) })
	out = append(out, fmt.Sprintf("Last workout %s (%s).", latest.PerformedAt.Format("Mon Jan 2"), latest.Type))

	return joinSentences(WorkoutSummaryMaxChars, out...)
}

// SummarizeNutrition reports calorie and protein totals and averages per tracked day.
func SummarizeNutrition(meals []domain.Meal) string {
	if len(meals) == 0 {
		return "No meals logged recently."
	}

	days := len(lo.Uniq(lo.Map(meals, func(m domain.Meal, _ int) string { return m.EatenAt.Format("2006-01-02") })))
	calories := lo.SumBy(meals, func(m domain.Meal) float64 { return m.Calories })
	protein := lo.SumBy(meals, func(m domain.Meal) float64 { return m.ProteinG })

	out := []string{
		fmt.Sprintf("%d meals logged over %d days.", len(meals), days),
		fmt.Sprintf("Total %.0f kcal and %.0f g protein, averaging %.0f kcal and %.0f g protein per day.",
			calories, protein, calories/float64(days), protein/float64(days)),
	}

	types := lo.Uniq(lo.FilterMap(meals, func(m domain.Meal, _ int) (string, bool) { return string(m.MealType), m.MealType != "" }))
	sort.Strings(types)
	if len(types) > 0 {
		out = append(out, fmt.Sprintf("Meal types: %s.", strings.Join(types, ", ")))
	}

	return joinSentences(NutritionSummaryMaxChars, out...)
}

func SummarizeActivities(activities []domain.Activity) string {
	if len(activities) == 0 {
		return "No activities logged recently."
	}

	duration := lo.SumBy(activities, func(a domain.Activity) float64 { return a.DurationMin })
	distance := lo.SumBy(activities, func(a domain.Activity) float64 { return a.DistanceKm })
	out := []string{fmt.Sprintf("%d activities totalling %.0f min and %.1f km.", len(activities), duration, distance)}

	if top := topCounts(lo.Map(activities, func(a domain.Activity, _ int) string { return a.Type }), 3); len(top) > 0 {
		out = append(out, fmt.Sprintf("Mostly %s.", strings.Join(top, ", ")))
	}
	consistency := computeActivityConsistency(activities)
	out = append(out, fmt.Sprintf("Active on %d of %d days.", consistency.ActiveDays, consistency.SpanDays))

	return joinSentences(ActivitySummaryMaxChars, out...)
}

// joinSentences keeps whole sentences in order while the result fits limit.
// A sentence that does not fit is skipped, never cut.
func joinSentences(limit int, sentences ...string) string {
	var sb strings.Builder
	for _, s := range sentences {
		extra := len(s)
		if sb.Len() > 0 {
			extra++
		}
		if sb.Len()+extra > limit {
			continue
		}
		if sb.Len() > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(s)
	}
	return sb.String()
}

// topCounts returns up to n non-empty values, most frequent first, formatted "value (count)".
func topCounts(values []string, n int) []string {
	counts := lo.CountValues(lo.Filter(values, func(v string, _ int) bool { return v != "" }))
	keys := lo.Keys(counts)
	sort.Slice(keys, func(i, j int) bool {
		if counts[keys[i]] != counts[keys[j]] {
			return counts[keys[i]] > counts[keys[j]]
		}
		return keys[i] < keys[j]
	})
	keys = capSlice(keys, n)
	return lo.Map(keys, func(k string, _ int) string { return fmt.Sprintf("%s (%d)", k, counts[k]) })
}

func dominant(values []string) (string, float64) {
	if len(values) == 0 {
		return "", 0
	}
	counts := lo.CountValues(values)
	best, bestCount := "", 0
	for _, v := range lo.Uniq(values) {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best, float64(bestCount) / float64(len(values))
}

func partOfDay(hour int) string {
	switch {
	case hour >= 5 && hour < 12:
		return "morning"
	case hour >= 12 && hour < 17:
		return "afternoon"
	case hour >= 17 && hour < 22:
		return "evening"
	default:
		return "night"
	}
}
