package service

import (
	"math"
	"sort"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/samber/lo"
)

const (
	trendMaxWeeks           = 12
	trendChangeThreshold    = 10.0
	adherenceTolerance      = 0.10
	adherenceSaturationDays = 14.0
)

const day = 24 * time.Hour

// ComputeLongTermTrends derives trends from already fetched rows. It performs no I/O.
func ComputeLongTermTrends(workouts []domain.Workout, meals []domain.Meal, activities []domain.Activity, goals []domain.Goal, now time.Time) domain.LongTermTrends {
	return domain.LongTermTrends{
		WorkoutFrequencyTrend:   computeWorkoutFrequency(workouts, now),
		NutritionAdherenceTrend: computeNutritionAdherence(meals, goals),
		ActivityConsistency:     computeActivityConsistency(activities),
	}
}

// weekStart returns Monday 00:00 UTC of t's week.
func weekStart(t time.Time) time.Time {
	t = t.UTC()
	d := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
	offset := (int(d.Weekday()) + 6) % 7
	return d.AddDate(0, 0, -offset)
}

func dayStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// computeWorkoutFrequency buckets completed workouts into calendar weeks from the
// first workout's week through the last completed week, at most trendMaxWeeks.
// The current week is still open and never counted. The direction compares the
// mean of the first half of the window to the second half.
func computeWorkoutFrequency(workouts []domain.Workout, now time.Time) domain.WorkoutFrequencyTrend {
	trend := domain.WorkoutFrequencyTrend{Direction: domain.TrendStable, WeeklyCounts: []int{}}

	end := weekStart(now)
	completed := lo.Filter(workouts, func(w domain.Workout, _ int) bool {
		return w.Completed && w.PerformedAt.Before(end)
	})
	if len(completed) == 0 {
		return trend
	}

	earliest := lo.MinBy(completed, func(a, b domain.Workout) bool { return a.PerformedAt.Before(b.PerformedAt) })
	weeks := int(end.Sub(weekStart(earliest.PerformedAt)) / (7 * day))
	weeks = max(1, min(weeks, trendMaxWeeks))
	start := end.AddDate(0, 0, -7*weeks)

	counts := make([]int, weeks)
	for _, w := range completed {
		if w.PerformedAt.Before(start) {
			continue
		}
		idx := int(weekStart(w.PerformedAt).Sub(start) / (7 * day))
		if idx >= 0 && idx < weeks {
			counts[idx]++
		}
	}

	trend.WeeklyCounts = counts
	trend.WindowDays = weeks * 7
	if weeks < 2 {
		return trend
	}

	half := weeks / 2
	firstMean := meanInts(counts[:half])
	secondMean := meanInts(counts[weeks-half:])
	switch {
	case firstMean > 0:
		trend.ChangeRate = round2((secondMean - firstMean) / firstMean * 100)
	case secondMean > 0:
		trend.ChangeRate = 100
	}
	trend.SlopePerWeek = round2(regressionSlope(counts))

	switch {
	case trend.ChangeRate > trendChangeThreshold:
		trend.Direction = domain.TrendIncreasing
	case trend.ChangeRate < -trendChangeThreshold:
		trend.Direction = domain.TrendDecreasing
	}
	return trend
}

func meanInts(xs []int) float64 {
	if len(xs) == 0 {
		return 0
	}
	return float64(lo.Sum(xs)) / float64(len(xs))
}

// regressionSlope fits counts against their index by least squares.
func regressionSlope(counts []int) float64 {
	n := float64(len(counts))
	if n < 2 {
		return 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, c := range counts {
		x, y := float64(i), float64(c)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	denom := n*sumXX - sumX*sumX
	if denom == 0 {
		return 0
	}
	return (n*sumXY - sumX*sumY) / denom
}

func computeNutritionAdherence(meals []domain.Meal, goals []domain.Goal) domain.NutritionAdherenceTrend {
	trend := domain.NutritionAdherenceTrend{Status: domain.AdherenceUnknown}

	daily := make(map[time.Time]float64)
	for _, m := range meals {
		daily[dayStart(m.EatenAt)] += m.Calories
	}
	trend.TrackedDays = len(daily)
	if trend.TrackedDays == 0 {
		return trend
	}

	trend.AvgDailyCalories = round2(lo.Sum(lo.Values(daily)) / float64(trend.TrackedDays))
	trend.Confidence = round2(math.Min(1, float64(trend.TrackedDays)/adherenceSaturationDays))

	target := calorieTarget(goals)
	if target <= 0 {
		return trend
	}
	trend.TargetCalories = target
	trend.Adherence = round2(trend.AvgDailyCalories / target)

	switch ratio := trend.AvgDailyCalories / target; {
	case math.Abs(ratio-1) <= adherenceTolerance+1e-9:
		trend.Status = domain.AdherenceStable
	case ratio > 1:
		trend.Status = domain.AdherenceOverTarget
	default:
		trend.Status = domain.AdherenceUnderTarget
	}
	return trend
}

// calorieTarget returns the target of the highest-priority active nutrition goal.
func calorieTarget(goals []domain.Goal) float64 {
	candidates := lo.Filter(goals, func(g domain.Goal, _ int) bool {
		return g.IsActive && g.Type == domain.GoalTypeNutrition && g.TargetValue > 0
	})
	if len(candidates) == 0 {
		return 0
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].Priority.Rank() < candidates[j].Priority.Rank()
	})
	return candidates[0].TargetValue
}

// computeActivityConsistency is distinct active days over the inclusive span between
// the first and last activity.
func computeActivityConsistency(activities []domain.Activity) domain.ActivityConsistency {
	if len(activities) == 0 {
		return domain.ActivityConsistency{}
	}
	days := lo.Uniq(lo.Map(activities, func(a domain.Activity, _ int) time.Time { return dayStart(a.OccurredAt) }))
	first := lo.MinBy(days, func(a, b time.Time) bool { return a.Before(b) })
	last := lo.MaxBy(days, func(a, b time.Time) bool { return a.After(b) })
	span := int(last.Sub(first)/day) + 1

	return domain.ActivityConsistency{
		Score:      round2(float64(len(days)) / float64(span)),
		ActiveDays: len(days),
		SpanDays:   span,
	}
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
