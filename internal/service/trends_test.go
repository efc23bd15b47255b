package service

import (
	"testing"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// trendNow is a Sunday evening.
var trendNow = time.Date(2024, 6, 16, 20, 0, 0, 0, time.UTC)

// weekClosed is the Monday morning after trendNow, when trendNow's week has closed.
var weekClosed = time.Date(2024, 6, 17, 8, 0, 0, 0, time.UTC)

// workoutsPerWeek places counts[i] completed workouts on consecutive weekdays of
// the i-th of len(counts) weeks ending with trendNow's week.
func workoutsPerWeek(counts []int) []domain.Workout {
	first := weekStart(trendNow).AddDate(0, 0, -7*(len(counts)-1))
	var out []domain.Workout
	for i, c := range counts {
		for d := 0; d < c; d++ {
			out = append(out, domain.Workout{
				Type:        "strength",
				DurationMin: 45,
				Completed:   true,
				PerformedAt: first.AddDate(0, 0, 7*i+d).Add(7 * time.Hour),
			})
		}
	}
	return out
}

func TestWeekStart(t *testing.T) {
	assert.Equal(t, time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), weekStart(trendNow))
	monday := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, monday, weekStart(monday))
	assert.Equal(t, monday, weekStart(monday.Add(3*day+5*time.Hour)))
}

func TestWorkoutFrequency_RisingBlocksIncrease(t *testing.T) {
	counts := []int{3, 3, 3, 4, 4, 4, 4, 5, 5, 5, 5, 5}

	trends := ComputeLongTermTrends(workoutsPerWeek(counts), nil, nil, nil, weekClosed)
	wf := trends.WorkoutFrequencyTrend

	assert.Equal(t, domain.TrendIncreasing, wf.Direction)
	assert.Greater(t, wf.ChangeRate, 0.0)
	assert.InDelta(t, 38.1, wf.ChangeRate, 0.1)
	assert.Greater(t, wf.SlopePerWeek, 0.0)
	assert.Equal(t, counts, wf.WeeklyCounts)
	assert.Equal(t, 84, wf.WindowDays)
}

func TestWorkoutFrequency_Decreasing(t *testing.T) {
	counts := []int{5, 5, 5, 5, 5, 4, 4, 4, 4, 3, 3, 3}

	wf := computeWorkoutFrequency(workoutsPerWeek(counts), weekClosed)
	assert.Equal(t, domain.TrendDecreasing, wf.Direction)
	assert.Less(t, wf.ChangeRate, 0.0)
	assert.Less(t, wf.SlopePerWeek, 0.0)
}

func TestWorkoutFrequency_Stable(t *testing.T) {
	wf := computeWorkoutFrequency(workoutsPerWeek([]int{4, 4, 4, 4, 5, 4, 4, 4}), weekClosed)
	assert.Equal(t, domain.TrendStable, wf.Direction)
	assert.Equal(t, 56, wf.WindowDays)
}

func TestWorkoutFrequency_IgnoresIncomplete(t *testing.T) {
	workouts := workoutsPerWeek([]int{2, 2, 2, 2})
	for i := 0; i < 5; i++ {
		workouts = append(workouts, domain.Workout{Completed: false, PerformedAt: trendNow.Add(-time.Hour)})
	}

	wf := computeWorkoutFrequency(workouts, weekClosed)
	assert.Equal(t, []int{2, 2, 2, 2}, wf.WeeklyCounts)
	assert.Equal(t, domain.TrendStable, wf.Direction)
}

func TestWorkoutFrequency_WindowCapped(t *testing.T) {
	workouts := workoutsPerWeek([]int{3, 3})
	workouts = append(workouts, domain.Workout{Completed: true, PerformedAt: trendNow.AddDate(0, 0, -7*20)})

	wf := computeWorkoutFrequency(workouts, weekClosed)
	assert.Len(t, wf.WeeklyCounts, trendMaxWeeks)
	assert.Equal(t, trendMaxWeeks*7, wf.WindowDays)
}

func TestWorkoutFrequency_Empty(t *testing.T) {
	wf := computeWorkoutFrequency(nil, weekClosed)
	assert.Equal(t, domain.TrendStable, wf.Direction)
	assert.NotNil(t, wf.WeeklyCounts)
	assert.Empty(t, wf.WeeklyCounts)
	assert.Zero(t, wf.ChangeRate)
}

func TestWorkoutFrequency_WindowStartsAtFirstWorkout(t *testing.T) {
	wf := computeWorkoutFrequency(workoutsPerWeek([]int{0, 0, 2, 3}), weekClosed)
	assert.Equal(t, []int{2, 3}, wf.WeeklyCounts)
	assert.Equal(t, 14, wf.WindowDays)
	assert.Equal(t, domain.TrendIncreasing, wf.Direction)
	assert.Equal(t, 50.0, wf.ChangeRate)
}

func TestWorkoutFrequency_FromEmptyFirstHalf(t *testing.T) {
	workouts := workoutsPerWeek([]int{1, 0, 0, 0, 3, 3})
	workouts = workouts[1:]
	workouts = append(workouts, domain.Workout{Completed: false, PerformedAt: weekStart(trendNow).AddDate(0, 0, -35)})

	wf := computeWorkoutFrequency(workouts, weekClosed)
	assert.Equal(t, []int{3, 3}, wf.WeeklyCounts)

	withGap := computeWorkoutFrequency(workoutsPerWeek([]int{1, 0, 0, 0, 3, 3}), weekClosed)
	assert.Equal(t, []int{1, 0, 0, 0, 3, 3}, withGap.WeeklyCounts)
	assert.Equal(t, domain.TrendIncreasing, withGap.Direction)
	assert.Equal(t, 500.0, withGap.ChangeRate)
}

func TestWorkoutFrequency_SteadyUserOnMonday(t *testing.T) {
	steady := []int{4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4, 4}
	history := workoutsPerWeek(steady)
	openWeek := domain.Workout{Completed: true, PerformedAt: weekClosed.Add(-time.Hour)}

	wf := computeWorkoutFrequency(append(history, openWeek), weekClosed)
	assert.Equal(t, steady, wf.WeeklyCounts, "the open week is not a bucket")
	assert.Equal(t, domain.TrendStable, wf.Direction)
	assert.Zero(t, wf.ChangeRate)
	assert.Zero(t, wf.SlopePerWeek)

	// BuildContext only sees the most recent rows.
	recent := append([]domain.Workout{openWeek}, history[len(history)-DefaultContextFetchLimit:]...)
	wf = computeWorkoutFrequency(recent, weekClosed)
	assert.Equal(t, []int{4, 4, 4, 4, 4}, wf.WeeklyCounts)
	assert.Equal(t, domain.TrendStable, wf.Direction)
}

func TestWorkoutFrequency_OnlyOpenWeek(t *testing.T) {
	wf := computeWorkoutFrequency([]domain.Workout{{Completed: true, PerformedAt: weekClosed}}, weekClosed)
	assert.Equal(t, domain.TrendStable, wf.Direction)
	assert.Empty(t, wf.WeeklyCounts)
}

func TestWorkoutFrequency_SingleWeek(t *testing.T) {
	wf := computeWorkoutFrequency(workoutsPerWeek([]int{3}), weekClosed)
	assert.Equal(t, domain.TrendStable, wf.Direction)
	assert.Equal(t, 7, wf.WindowDays)
	assert.Equal(t, []int{3}, wf.WeeklyCounts)
}

func mealsWithDailyCalories(totals ...float64) []domain.Meal {
	var out []domain.Meal
	for i, total := range totals {
		dayAt := trendNow.AddDate(0, 0, -i)
		out = append(out,
			domain.Meal{MealType: domain.MealTypeLunch, Calories: total / 2, EatenAt: dayStart(dayAt).Add(12 * time.Hour)},
			domain.Meal{MealType: domain.MealTypeDinner, Calories: total / 2, EatenAt: dayStart(dayAt).Add(19 * time.Hour)},
		)
	}
	return out
}

func calorieGoal(target float64, active bool) domain.Goal {
	return domain.Goal{Type: domain.GoalTypeNutrition, Title: "Daily calories", TargetValue: target, Unit: "kcal", Priority: domain.GoalPriorityHigh, IsActive: active}
}

func TestNutritionAdherence(t *testing.T) {
	tests := []struct {
		name   string
		totals []float64
		want   domain.AdherenceStatus
	}{
		{"within band", []float64{2100, 1900}, domain.AdherenceStable},
		{"edge of band", []float64{2200}, domain.AdherenceStable},
		{"over", []float64{2500, 2600}, domain.AdherenceOverTarget},
		{"under", []float64{1500, 1400}, domain.AdherenceUnderTarget},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trend := computeNutritionAdherence(mealsWithDailyCalories(tt.totals...), []domain.Goal{calorieGoal(2000, true)})
			assert.Equal(t, tt.want, trend.Status)
			assert.Equal(t, 2000.0, trend.TargetCalories)
			assert.Equal(t, len(tt.totals), trend.TrackedDays)
		})
	}
}

func TestNutritionAdherence_ConfidenceSaturates(t *testing.T) {
	goals := []domain.Goal{calorieGoal(2000, true)}

	few := computeNutritionAdherence(mealsWithDailyCalories(2000, 2000), goals)
	assert.InDelta(t, 2.0/14.0, few.Confidence, 0.01)

	totals := make([]float64, 20)
	for i := range totals {
		totals[i] = 2000
	}
	many := computeNutritionAdherence(mealsWithDailyCalories(totals...), goals)
	assert.Equal(t, 1.0, many.Confidence)
	assert.Greater(t, many.Confidence, few.Confidence)
}

func TestNutritionAdherence_Unknown(t *testing.T) {
	noGoal := computeNutritionAdherence(mealsWithDailyCalories(1800), nil)
	assert.Equal(t, domain.AdherenceUnknown, noGoal.Status)
	assert.Equal(t, 1800.0, noGoal.AvgDailyCalories)

	inactive := computeNutritionAdherence(mealsWithDailyCalories(1800), []domain.Goal{calorieGoal(2000, false)})
	assert.Equal(t, domain.AdherenceUnknown, inactive.Status)

	noMeals := computeNutritionAdherence(nil, []domain.Goal{calorieGoal(2000, true)})
	assert.Equal(t, domain.AdherenceUnknown, noMeals.Status)
	assert.Zero(t, noMeals.TrackedDays)
}

func TestCalorieTarget_PrefersHighPriority(t *testing.T) {
	low := calorieGoal(1800, true)
	low.Priority = domain.GoalPriorityLow
	high := calorieGoal(2200, true)

	assert.Equal(t, 2200.0, calorieTarget([]domain.Goal{low, high}))
}

func activitiesOnDays(offsets ...int) []domain.Activity {
	var out []domain.Activity
	for _, o := range offsets {
		out = append(out, domain.Activity{Type: "walk", DurationMin: 30, OccurredAt: trendNow.AddDate(0, 0, -o)})
	}
	return out
}

func TestActivityConsistency(t *testing.T) {
	daily := computeActivityConsistency(activitiesOnDays(0, 1, 2, 3, 4, 5, 6))
	assert.Equal(t, 1.0, daily.Score)
	assert.Equal(t, 7, daily.SpanDays)

	gaps := computeActivityConsistency(activitiesOnDays(0, 2, 4))
	assert.InDelta(t, 0.6, gaps.Score, 0.001)
	assert.Equal(t, 3, gaps.ActiveDays)
	assert.Equal(t, 5, gaps.SpanDays)

	sameDay := computeActivityConsistency(activitiesOnDays(1, 1, 1))
	assert.Equal(t, 1.0, sameDay.Score)
	assert.Equal(t, 1, sameDay.ActiveDays)

	none := computeActivityConsistency(nil)
	assert.Zero(t, none.Score)
}

func TestComputeLongTermTrends_Empty(t *testing.T) {
	trends := ComputeLongTermTrends(nil, nil, nil, nil, trendNow)
	require.NotNil(t, trends.WorkoutFrequencyTrend.WeeklyCounts)
	assert.Equal(t, domain.AdherenceUnknown, trends.NutritionAdherenceTrend.Status)
	assert.Zero(t, trends.ActivityConsistency.Score)
}
