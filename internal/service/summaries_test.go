package service

import (
	"strings"
	"testing"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestSummarizeWorkouts(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	workouts := []domain.Workout{
		{Type: "strength", DurationMin: 60, Completed: true, PerformedAt: base.Add(7 * time.Hour)},
		{Type: "strength", DurationMin: 50, Completed: true, PerformedAt: base.AddDate(0, 0, 1).Add(6 * time.Hour)},
		{Type: "run", DurationMin: 30, Completed: true, PerformedAt: base.AddDate(0, 0, 2).Add(8 * time.Hour)},
		{Type: "yoga", DurationMin: 40, Completed: false, PerformedAt: base.AddDate(0, 0, 3).Add(9 * time.Hour)},
	}

	s := SummarizeWorkouts(workouts)
	assert.Contains(t, s, "4 workouts logged (3 completed).")
	assert.Contains(t, s, "Most frequent: strength (2), run (1).")
	assert.Contains(t, s, "Average duration 45 min.")
	assert.Contains(t, s, "Consistently trains in the morning.")
	assert.Contains(t, s, "Last workout Thu Jun 13 (yoga).")
}

func TestSummarizeWorkouts_NoDominantTime(t *testing.T) {
	base := time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)
	workouts := []domain.Workout{
		{Type: "run", PerformedAt: base.Add(7 * time.Hour)},
		{Type: "run", PerformedAt: base.Add(18 * time.Hour)},
		{Type: "run", PerformedAt: base.Add(13 * time.Hour)},
	}
	assert.NotContains(t, SummarizeWorkouts(workouts), "Consistently")
}

func TestSummarizeWorkouts_Empty(t *testing.T) {
	assert.Equal(t, "No workouts logged recently.", SummarizeWorkouts(nil))
}

func TestSummarizeNutrition(t *testing.T) {
	day1 := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	meals := []domain.Meal{
		{MealType: domain.MealTypeBreakfast, Calories: 500, ProteinG: 30, EatenAt: day1.Add(8 * time.Hour)},
		{MealType: domain.MealTypeDinner, Calories: 1500, ProteinG: 90, EatenAt: day1.Add(19 * time.Hour)},
		{MealType: domain.MealTypeLunch, Calories: 1800, ProteinG: 100, EatenAt: day2.Add(12 * time.Hour)},
	}

	s := SummarizeNutrition(meals)
	assert.Contains(t, s, "3 meals logged over 2 days.")
	assert.Contains(t, s, "Total 3800 kcal and 220 g protein, averaging 1900 kcal and 110 g protein per day.")
	assert.Contains(t, s, "Meal types: breakfast, dinner, lunch.")
	assert.Equal(t, "No meals logged recently.", SummarizeNutrition(nil))
}

func TestSummarizeActivities(t *testing.T) {
	base := time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)
	activities := []domain.Activity{
		{Type: "walk", DurationMin: 30, DistanceKm: 2.5, OccurredAt: base},
		{Type: "walk", DurationMin: 40, DistanceKm: 3, OccurredAt: base.AddDate(0, 0, 2)},
		{Type: "cycling", DurationMin: 60, DistanceKm: 20, OccurredAt: base.AddDate(0, 0, 3)},
	}

	s := SummarizeActivities(activities)
	assert.Contains(t, s, "3 activities totalling 130 min and 25.5 km.")
	assert.Contains(t, s, "Mostly walk (2), cycling (1).")
	assert.Contains(t, s, "Active on 3 of 4 days.")
	assert.Equal(t, "No activities logged recently.", SummarizeActivities(nil))
}

func TestSummaries_NeverExceedCeilings(t *testing.T) {
	long := strings.Repeat("x", 800)
	base := time.Date(2024, 1, 1, 6, 0, 0, 0, time.UTC)

	var workouts []domain.Workout
	var meals []domain.Meal
	var activities []domain.Activity
	for i := 0; i < 5000; i++ {
		at := base.Add(time.Duration(i) * time.Hour)
		workouts = append(workouts, domain.Workout{Type: long + string(rune('a'+i%26)), DurationMin: float64(i), Completed: true, PerformedAt: at})
		meals = append(meals, domain.Meal{MealType: domain.MealType(long), Calories: 1e9, ProteinG: 1e9, EatenAt: at})
		activities = append(activities, domain.Activity{Type: long, DurationMin: 1e9, DistanceKm: 1e9, OccurredAt: at})
	}

	ws := SummarizeWorkouts(workouts)
	ns := SummarizeNutrition(meals)
	as := SummarizeActivities(activities)

	assert.LessOrEqual(t, len(ws), WorkoutSummaryMaxChars)
	assert.LessOrEqual(t, len(ns), NutritionSummaryMaxChars)
	assert.LessOrEqual(t, len(as), ActivitySummaryMaxChars)
	assert.True(t, strings.HasSuffix(ws, "."), "summaries end on a whole sentence")
	assert.True(t, strings.HasSuffix(ns, "."))
	assert.True(t, strings.HasSuffix(as, "."))
}

func TestJoinSentences(t *testing.T) {
	assert.Equal(t, "One. Three.", joinSentences(12, "One.", strings.Repeat("two ", 10)+".", "Three."))
	assert.Equal(t, "", joinSentences(3, "Too long."))
}

func TestPartOfDay(t *testing.T) {
	assert.Equal(t, "morning", partOfDay(5))
	assert.Equal(t, "afternoon", partOfDay(12))
	assert.Equal(t, "evening", partOfDay(21))
	assert.Equal(t, "night", partOfDay(23))
	assert.Equal(t, "night", partOfDay(3))
}
