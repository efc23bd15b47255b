package domain

import (
	"time"

	"github.com/google/uuid"
)

// Profile is the user's coaching profile. The pipeline treats it as opaque and
// passes it through compression verbatim.
type Profile struct {
	UserID       uuid.UUID `json:"user_id"`
	DisplayName  string    `json:"display_name"`
	Age          int       `json:"age,omitempty"`
	Sex          string    `json:"sex,omitempty"`
	HeightCm     float64   `json:"height_cm,omitempty"`
	WeightKg     float64   `json:"weight_kg,omitempty"`
	FitnessLevel string    `json:"fitness_level,omitempty"`
	Timezone     string    `json:"timezone,omitempty"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Identity returns a copy of the profile reduced to identifying fields.
func (p Profile) Identity() Profile {
	return Profile{UserID: p.UserID, DisplayName: p.DisplayName}
}

type GoalType string

const (
	GoalTypeWorkout   GoalType = "workout"
	GoalTypeNutrition GoalType = "nutrition"
	GoalTypeWeight    GoalType = "weight"
	GoalTypeHabit     GoalType = "habit"
)

type GoalPriority string

const (
	GoalPriorityHigh   GoalPriority = "high"
	GoalPriorityMedium GoalPriority = "medium"
	GoalPriorityLow    GoalPriority = "low"
)

// Rank orders priorities, high first.
func (p GoalPriority) Rank() int {
	switch p {
	case GoalPriorityHigh:
		return 0
	case GoalPriorityMedium:
		return 1
	case GoalPriorityLow:
		return 2
	default:
		return 3
	}
}

type Goal struct {
	ID          uuid.UUID    `json:"id"`
	UserID      uuid.UUID    `json:"user_id"`
	Type        GoalType     `json:"type"`
	Title       string       `json:"title"`
	TargetValue float64      `json:"target_value,omitempty"`
	Unit        string       `json:"unit,omitempty"`
	Priority    GoalPriority `json:"priority"`
	IsActive    bool         `json:"is_active"`
	Deadline    *time.Time   `json:"deadline,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

type Workout struct {
	ID          uuid.UUID `json:"id"`
	UserID      uuid.UUID `json:"user_id"`
	Type        string    `json:"type"`
	Name        string    `json:"name,omitempty"`
	DurationMin float64   `json:"duration_min"`
	Completed   bool      `json:"completed"`
	Exercises   []string  `json:"exercises,omitempty"`
	PerformedAt time.Time `json:"performed_at"`
}

type MealType string

const (
	MealTypeBreakfast MealType = "breakfast"
	MealTypeLunch     MealType = "lunch"
	MealTypeDinner    MealType = "dinner"
	MealTypeSnack     MealType = "snack"
)

type Meal struct {
	ID       uuid.UUID `json:"id"`
	UserID   uuid.UUID `json:"user_id"`
	MealType MealType  `json:"meal_type"`
	Name     string    `json:"name,omitempty"`
	Calories float64   `json:"calories"`
	ProteinG float64   `json:"protein_g"`
	CarbsG   float64   `json:"carbs_g"`
	FatG     float64   `json:"fat_g"`
	EatenAt  time.Time `json:"eaten_at"`
}

type Activity struct {
	ID           uuid.UUID `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	Type         string    `json:"type"`
	DurationMin  float64   `json:"duration_min"`
	DistanceKm   float64   `json:"distance_km,omitempty"`
	HeartRateAvg float64   `json:"heart_rate_avg,omitempty"`
	Calories     float64   `json:"calories,omitempty"`
	OccurredAt   time.Time `json:"occurred_at"`
}

type MilestoneKind string

const (
	MilestoneAchievement MilestoneKind = "achievement"
	MilestoneChallenge   MilestoneKind = "challenge"
)

// Milestone is a notable event folded into monthly and quarterly summaries.
type Milestone struct {
	ID         uuid.UUID     `json:"id"`
	UserID     uuid.UUID     `json:"user_id"`
	Kind       MilestoneKind `json:"kind"`
	Title      string        `json:"title"`
	OccurredAt time.Time     `json:"occurred_at"`
}

// WorkoutPatterns and NutritionPatterns are aggregates computed by the store,
// not raw rows.
type WorkoutPatterns struct {
	SessionsPerWeek float64  `json:"sessions_per_week"`
	FavoriteTypes   []string `json:"favorite_types"`
	AvgDurationMin  float64  `json:"avg_duration_min"`
}

type NutritionPatterns struct {
	AvgDailyCalories float64  `json:"avg_daily_calories"`
	AvgDailyProtein  float64  `json:"avg_daily_protein"`
	CommonMealTypes  []string `json:"common_meal_types"`
}

// UserAggregate is the result of the primary context fetch.
type UserAggregate struct {
	Profile           Profile
	Workouts          []Workout
	Meals             []Meal
	Activities        []Activity
	Goals             []Goal
	WorkoutPatterns   WorkoutPatterns
	NutritionPatterns NutritionPatterns
}
