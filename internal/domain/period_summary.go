package domain

import (
	"time"

	"github.com/google/uuid"
)

type PeriodType string

const (
	PeriodWeekly    PeriodType = "weekly"
	PeriodMonthly   PeriodType = "monthly"
	PeriodQuarterly PeriodType = "quarterly"
)

func ValidPeriodType(t string) bool {
	switch PeriodType(t) {
	case PeriodWeekly, PeriodMonthly, PeriodQuarterly:
		return true
	}
	return false
}

type ActivitySummary struct {
	Count            int            `json:"count"`
	ByType           map[string]int `json:"by_type"`
	TotalDurationMin float64        `json:"total_duration_min"`
	AvgDurationMin   float64        `json:"avg_duration_min"`
	TotalDistanceKm  float64        `json:"total_distance_km"`
	AvgHeartRate     float64        `json:"avg_heart_rate,omitempty"`
	TotalCalories    float64        `json:"total_calories"`
	ActiveDays       int            `json:"active_days"`
	ConsistencyScore float64        `json:"consistency_score"`
}

type NutritionSummary struct {
	MealCount        int     `json:"meal_count"`
	TrackedDays      int     `json:"tracked_days"`
	AvgDailyCalories float64 `json:"avg_daily_calories"`
	AvgDailyProtein  float64 `json:"avg_daily_protein"`
	AvgDailyCarbs    float64 `json:"avg_daily_carbs"`
	AvgDailyFat      float64 `json:"avg_daily_fat"`
	MealsPerDay      float64 `json:"meals_per_day"`
}

// PeriodSummary is unique per (UserID, PeriodType, PeriodStart, PeriodEnd).
// PeriodEnd is exclusive.
type PeriodSummary struct {
	ID               uuid.UUID        `json:"id"`
	UserID           uuid.UUID        `json:"user_id"`
	PeriodType       PeriodType       `json:"period_type"`
	PeriodStart      time.Time        `json:"period_start"`
	PeriodEnd        time.Time        `json:"period_end"`
	ActivitySummary  ActivitySummary  `json:"activity_summary"`
	NutritionSummary NutritionSummary `json:"nutrition_summary"`
	KeyAchievements  []string         `json:"key_achievements"`
	ChallengesFaced  []string         `json:"challenges_faced"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}
