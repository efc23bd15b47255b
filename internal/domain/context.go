package domain

type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

type AdherenceStatus string

const (
	AdherenceStable      AdherenceStatus = "stable"
	AdherenceOverTarget  AdherenceStatus = "over_target"
	AdherenceUnderTarget AdherenceStatus = "under_target"
	AdherenceUnknown     AdherenceStatus = "unknown"
)

type WorkoutFrequencyTrend struct {
	Direction    TrendDirection `json:"direction"`
	ChangeRate   float64        `json:"change_rate"`
	SlopePerWeek float64        `json:"slope_per_week"`
	WindowDays   int            `json:"window_days"`
	WeeklyCounts []int          `json:"weekly_counts"`
}

type NutritionAdherenceTrend struct {
	Status           AdherenceStatus `json:"status"`
	AvgDailyCalories float64         `json:"avg_daily_calories"`
	TargetCalories   float64         `json:"target_calories,omitempty"`
	Adherence        float64         `json:"adherence"`
	Confidence       float64         `json:"confidence"`
	TrackedDays      int             `json:"tracked_days"`
}

type ActivityConsistency struct {
	Score      float64 `json:"score"`
	ActiveDays int     `json:"active_days"`
	SpanDays   int     `json:"span_days"`
}

type LongTermTrends struct {
	WorkoutFrequencyTrend   WorkoutFrequencyTrend   `json:"workout_frequency_trend"`
	NutritionAdherenceTrend NutritionAdherenceTrend `json:"nutrition_adherence_trend"`
	ActivityConsistency     ActivityConsistency     `json:"activity_consistency"`
}

// UserContextSnapshot is the full, uncompressed view of one user.
// After Normalize no collection field is nil.
type UserContextSnapshot struct {
	Profile               Profile               `json:"profile"`
	RecentWorkouts        []Workout             `json:"recent_workouts"`
	RecentMeals           []Meal                `json:"recent_meals"`
	RecentActivities      []Activity            `json:"recent_activities"`
	Goals                 []Goal                `json:"goals"`
	WorkoutPatterns       WorkoutPatterns       `json:"workout_patterns"`
	NutritionPatterns     NutritionPatterns     `json:"nutrition_patterns"`
	MemoryFacts           []MemoryFact          `json:"memory_facts"`
	ConversationSummaries []ConversationSummary `json:"conversation_summaries"`
	PreferenceProfile     PreferenceProfile     `json:"preference_profile"`
	LongTermTrends        LongTermTrends        `json:"long_term_trends"`
}

func (s *UserContextSnapshot) Normalize() {
	if s.RecentWorkouts == nil {
		s.RecentWorkouts = []Workout{}
	}
	if s.RecentMeals == nil {
		s.RecentMeals = []Meal{}
	}
	if s.RecentActivities == nil {
		s.RecentActivities = []Activity{}
	}
	if s.Goals == nil {
		s.Goals = []Goal{}
	}
	if s.MemoryFacts == nil {
		s.MemoryFacts = []MemoryFact{}
	}
	if s.ConversationSummaries == nil {
		s.ConversationSummaries = []ConversationSummary{}
	}
	if s.WorkoutPatterns.FavoriteTypes == nil {
		s.WorkoutPatterns.FavoriteTypes = []string{}
	}
	if s.NutritionPatterns.CommonMealTypes == nil {
		s.NutritionPatterns.CommonMealTypes = []string{}
	}
	if s.LongTermTrends.WorkoutFrequencyTrend.WeeklyCounts == nil {
		s.LongTermTrends.WorkoutFrequencyTrend.WeeklyCounts = []int{}
	}
	s.PreferenceProfile.Normalize()
}

// CompressedContext is derived per request and never persisted.
type CompressedContext struct {
	Profile          Profile      `json:"profile"`
	CurrentGoals     []Goal       `json:"current_goals"`
	RelevantFacts    []MemoryFact `json:"relevant_facts"`
	RecentWorkouts   []Workout    `json:"recent_workouts"`
	WorkoutSummary   string       `json:"workout_summary"`
	NutritionSummary string       `json:"nutrition_summary"`
	ActivitySummary  string       `json:"activity_summary"`
	TodaysMeals      []Meal       `json:"todays_meals"`
	EstimatedTokens  int          `json:"-"`
}
