package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
)

func seedCmd() *cobra.Command {
	var days int

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Create a demo user with goals, events, facts and preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool, err := openPool(cmd.Context())
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}
			defer pool.Close()

			userID, err := seedDemoUser(cmd.Context(), pool, days, time.Now().UTC(), cmd.OutOrStdout())
			if err != nil {
				return fmt.Errorf("seed: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "\n=== Seed Complete ===")
			fmt.Fprintln(out, "\nTo build a coaching context, use:")
			fmt.Fprintf(out, "curl -X POST -d '{\"query\":\"what should I eat\"}' http://localhost:8080/v1/users/%s/context\n", userID)
			fmt.Fprintf(out, "\nOr offline:\ncoachctl context %s --budget 800\n", userID)
			return nil
		},
	}

	cmd.Flags().IntVar(&days, "days", 35, "days of event history to generate")
	return cmd
}

// seedDemoUser writes a deterministic history ending at now. Workouts fall on
// Mon/Wed/Fri, runs on Saturdays, and three meals are logged every other day.
func seedDemoUser(ctx context.Context, pool *pgxpool.Pool, days int, now time.Time, out io.Writer) (uuid.UUID, error) {
	users := store.NewUserDataStore(pool)
	events := store.NewEventStore(pool)
	facts := store.NewMemoryFactStore(pool)
	profiles := store.NewPreferenceProfileStore(pool)

	profile := &domain.Profile{
		DisplayName:  "Demo Athlete",
		Age:          34,
		Sex:          "female",
		HeightCm:     168,
		WeightKg:     64,
		FitnessLevel: "intermediate",
		Timezone:     "America/New_York",
	}
	if err := users.UpsertProfile(ctx, profile); err != nil {
		return uuid.Nil, fmt.Errorf("create user: %w", err)
	}
	userID := profile.UserID
	fmt.Fprintf(out, "Created user: %s\n", userID)

	deadline := now.AddDate(0, 4, 0)
	goals := []domain.Goal{
		{Type: domain.GoalTypeWorkout, Title: "Run a half marathon", TargetValue: 21.1, Unit: "km", Priority: domain.GoalPriorityHigh, Deadline: &deadline},
		{Type: domain.GoalTypeNutrition, Title: "Hit 110g protein daily", TargetValue: 110, Unit: "g", Priority: domain.GoalPriorityMedium},
		{Type: domain.GoalTypeHabit, Title: "Stretch after every session", Priority: domain.GoalPriorityLow},
	}
	for i := range goals {
		g := &goals[i]
		g.UserID = userID
		g.IsActive = true
		if err := users.CreateGoal(ctx, g); err != nil {
			return uuid.Nil, fmt.Errorf("create goal: %w", err)
		}
	}
	fmt.Fprintf(out, "Created %d goals\n", len(goals))

	var workouts, meals, activities int
	start := now.AddDate(0, 0, -days).Truncate(24 * time.Hour)
	for d := start; d.Before(now); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Monday, time.Wednesday, time.Friday:
			w := &domain.Workout{
				UserID:      userID,
				Type:        "strength",
				Name:        "Full body",
				DurationMin: 50,
				Completed:   d.Weekday() != time.Friday || d.Day()%2 == 0,
				Exercises:   []string{"squat", "deadlift", "row"},
				PerformedAt: d.Add(7 * time.Hour),
			}
			if err := users.CreateWorkout(ctx, w); err != nil {
				return uuid.Nil, fmt.Errorf("create workout: %w", err)
			}
			workouts++
		case time.Saturday:
			a := &domain.Activity{
				UserID:       userID,
				Type:         "run",
				DurationMin:  55 + float64(d.Day()%10),
				DistanceKm:   9 + float64(d.Day()%4),
				HeartRateAvg: 150,
				Calories:     600,
				OccurredAt:   d.Add(8 * time.Hour),
			}
			if err := events.CreateActivity(ctx, a); err != nil {
				return uuid.Nil, fmt.Errorf("create activity: %w", err)
			}
			activities++
		}

		if d.YearDay()%2 == 0 {
			for _, m := range []domain.Meal{
				{MealType: domain.MealTypeBreakfast, Name: "Oats and yogurt", Calories: 450, ProteinG: 25, CarbsG: 60, FatG: 12, EatenAt: d.Add(12 * time.Hour)},
				{MealType: domain.MealTypeLunch, Name: "Lentil bowl", Calories: 650, ProteinG: 35, CarbsG: 80, FatG: 18, EatenAt: d.Add(17 * time.Hour)},
				{MealType: domain.MealTypeDinner, Name: "Tofu stir fry", Calories: 700, ProteinG: 40, CarbsG: 70, FatG: 25, EatenAt: d.Add(23 * time.Hour)},
			} {
				m.UserID = userID
				if err := events.CreateMeal(ctx, &m); err != nil {
					return uuid.Nil, fmt.Errorf("create meal: %w", err)
				}
				meals++
			}
		}
	}
	fmt.Fprintf(out, "Created %d workouts, %d activities, %d meals\n", workouts, activities, meals)

	milestones := []domain.Milestone{
		{Kind: domain.MilestoneAchievement, Title: "First 10k", OccurredAt: now.AddDate(0, 0, -10)},
		{Kind: domain.MilestoneChallenge, Title: "Missed a week with a cold", OccurredAt: now.AddDate(0, 0, -24)},
	}
	for i := range milestones {
		milestones[i].UserID = userID
		if err := events.CreateMilestone(ctx, &milestones[i]); err != nil {
			return uuid.Nil, fmt.Errorf("create milestone: %w", err)
		}
	}

	seedFacts := []domain.MemoryFact{
		{FactType: domain.FactTypeConstraint, Content: "Left knee gets sore on deep lunges", Confidence: 0.95, Metadata: map[string]string{"body_part": "knee"}},
		{FactType: domain.FactTypeConstraint, Content: "Allergic to peanuts", Confidence: 0.98, Metadata: map[string]string{"allergen": "peanuts"}},
		{FactType: domain.FactTypePreference, Content: "Prefers morning workouts", Confidence: 0.9},
		{FactType: domain.FactTypePreference, Content: "I'm vegetarian", Confidence: 0.9},
		{FactType: domain.FactTypeGoal, Content: "Wants to run a half marathon this year", Confidence: 0.85},
		{FactType: domain.FactTypeRoutine, Content: "Long run every Saturday", Confidence: 0.8},
		{FactType: domain.FactTypeAchievement, Content: "Ran 10k without stopping", Confidence: 0.9},
		{FactType: domain.FactTypePreference, Content: "Might like trying yoga", Confidence: 0.4},
	}
	for i := range seedFacts {
		f := &seedFacts[i]
		f.UserID = userID
		f.Source = domain.FactSourceManual
		f.IsActive = true
		if err := facts.Create(ctx, f); err != nil {
			return uuid.Nil, fmt.Errorf("create fact: %w", err)
		}
	}
	fmt.Fprintf(out, "Created %d memory facts\n", len(seedFacts))

	prefs := domain.NewPreferenceProfile(userID)
	prefs.WorkoutPreferences.PreferredTime = "morning"
	prefs.WorkoutPreferences.PreferredDays = []string{"monday", "wednesday", "friday", "saturday"}
	prefs.WorkoutPreferences.AvoidedExercises = []string{"deep lunges"}
	prefs.NutritionPreferences.DietaryRestrictions = []string{"vegetarian"}
	prefs.NutritionPreferences.Allergies = []string{"peanuts"}
	prefs.CommunicationStyle.PreferredTone = "encouraging"
	prefs.Constraints["knee"] = domain.BodyConstraint{Restrictions: []string{"deep lunges"}, Severity: domain.SeverityMild}
	prefs.Motivators = []string{"race day"}
	if err := profiles.Upsert(ctx, prefs); err != nil {
		return uuid.Nil, fmt.Errorf("upsert preferences: %w", err)
	}
	fmt.Fprintln(out, "Created preference profile")

	return userID, nil
}
