package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// patternWindowDays is the lookback for the workout and nutrition pattern aggregates.
const patternWindowDays = 28

type UserDataStore struct {
	db *pgxpool.Pool
}

func NewUserDataStore(db *pgxpool.Pool) *UserDataStore {
	return &UserDataStore{db: db}
}

const (
	workoutColumns  = `id, user_id, type, name, duration_min, completed, exercises, performed_at`
	mealColumns     = `id, user_id, meal_type, name, calories, protein_g, carbs_g, fat_g, eaten_at`
	activityColumns = `id, user_id, type, duration_min, distance_km, heart_rate_avg, calories, occurred_at`
)

// GetUserAggregate loads the profile, the newest limit rows of each event type,
// all goals and the pattern aggregates in one round trip.
func (s *UserDataStore) GetUserAggregate(ctx context.Context, userID uuid.UUID, limit int) (*domain.UserAggregate, error) {
	batch := &pgx.Batch{}
	batch.Queue(`SELECT id, display_name, age, sex, height_cm, weight_kg, fitness_level, timezone, updated_at
		 FROM users WHERE id = $1`, userID)
	batch.Queue(`SELECT `+workoutColumns+` FROM workouts WHERE user_id = $1 ORDER BY performed_at DESC LIMIT $2`, userID, limit)
	batch.Queue(`SELECT `+mealColumns+` FROM meals WHERE user_id = $1 ORDER BY eaten_at DESC LIMIT $2`, userID, limit)
	batch.Queue(`SELECT `+activityColumns+` FROM activities WHERE user_id = $1 ORDER BY occurred_at DESC LIMIT $2`, userID, limit)
	batch.Queue(`SELECT id, user_id, type, title, target_value, unit, priority, is_active, deadline, created_at
		 FROM goals WHERE user_id = $1 ORDER BY created_at`, userID)
	batch.Queue(`SELECT COUNT(*) FILTER (WHERE completed) / ($2::int / 7.0),
		        COALESCE(AVG(duration_min) FILTER (WHERE completed), 0),
		        COALESCE((SELECT array_agg(type ORDER BY n DESC, type)
		                  FROM (SELECT type, COUNT(*) AS n FROM workouts
		                        WHERE user_id = $1 AND performed_at > NOW() - make_interval(days => $2::int)
		                        GROUP BY type ORDER BY n DESC, type LIMIT 3) t), '{}')
		 FROM workouts WHERE user_id = $1 AND performed_at > NOW() - make_interval(days => $2::int)`, userID, patternWindowDays)
	batch.Queue(`SELECT COALESCE(AVG(cal), 0), COALESCE(AVG(protein), 0),
		        COALESCE((SELECT array_agg(meal_type ORDER BY n DESC, meal_type)
		                  FROM (SELECT meal_type, COUNT(*) AS n FROM meals
		                        WHERE user_id = $1 AND eaten_at > NOW() - make_interval(days => $2::int)
		                        GROUP BY meal_type ORDER BY n DESC, meal_type LIMIT 3) t), '{}')
		 FROM (SELECT date_trunc('day', eaten_at) AS d, SUM(calories) AS cal, SUM(protein_g) AS protein
		       FROM meals WHERE user_id = $1 AND eaten_at > NOW() - make_interval(days => $2::int)
		       GROUP BY 1) daily`, userID, patternWindowDays)

	br := s.db.SendBatch(ctx, batch)
	defer br.Close()

	agg := &domain.UserAggregate{}
	p := &agg.Profile
	err := br.QueryRow().Scan(&p.UserID, &p.DisplayName, &p.Age, &p.Sex, &p.HeightCm, &p.WeightKg, &p.FitnessLevel, &p.Timezone, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("profile: %w", err)
	}

	if agg.Workouts, err = collect(br, scanWorkout); err != nil {
		return nil, fmt.Errorf("workouts: %w", err)
	}
	if agg.Meals, err = collect(br, scanMeal); err != nil {
		return nil, fmt.Errorf("meals: %w", err)
	}
	if agg.Activities, err = collect(br, scanActivity); err != nil {
		return nil, fmt.Errorf("activities: %w", err)
	}
	if agg.Goals, err = collect(br, scanGoal); err != nil {
		return nil, fmt.Errorf("goals: %w", err)
	}

	wp := &agg.WorkoutPatterns
	if err := br.QueryRow().Scan(&wp.SessionsPerWeek, &wp.AvgDurationMin, &wp.FavoriteTypes); err != nil {
		return nil, fmt.Errorf("workout patterns: %w", err)
	}
	np := &agg.NutritionPatterns
	if err := br.QueryRow().Scan(&np.AvgDailyCalories, &np.AvgDailyProtein, &np.CommonMealTypes); err != nil {
		return nil, fmt.Errorf("nutrition patterns: %w", err)
	}

	return agg, nil
}

func (s *UserDataStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx, `SELECT id FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}

// UpsertProfile creates the user or replaces its profile fields.
func (s *UserDataStore) UpsertProfile(ctx context.Context, p *domain.Profile) error {
	if p.UserID == uuid.Nil {
		p.UserID = uuid.New()
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO users (id, display_name, age, sex, height_cm, weight_kg, fitness_level, timezone)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (id) DO UPDATE SET
		   display_name = EXCLUDED.display_name, age = EXCLUDED.age, sex = EXCLUDED.sex,
		   height_cm = EXCLUDED.height_cm, weight_kg = EXCLUDED.weight_kg,
		   fitness_level = EXCLUDED.fitness_level, timezone = EXCLUDED.timezone, updated_at = NOW()
		 RETURNING updated_at`,
		p.UserID, p.DisplayName, p.Age, p.Sex, p.HeightCm, p.WeightKg, p.FitnessLevel, p.Timezone,
	).Scan(&p.UpdatedAt)
}

func (s *UserDataStore) CreateGoal(ctx context.Context, g *domain.Goal) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO goals (user_id, type, title, target_value, unit, priority, is_active, deadline)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id, created_at`,
		g.UserID, g.Type, g.Title, g.TargetValue, g.Unit, g.Priority, g.IsActive, g.Deadline,
	).Scan(&g.ID, &g.CreatedAt)
}

func (s *UserDataStore) CreateWorkout(ctx context.Context, w *domain.Workout) error {
	exercises := w.Exercises
	if exercises == nil {
		exercises = []string{}
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO workouts (user_id, type, name, duration_min, completed, exercises, performed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		w.UserID, w.Type, w.Name, w.DurationMin, w.Completed, exercises, w.PerformedAt,
	).Scan(&w.ID)
}

// collect reads the next batch result into a slice. The result is never nil.
func collect[T any](br pgx.BatchResults, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	rows, err := br.Query()
	if err != nil {
		return nil, err
	}
	out, err := pgx.CollectRows(rows, scan)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func scanWorkout(row pgx.CollectableRow) (domain.Workout, error) {
	var w domain.Workout
	err := row.Scan(&w.ID, &w.UserID, &w.Type, &w.Name, &w.DurationMin, &w.Completed, &w.Exercises, &w.PerformedAt)
	return w, err
}

func scanMeal(row pgx.CollectableRow) (domain.Meal, error) {
	var m domain.Meal
	err := row.Scan(&m.ID, &m.UserID, &m.MealType, &m.Name, &m.Calories, &m.ProteinG, &m.CarbsG, &m.FatG, &m.EatenAt)
	return m, err
}

func scanActivity(row pgx.CollectableRow) (domain.Activity, error) {
	var a domain.Activity
	err := row.Scan(&a.ID, &a.UserID, &a.Type, &a.DurationMin, &a.DistanceKm, &a.HeartRateAvg, &a.Calories, &a.OccurredAt)
	return a, err
}

func scanGoal(row pgx.CollectableRow) (domain.Goal, error) {
	var g domain.Goal
	err := row.Scan(&g.ID, &g.UserID, &g.Type, &g.Title, &g.TargetValue, &g.Unit, &g.Priority, &g.IsActive, &g.Deadline, &g.CreatedAt)
	return g, err
}
