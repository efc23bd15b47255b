package store

import (
	"context"
	"errors"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PreferenceProfileStore keeps one row per user. Nested sections are JSONB.
type PreferenceProfileStore struct {
	db *pgxpool.Pool
}

func NewPreferenceProfileStore(db *pgxpool.Pool) *PreferenceProfileStore {
	return &PreferenceProfileStore{db: db}
}

func (s *PreferenceProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	p := &domain.PreferenceProfile{}
	err := s.db.QueryRow(ctx,
		`SELECT user_id, workout_preferences, nutrition_preferences, communication_style, constraints, motivators, updated_at
		 FROM preference_profiles WHERE user_id = $1`,
		userID,
	).Scan(&p.UserID, &p.WorkoutPreferences, &p.NutritionPreferences, &p.CommunicationStyle, &p.Constraints, &p.Motivators, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	p.Normalize()
	return p, nil
}

func (s *PreferenceProfileStore) Upsert(ctx context.Context, p *domain.PreferenceProfile) error {
	p.Normalize()
	return s.db.QueryRow(ctx,
		`INSERT INTO preference_profiles (user_id, workout_preferences, nutrition_preferences, communication_style, constraints, motivators, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, COALESCE($7, NOW()))
		 ON CONFLICT (user_id) DO UPDATE SET
		   workout_preferences = EXCLUDED.workout_preferences,
		   nutrition_preferences = EXCLUDED.nutrition_preferences,
		   communication_style = EXCLUDED.communication_style,
		   constraints = EXCLUDED.constraints,
		   motivators = EXCLUDED.motivators,
		   updated_at = EXCLUDED.updated_at
		 RETURNING updated_at`,
		p.UserID, p.WorkoutPreferences, p.NutritionPreferences, p.CommunicationStyle, p.Constraints, p.Motivators, nullTime(p.UpdatedAt),
	).Scan(&p.UpdatedAt)
}
