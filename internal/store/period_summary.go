package store

import (
	"context"
	"fmt"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PeriodSummaryStore struct {
	db *pgxpool.Pool
}

func NewPeriodSummaryStore(db *pgxpool.Pool) *PeriodSummaryStore {
	return &PeriodSummaryStore{db: db}
}

// Upsert writes the summary keyed by (user, type, start, end). Re-running a
// period overwrites the aggregates and keeps the original id and created_at.
func (s *PeriodSummaryStore) Upsert(ctx context.Context, ps *domain.PeriodSummary) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO period_summaries (user_id, period_type, period_start, period_end, activity_summary, nutrition_summary, key_achievements, challenges_faced)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, period_type, period_start, period_end) DO UPDATE SET
		   activity_summary = EXCLUDED.activity_summary,
		   nutrition_summary = EXCLUDED.nutrition_summary,
		   key_achievements = EXCLUDED.key_achievements,
		   challenges_faced = EXCLUDED.challenges_faced,
		   updated_at = NOW()
		 RETURNING id, created_at, updated_at`,
		ps.UserID, ps.PeriodType, ps.PeriodStart, ps.PeriodEnd, ps.ActivitySummary, ps.NutritionSummary,
		nonNil(ps.KeyAchievements), nonNil(ps.ChallengesFaced),
	).Scan(&ps.ID, &ps.CreatedAt, &ps.UpdatedAt)
}

// List returns summaries of periodType whose start falls in [start, end), oldest first.
// A zero end means no upper bound.
func (s *PeriodSummaryStore) List(ctx context.Context, userID uuid.UUID, periodType domain.PeriodType, start, end time.Time) ([]domain.PeriodSummary, error) {
	b := psql.Select("id, user_id, period_type, period_start, period_end, activity_summary, nutrition_summary, key_achievements, challenges_faced, created_at, updated_at").
		From("period_summaries").
		Where(sq.Eq{"user_id": userID, "period_type": string(periodType)}).
		Where(sq.GtOrEq{"period_start": start}).
		OrderBy("period_start")
	if !end.IsZero() {
		b = b.Where(sq.Lt{"period_start": end})
	}

	out, err := queryRows(ctx, s.db, b, func(row pgx.CollectableRow) (domain.PeriodSummary, error) {
		var ps domain.PeriodSummary
		err := row.Scan(&ps.ID, &ps.UserID, &ps.PeriodType, &ps.PeriodStart, &ps.PeriodEnd, &ps.ActivitySummary, &ps.NutritionSummary,
			&ps.KeyAchievements, &ps.ChallengesFaced, &ps.CreatedAt, &ps.UpdatedAt)
		ps.PeriodStart = ps.PeriodStart.UTC()
		ps.PeriodEnd = ps.PeriodEnd.UTC()
		return ps, err
	})
	if err != nil {
		return nil, fmt.Errorf("list %s summaries: %w", periodType, err)
	}
	return out, nil
}
