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

// psql builds Postgres-placeholder queries.
var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

// EventStore reads event rows by half-open time range and appends new ones.
type EventStore struct {
	db *pgxpool.Pool
}

func NewEventStore(db *pgxpool.Pool) *EventStore {
	return &EventStore{db: db}
}

func rangeQuery(columns, table, timeColumn string, userID uuid.UUID, start, end time.Time) sq.SelectBuilder {
	return psql.Select(columns).
		From(table).
		Where(sq.Eq{"user_id": userID}).
		Where(sq.GtOrEq{timeColumn: start}).
		Where(sq.Lt{timeColumn: end}).
		OrderBy(timeColumn)
}

func queryRows[T any](ctx context.Context, db *pgxpool.Pool, q sq.Sqlizer, scan func(pgx.CollectableRow) (T, error)) ([]T, error) {
	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}
	rows, err := db.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, scan)
}

func (s *EventStore) ListActivities(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Activity, error) {
	return queryRows(ctx, s.db, rangeQuery(activityColumns, "activities", "occurred_at", userID, start, end), scanActivity)
}

func (s *EventStore) ListMeals(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Meal, error) {
	return queryRows(ctx, s.db, rangeQuery(mealColumns, "meals", "eaten_at", userID, start, end), scanMeal)
}

func (s *EventStore) ListMilestones(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Milestone, error) {
	q := rangeQuery("id, user_id, kind, title, occurred_at", "milestones", "occurred_at", userID, start, end)
	return queryRows(ctx, s.db, q, func(row pgx.CollectableRow) (domain.Milestone, error) {
		var m domain.Milestone
		err := row.Scan(&m.ID, &m.UserID, &m.Kind, &m.Title, &m.OccurredAt)
		return m, err
	})
}

func (s *EventStore) CreateMeal(ctx context.Context, m *domain.Meal) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO meals (user_id, meal_type, name, calories, protein_g, carbs_g, fat_g, eaten_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING id`,
		m.UserID, m.MealType, m.Name, m.Calories, m.ProteinG, m.CarbsG, m.FatG, m.EatenAt,
	).Scan(&m.ID)
}

func (s *EventStore) CreateActivity(ctx context.Context, a *domain.Activity) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO activities (user_id, type, duration_min, distance_km, heart_rate_avg, calories, occurred_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id`,
		a.UserID, a.Type, a.DurationMin, a.DistanceKm, a.HeartRateAvg, a.Calories, a.OccurredAt,
	).Scan(&a.ID)
}

func (s *EventStore) CreateMilestone(ctx context.Context, m *domain.Milestone) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO milestones (user_id, kind, title, occurred_at) VALUES ($1, $2, $3, $4) RETURNING id`,
		m.UserID, m.Kind, m.Title, m.OccurredAt,
	).Scan(&m.ID)
}
