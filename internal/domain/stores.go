package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// UserDataStore serves the primary context fetch.
type UserDataStore interface {
	GetUserAggregate(ctx context.Context, userID uuid.UUID, limit int) (*UserAggregate, error)
	ListUserIDs(ctx context.Context) ([]uuid.UUID, error)
}

// EventStore reads append-only event rows by time range. end is exclusive.
type EventStore interface {
	ListActivities(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Activity, error)
	ListMeals(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Meal, error)
	ListMilestones(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]Milestone, error)
}

type MemoryFactStore interface {
	Create(ctx context.Context, f *MemoryFact) error
	List(ctx context.Context, userID uuid.UUID, q FactQuery) ([]MemoryFact, error)
	ListActiveByType(ctx context.Context, userID uuid.UUID, factType FactType) ([]MemoryFact, error)
	Update(ctx context.Context, f *MemoryFact) error
	Deactivate(ctx context.Context, id uuid.UUID) error
}

type ConversationSummaryStore interface {
	Create(ctx context.Context, s *ConversationSummary) error
	ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]ConversationSummary, error)
}

type PreferenceProfileStore interface {
	Get(ctx context.Context, userID uuid.UUID) (*PreferenceProfile, error)
	Upsert(ctx context.Context, p *PreferenceProfile) error
}

type PeriodSummaryStore interface {
	Upsert(ctx context.Context, s *PeriodSummary) error
	List(ctx context.Context, userID uuid.UUID, periodType PeriodType, start, end time.Time) ([]PeriodSummary, error)
}
