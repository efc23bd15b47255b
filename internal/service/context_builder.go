package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultContextFetchLimit     = 20
	DefaultSecondaryFetchTimeout = 2 * time.Second
	contextFactLimit             = 50
	contextSummaryLimit          = 5
	profileBootstrapFactLimit    = 200
)

// ContextBuilder assembles a UserContextSnapshot from one primary aggregate read and
// several secondary reads issued concurrently.
type ContextBuilder struct {
	users            domain.UserDataStore
	facts            domain.MemoryFactStore
	summaries        domain.ConversationSummaryStore
	profiles         domain.PreferenceProfileStore
	fetchLimit       int
	secondaryTimeout time.Duration
	logger           *zap.Logger
	now              func() time.Time
}

func NewContextBuilder(
	users domain.UserDataStore,
	facts domain.MemoryFactStore,
	summaries domain.ConversationSummaryStore,
	profiles domain.PreferenceProfileStore,
	fetchLimit int,
	secondaryTimeout time.Duration,
	logger *zap.Logger,
) *ContextBuilder {
	if fetchLimit <= 0 {
		fetchLimit = DefaultContextFetchLimit
	}
	if secondaryTimeout <= 0 {
		secondaryTimeout = DefaultSecondaryFetchTimeout
	}
	return &ContextBuilder{
		users:            users,
		facts:            facts,
		summaries:        summaries,
		profiles:         profiles,
		fetchLimit:       fetchLimit,
		secondaryTimeout: secondaryTimeout,
		logger:           logger,
		now:              time.Now,
	}
}

// BuildContext fails only when the primary aggregate fetch fails. Secondary fetch
// failures and timeouts leave that field at its empty default.
func (b *ContextBuilder) BuildContext(ctx context.Context, userID uuid.UUID) (*domain.UserContextSnapshot, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDMissing
	}

	var (
		agg       *domain.UserAggregate
		facts     []domain.MemoryFact
		summaries []domain.ConversationSummary
		profile   *domain.PreferenceProfile
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a, err := b.users.GetUserAggregate(gctx, userID, b.fetchLimit)
		if err != nil {
			return fmt.Errorf("%w: %w", ErrContextFetchFailed, err)
		}
		agg = a
		return nil
	})
	g.Go(func() error {
		facts = fetchSecondary(gctx, b, userID, "memory_facts", func(ctx context.Context) ([]domain.MemoryFact, error) {
			return b.GetMemoryFacts(ctx, userID, contextFactLimit, nil)
		})
		return nil
	})
	g.Go(func() error {
		summaries = fetchSecondary(gctx, b, userID, "conversation_summaries", func(ctx context.Context) ([]domain.ConversationSummary, error) {
			return b.GetRecentConversationSummaries(ctx, userID, contextSummaryLimit)
		})
		return nil
	})
	g.Go(func() error {
		profile = fetchSecondary(gctx, b, userID, "preference_profile", func(ctx context.Context) (*domain.PreferenceProfile, error) {
			return b.GetPreferenceProfile(ctx, userID)
		})
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &domain.UserContextSnapshot{
		Profile:               agg.Profile,
		RecentWorkouts:        newestWorkouts(agg.Workouts, b.fetchLimit),
		RecentMeals:           newestMeals(agg.Meals, b.fetchLimit),
		RecentActivities:      newestActivities(agg.Activities, b.fetchLimit),
		Goals:                 agg.Goals,
		WorkoutPatterns:       agg.WorkoutPatterns,
		NutritionPatterns:     agg.NutritionPatterns,
		MemoryFacts:           facts,
		ConversationSummaries: summaries,
	}
	if profile != nil {
		snap.PreferenceProfile = *profile
	} else {
		snap.PreferenceProfile = *domain.NewPreferenceProfile(userID)
	}
	snap.LongTermTrends = ComputeLongTermTrends(agg.Workouts, agg.Meals, agg.Activities, agg.Goals, b.now())
	snap.Normalize()

	b.logger.Debug("context built",
		zap.String("user_id", userID.String()),
		zap.Int("workouts", len(snap.RecentWorkouts)),
		zap.Int("meals", len(snap.RecentMeals)),
		zap.Int("facts", len(snap.MemoryFacts)))

	return snap, nil
}

func fetchSecondary[T any](ctx context.Context, b *ContextBuilder, userID uuid.UUID, field string, fetch func(context.Context) (T, error)) T {
	ctx, cancel := context.WithTimeout(ctx, b.secondaryTimeout)
	defer cancel()

	v, err := fetch(ctx)
	if err != nil {
		b.logger.Warn("secondary context fetch failed, using default",
			zap.String("user_id", userID.String()),
			zap.String("field", field),
			zap.Error(err))
		var zero T
		return zero
	}
	return v
}

// GetMemoryFacts returns active facts ordered by confidence, highest first.
func (b *ContextBuilder) GetMemoryFacts(ctx context.Context, userID uuid.UUID, limit int, minConfidence *float64) ([]domain.MemoryFact, error) {
	facts, err := b.facts.List(ctx, userID, domain.FactQuery{
		Limit:         limit,
		MinConfidence: minConfidence,
		ActiveOnly:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("list memory facts: %w", err)
	}
	sort.SliceStable(facts, func(i, j int) bool { return facts[i].Confidence > facts[j].Confidence })
	if facts == nil {
		facts = []domain.MemoryFact{}
	}
	return facts, nil
}

func (b *ContextBuilder) GetRecentConversationSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationSummary, error) {
	summaries, err := b.summaries.ListRecent(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("list conversation summaries: %w", err)
	}
	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].CreatedAt.After(summaries[j].CreatedAt) })
	if summaries == nil {
		summaries = []domain.ConversationSummary{}
	}
	return summaries, nil
}

// GetPreferenceProfile returns the stored profile, building and storing one from
// active facts the first time it is requested.
func (b *ContextBuilder) GetPreferenceProfile(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	p, err := b.profiles.Get(ctx, userID)
	if err == nil {
		p.Normalize()
		return p, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("get preference profile: %w", err)
	}

	facts, err := b.facts.List(ctx, userID, domain.FactQuery{Limit: profileBootstrapFactLimit, ActiveOnly: true})
	if err != nil {
		return nil, fmt.Errorf("list facts for preference profile: %w", err)
	}
	p = BuildPreferenceProfile(userID, facts)
	p.UpdatedAt = b.now().UTC()
	if err := b.profiles.Upsert(ctx, p); err != nil {
		b.logger.Warn("failed to store built preference profile",
			zap.String("user_id", userID.String()),
			zap.Error(err))
	}
	return p, nil
}

func newestWorkouts(ws []domain.Workout, limit int) []domain.Workout {
	out := append([]domain.Workout(nil), ws...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].PerformedAt.After(out[j].PerformedAt) })
	return capSlice(out, limit)
}

func newestMeals(ms []domain.Meal, limit int) []domain.Meal {
	out := append([]domain.Meal(nil), ms...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].EatenAt.After(out[j].EatenAt) })
	return capSlice(out, limit)
}

func newestActivities(as []domain.Activity, limit int) []domain.Activity {
	out := append([]domain.Activity(nil), as...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return capSlice(out, limit)
}

func capSlice[T any](xs []T, n int) []T {
	if n > 0 && len(xs) > n {
		return xs[:n]
	}
	return xs
}
