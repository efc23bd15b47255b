package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultSummarizerSchedule    = "0 3 * * *"
	DefaultSummarizerConcurrency = 4
	summarizerRunTimeout         = 30 * time.Minute
	upsertMaxRetries             = 4
)

// SummarizerResult reports one batch run. SummariesCreated counts successful
// upserts, including ones that overwrote an existing period.
type SummarizerResult struct {
	Processed        int `json:"processed"`
	Errors           int `json:"errors"`
	SummariesCreated int `json:"summaries_created"`
}

// PeriodSummarizer rolls raw events into weekly summaries, weeklies into
// monthlies and monthlies into quarterlies. Every write is an upsert on the
// period's natural key, so runs may be repeated or overlap.
type PeriodSummarizer struct {
	users       domain.UserDataStore
	events      domain.EventStore
	periods     domain.PeriodSummaryStore
	concurrency int
	schedule    string
	logger      *zap.Logger

	newBackOff func() backoff.BackOff

	mu   sync.Mutex
	cron *cron.Cron
}

func NewPeriodSummarizer(users domain.UserDataStore, events domain.EventStore, periods domain.PeriodSummaryStore, concurrency int, schedule string, logger *zap.Logger) *PeriodSummarizer {
	if concurrency <= 0 {
		concurrency = DefaultSummarizerConcurrency
	}
	if schedule == "" {
		schedule = DefaultSummarizerSchedule
	}
	return &PeriodSummarizer{
		users:       users,
		events:      events,
		periods:     periods,
		concurrency: concurrency,
		schedule:    schedule,
		logger:      logger,
		newBackOff:  defaultUpsertBackOff,
	}
}

func defaultUpsertBackOff() backoff.BackOff {
	eb := backoff.NewExponentialBackOff()
	eb.InitialInterval = 200 * time.Millisecond
	eb.MaxInterval = 5 * time.Second
	eb.MaxElapsedTime = 30 * time.Second
	eb.Reset()
	return backoff.WithMaxRetries(eb, upsertMaxRetries)
}

// Start schedules Run on the configured cron expression. Overlapping ticks are skipped.
func (s *PeriodSummarizer) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithChain(cron.SkipIfStillRunning(cron.PrintfLogger(zap.NewStdLog(s.logger)))),
	)
	if _, err := c.AddFunc(s.schedule, s.runScheduled); err != nil {
		return fmt.Errorf("invalid summarizer schedule %q: %w", s.schedule, err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("period summarizer started", zap.String("schedule", s.schedule))
	return nil
}

// Stop waits for a running batch to finish.
func (s *PeriodSummarizer) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.logger.Info("period summarizer stopped")
}

func (s *PeriodSummarizer) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), summarizerRunTimeout)
	defer cancel()

	if _, err := s.Run(ctx, time.Now()); err != nil {
		s.logger.Error("scheduled period summary run failed", zap.Error(err))
	}
}

// Run summarizes every known user as of now. It fails only when the user list
// cannot be read; per-user failures are logged and counted.
func (s *PeriodSummarizer) Run(ctx context.Context, now time.Time) (*SummarizerResult, error) {
	userIDs, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users for period summaries: %w", err)
	}

	var (
		mu     sync.Mutex
		result SummarizerResult
	)
	g := new(errgroup.Group)
	g.SetLimit(s.concurrency)

	for _, userID := range userIDs {
		g.Go(func() error {
			created, err := s.summarizeUser(ctx, userID, now)

			mu.Lock()
			defer mu.Unlock()
			result.Processed++
			result.SummariesCreated += created
			if err != nil {
				result.Errors++
				s.logger.Warn("period summary failed for user",
					zap.String("user_id", userID.String()),
					zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("period summaries complete",
		zap.Time("as_of", now),
		zap.Int("processed", result.Processed),
		zap.Int("errors", result.Errors),
		zap.Int("summaries", result.SummariesCreated))

	return &result, nil
}

// summarizeUser returns the number of summaries written before any error.
func (s *PeriodSummarizer) summarizeUser(ctx context.Context, userID uuid.UUID, now time.Time) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	created := 0

	weekly, err := s.weeklySummary(ctx, userID, now)
	if err != nil {
		return created, err
	}
	if err := s.upsert(ctx, weekly); err != nil {
		return created, err
	}
	created++

	if isFirstOfMonth(now) {
		start, end := previousMonth(now)
		from, to := weeksEndingIn(start, end)
		monthly, err := s.rollup(ctx, userID, domain.PeriodWeekly, domain.PeriodMonthly, from, to, start, end)
		if err != nil {
			return created, err
		}
		milestones, err := s.events.ListMilestones(ctx, userID, start, end)
		if err != nil {
			return created, fmt.Errorf("list milestones: %w", err)
		}
		foldMilestones(monthly, milestones)
		if err := s.upsert(ctx, monthly); err != nil {
			return created, err
		}
		created++
	}

	if isFirstOfQuarter(now) {
		start, end := previousQuarter(now)
		quarterly, err := s.rollup(ctx, userID, domain.PeriodMonthly, domain.PeriodQuarterly, start, end, start, end)
		if err != nil {
			return created, err
		}
		if err := s.upsert(ctx, quarterly); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}

func (s *PeriodSummarizer) weeklySummary(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.PeriodSummary, error) {
	start, end := lastCompletedWeek(now)

	activities, err := s.events.ListActivities(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	meals, err := s.events.ListMeals(ctx, userID, start, end)
	if err != nil {
		return nil, fmt.Errorf("list meals: %w", err)
	}

	return &domain.PeriodSummary{
		UserID:           userID,
		PeriodType:       domain.PeriodWeekly,
		PeriodStart:      start,
		PeriodEnd:        end,
		ActivitySummary:  SummarizeActivityEvents(activities),
		NutritionSummary: SummarizeMealEvents(meals),
		KeyAchievements:  []string{},
		ChallengesFaced:  []string{},
	}, nil
}

// rollup aggregates child summaries whose start falls in [from, to) into a
// summary covering [start, end).
func (s *PeriodSummarizer) rollup(ctx context.Context, userID uuid.UUID, childType, periodType domain.PeriodType, from, to, start, end time.Time) (*domain.PeriodSummary, error) {
	children, err := s.periods.List(ctx, userID, childType, from, to)
	if err != nil {
		return nil, fmt.Errorf("list %s summaries: %w", childType, err)
	}
	return AggregatePeriodSummaries(userID, periodType, start, end, children), nil
}

func (s *PeriodSummarizer) upsert(ctx context.Context, ps *domain.PeriodSummary) error {
	op := func() error {
		err := s.periods.Upsert(ctx, ps)
		if err != nil && ctx.Err() != nil {
			return backoff.Permanent(err)
		}
		return err
	}
	if err := backoff.Retry(op, backoff.WithContext(s.newBackOff(), ctx)); err != nil {
		return fmt.Errorf("upsert %s summary starting %s: %w", ps.PeriodType, ps.PeriodStart.Format(time.DateOnly), err)
	}
	return nil
}
