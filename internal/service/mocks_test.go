package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/google/uuid"
)

// mockFactStore implements domain.MemoryFactStore for testing.
type mockFactStore struct {
	mu          sync.Mutex
	facts       map[uuid.UUID]*domain.MemoryFact
	listErr     error
	createCalls int
	updateCalls int
}

func newMockFactStore() *mockFactStore {
	return &mockFactStore{facts: make(map[uuid.UUID]*domain.MemoryFact)}
}

func (m *mockFactStore) Create(ctx context.Context, f *domain.MemoryFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	f.ID = uuid.New()
	f.CreatedAt = time.Now()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	m.facts[f.ID] = &cp
	return nil
}

func (m *mockFactStore) List(ctx context.Context, userID uuid.UUID, q domain.FactQuery) ([]domain.MemoryFact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listErr != nil {
		return nil, m.listErr
	}
	var out []domain.MemoryFact
	for _, f := range m.facts {
		if f.UserID != userID {
			continue
		}
		if q.ActiveOnly && !f.IsActive {
			continue
		}
		if q.MinConfidence != nil && f.Confidence < *q.MinConfidence {
			continue
		}
		if len(q.Types) > 0 && !containsFactType(q.Types, f.FactType) {
			continue
		}
		out = append(out, *f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Confidence > out[j].Confidence })
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

func containsFactType(types []domain.FactType, t domain.FactType) bool {
	for _, x := range types {
		if x == t {
			return true
		}
	}
	return false
}

func (m *mockFactStore) ListActiveByType(ctx context.Context, userID uuid.UUID, factType domain.FactType) ([]domain.MemoryFact, error) {
	return m.List(ctx, userID, domain.FactQuery{ActiveOnly: true, Types: []domain.FactType{factType}})
}

func (m *mockFactStore) Update(ctx context.Context, f *domain.MemoryFact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.facts[f.ID]; !ok {
		return store.ErrNotFound
	}
	m.updateCalls++
	cp := *f
	m.facts[f.ID] = &cp
	return nil
}

func (m *mockFactStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	f, ok := m.facts[id]
	if !ok {
		return store.ErrNotFound
	}
	f.IsActive = false
	return nil
}

func (m *mockFactStore) all() []domain.MemoryFact {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]domain.MemoryFact, 0, len(m.facts))
	for _, f := range m.facts {
		out = append(out, *f)
	}
	return out
}

// mockSummaryStore implements domain.ConversationSummaryStore for testing.
type mockSummaryStore struct {
	mu        sync.Mutex
	summaries []domain.ConversationSummary
	err       error
}

func (m *mockSummaryStore) Create(ctx context.Context, s *domain.ConversationSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	s.ID = uuid.New()
	s.CreatedAt = time.Now()
	m.summaries = append(m.summaries, *s)
	return nil
}

func (m *mockSummaryStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	var out []domain.ConversationSummary
	for i := len(m.summaries) - 1; i >= 0; i-- {
		if m.summaries[i].UserID == userID {
			out = append(out, m.summaries[i])
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

// mockProfileStore implements domain.PreferenceProfileStore for testing.
type mockProfileStore struct {
	mu          sync.Mutex
	profiles    map[uuid.UUID]domain.PreferenceProfile
	getErr      error
	upsertCalls int
}

func newMockProfileStore() *mockProfileStore {
	return &mockProfileStore{profiles: make(map[uuid.UUID]domain.PreferenceProfile)}
}

func (m *mockProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return nil, m.getErr
	}
	p, ok := m.profiles[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &p, nil
}

func (m *mockProfileStore) Upsert(ctx context.Context, p *domain.PreferenceProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	m.profiles[p.UserID] = *p
	return nil
}

// mockUserDataStore implements domain.UserDataStore for testing.
type mockUserDataStore struct {
	aggregates map[uuid.UUID]*domain.UserAggregate
	err        error
	delay      time.Duration
	lastLimit  int
}

func newMockUserDataStore() *mockUserDataStore {
	return &mockUserDataStore{aggregates: make(map[uuid.UUID]*domain.UserAggregate)}
}

func (m *mockUserDataStore) GetUserAggregate(ctx context.Context, userID uuid.UUID, limit int) (*domain.UserAggregate, error) {
	m.lastLimit = limit
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.err != nil {
		return nil, m.err
	}
	agg, ok := m.aggregates[userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return agg, nil
}

func (m *mockUserDataStore) ListUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	if m.err != nil {
		return nil, m.err
	}
	ids := make([]uuid.UUID, 0, len(m.aggregates))
	for id := range m.aggregates {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// mockEventStore implements domain.EventStore for testing.
type mockEventStore struct {
	activities map[uuid.UUID][]domain.Activity
	meals      map[uuid.UUID][]domain.Meal
	milestones map[uuid.UUID][]domain.Milestone
	failUsers  map[uuid.UUID]error
}

func newMockEventStore() *mockEventStore {
	return &mockEventStore{
		activities: make(map[uuid.UUID][]domain.Activity),
		meals:      make(map[uuid.UUID][]domain.Meal),
		milestones: make(map[uuid.UUID][]domain.Milestone),
		failUsers:  make(map[uuid.UUID]error),
	}
}

func inRange(t, start, end time.Time) bool {
	return !t.Before(start) && t.Before(end)
}

func (m *mockEventStore) ListActivities(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Activity, error) {
	if err := m.failUsers[userID]; err != nil {
		return nil, err
	}
	var out []domain.Activity
	for _, a := range m.activities[userID] {
		if inRange(a.OccurredAt, start, end) {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockEventStore) ListMeals(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Meal, error) {
	if err := m.failUsers[userID]; err != nil {
		return nil, err
	}
	var out []domain.Meal
	for _, meal := range m.meals[userID] {
		if inRange(meal.EatenAt, start, end) {
			out = append(out, meal)
		}
	}
	return out, nil
}

func (m *mockEventStore) ListMilestones(ctx context.Context, userID uuid.UUID, start, end time.Time) ([]domain.Milestone, error) {
	if err := m.failUsers[userID]; err != nil {
		return nil, err
	}
	var out []domain.Milestone
	for _, ms := range m.milestones[userID] {
		if inRange(ms.OccurredAt, start, end) {
			out = append(out, ms)
		}
	}
	return out, nil
}

type periodKey struct {
	userID     uuid.UUID
	periodType domain.PeriodType
	start, end time.Time
}

// mockPeriodStore implements domain.PeriodSummaryStore with the natural-key upsert.
type mockPeriodStore struct {
	mu          sync.Mutex
	rows        map[periodKey]domain.PeriodSummary
	upsertCalls int
	failNext    int
	failErr     error
}

func newMockPeriodStore() *mockPeriodStore {
	return &mockPeriodStore{rows: make(map[periodKey]domain.PeriodSummary)}
}

func (m *mockPeriodStore) Upsert(ctx context.Context, s *domain.PeriodSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.upsertCalls++
	if m.failNext > 0 {
		m.failNext--
		return m.failErr
	}
	key := periodKey{s.UserID, s.PeriodType, s.PeriodStart.UTC(), s.PeriodEnd.UTC()}
	now := time.Now()
	if existing, ok := m.rows[key]; ok {
		s.ID = existing.ID
		s.CreatedAt = existing.CreatedAt
	} else {
		s.ID = uuid.New()
		s.CreatedAt = now
	}
	s.UpdatedAt = now
	m.rows[key] = *s
	return nil
}

func (m *mockPeriodStore) List(ctx context.Context, userID uuid.UUID, periodType domain.PeriodType, start, end time.Time) ([]domain.PeriodSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PeriodSummary
	for k, s := range m.rows {
		if k.userID == userID && k.periodType == periodType && inRange(k.start, start, end) {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PeriodStart.Before(out[j].PeriodStart) })
	return out, nil
}

func (m *mockPeriodStore) count(userID uuid.UUID, periodType domain.PeriodType) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for k := range m.rows {
		if k.userID == userID && k.periodType == periodType {
			n++
		}
	}
	return n
}
