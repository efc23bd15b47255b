package service

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/tokenizer"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultTokenBudget  = 2000
	FactConfidenceFloor = 0.5
	maxRecentWorkouts   = 10
	maxTodaysMeals      = 10
	maxRelevantFacts    = 5
	queryRelevanceBoost = 0.3
)

// queryDomains groups keywords by topic. A query selects every domain it mentions,
// and facts mentioning the same domain are boosted.
var queryDomains = map[string][]string{
	"nutrition": {"eat", "food", "meal", "diet", "calorie", "protein", "carb", "fat", "snack", "breakfast", "lunch", "dinner",
		"nutrition", "recipe", "hungry", "allerg", "vegan", "vegetarian", "gluten", "dairy", "keto", "macro", "drink"},
	"workout": {"workout", "exercise", "train", "lift", "gym", "squat", "deadlift", "bench", "run", "cardio", "routine",
		"program", "session", "reps", "sets", "hiit", "yoga", "burpee", "pushup", "pullup", "swim", "cycl"},
	"injury":   {"pain", "hurt", "injur", "sore", "knee", "back", "shoulder", "ankle", "wrist", "hip", "recover", "rest", "sprain"},
	"schedule": {"morning", "evening", "afternoon", "night", "schedule", "weekend", "weekday", "time", "when", "day"},
	"goals":    {"goal", "target", "lose", "gain", "weight", "progress", "marathon", "muscle", "strength"},
}

// CompressOptions carry the optional relevance query and the clock used to
// derive today's meals. A zero Now means time.Now.
type CompressOptions struct {
	Query string
	Now   time.Time
}

// ContextCompressor reduces a snapshot to a CompressedContext that fits a token budget.
type ContextCompressor struct {
	estimator tokenizer.Estimator
	logger    *zap.Logger
}

func NewContextCompressor(estimator tokenizer.Estimator, logger *zap.Logger) *ContextCompressor {
	if estimator == nil {
		estimator = tokenizer.JSONEstimator{}
	}
	return &ContextCompressor{estimator: estimator, logger: logger}
}

// CompressContext filters, ranks, summarizes and then sheds whole items until the
// estimate fits tokenBudget. The same input always yields the same output.
func (c *ContextCompressor) CompressContext(snap *domain.UserContextSnapshot, tokenBudget int, opts CompressOptions) (*domain.CompressedContext, error) {
	if tokenBudget <= 0 {
		tokenBudget = DefaultTokenBudget
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	loc := userLocation(snap.Profile.Timezone)
	now = now.In(loc)

	workouts := newestWorkouts(localWorkouts(snap.RecentWorkouts, loc), 0)
	meals := newestMeals(localMeals(snap.RecentMeals, loc), 0)
	goals, todaysMeals := PrioritizeContext(snap.Goals, meals, now)

	out := &domain.CompressedContext{
		Profile:          snap.Profile,
		CurrentGoals:     goals,
		RelevantFacts:    SelectRelevantFacts(snap.MemoryFacts, opts.Query),
		RecentWorkouts:   capSlice(workouts, maxRecentWorkouts),
		WorkoutSummary:   SummarizeWorkouts(workouts),
		NutritionSummary: SummarizeNutrition(meals),
		ActivitySummary:  SummarizeActivities(snap.RecentActivities),
		TodaysMeals:      capSlice(todaysMeals, maxTodaysMeals),
	}
	normalizeCompressed(out)

	before := c.estimator.Estimate(out)
	if err := c.fitBudget(out, tokenBudget); err != nil {
		return nil, fmt.Errorf("compress context for budget %d: %w", tokenBudget, err)
	}

	c.logger.Debug("context compressed",
		zap.String("user_id", snap.Profile.UserID.String()),
		zap.Int("budget", tokenBudget),
		zap.Int("tokens_before_shedding", before),
		zap.Int("tokens", out.EstimatedTokens),
		zap.Int("facts", len(out.RelevantFacts)))

	return out, nil
}

func normalizeCompressed(out *domain.CompressedContext) {
	if out.CurrentGoals == nil {
		out.CurrentGoals = []domain.Goal{}
	}
	if out.RelevantFacts == nil {
		out.RelevantFacts = []domain.MemoryFact{}
	}
	if out.RecentWorkouts == nil {
		out.RecentWorkouts = []domain.Workout{}
	}
	if out.TodaysMeals == nil {
		out.TodaysMeals = []domain.Meal{}
	}
}

// shedStep removes up to count(c) items of one kind. drop must not mutate
// the backing arrays of c, so a trial can always restart from the same base.
type shedStep struct {
	count func(c *domain.CompressedContext) int
	drop  func(c *domain.CompressedContext, k int)
}

func trailing[T any](get func(*domain.CompressedContext) *[]T) shedStep {
	return shedStep{
		count: func(c *domain.CompressedContext) int { return len(*get(c)) },
		drop: func(c *domain.CompressedContext, k int) {
			xs := *get(c)
			keep := len(xs) - k
			*get(c) = xs[:keep:keep]
		},
	}
}

func trailingWhere[T any](get func(*domain.CompressedContext) *[]T, pred func(T) bool) shedStep {
	return shedStep{
		count: func(c *domain.CompressedContext) int { return lo.CountBy(*get(c), pred) },
		drop:  func(c *domain.CompressedContext, k int) { *get(c) = withoutLast(*get(c), k, pred) },
	}
}

func clearing(get func(*domain.CompressedContext) *string) shedStep {
	return shedStep{
		count: func(c *domain.CompressedContext) int {
			if *get(c) == "" {
				return 0
			}
			return 1
		},
		drop: func(c *domain.CompressedContext, _ int) { *get(c) = "" },
	}
}

var profileToIdentity = shedStep{
	count: func(c *domain.CompressedContext) int {
		if c.Profile == c.Profile.Identity() {
			return 0
		}
		return 1
	},
	drop: func(c *domain.CompressedContext, _ int) { c.Profile = c.Profile.Identity() },
}

// shedOrder lists what goes first when over budget. Constraint facts go last.
var shedOrder = []shedStep{
	trailing(func(c *domain.CompressedContext) *[]domain.Meal { return &c.TodaysMeals }),
	trailing(func(c *domain.CompressedContext) *[]domain.Workout { return &c.RecentWorkouts }),
	trailingWhere(func(c *domain.CompressedContext) *[]domain.MemoryFact { return &c.RelevantFacts },
		func(f domain.MemoryFact) bool { return !f.IsConstraint() }),
	trailingWhere(func(c *domain.CompressedContext) *[]domain.Goal { return &c.CurrentGoals },
		func(g domain.Goal) bool { return g.Priority != domain.GoalPriorityHigh }),
	clearing(func(c *domain.CompressedContext) *string { return &c.ActivitySummary }),
	clearing(func(c *domain.CompressedContext) *string { return &c.NutritionSummary }),
	clearing(func(c *domain.CompressedContext) *string { return &c.WorkoutSummary }),
	trailing(func(c *domain.CompressedContext) *[]domain.Goal { return &c.CurrentGoals }),
	profileToIdentity,
	trailing(func(c *domain.CompressedContext) *[]domain.MemoryFact { return &c.RelevantFacts }),
}

// fitBudget sheds items in shedOrder until the estimate fits. Within a step it
// binary-searches the fewest items to drop, which relies on removal never
// raising the estimate.
func (c *ContextCompressor) fitBudget(out *domain.CompressedContext, budget int) error {
	tokens := c.estimator.Estimate(out)
	for _, step := range shedOrder {
		if tokens <= budget {
			break
		}
		n := step.count(out)
		if n == 0 {
			continue
		}

		base := *out
		try := func(k int) (domain.CompressedContext, int) {
			trial := base
			step.drop(&trial, k)
			return trial, c.estimator.Estimate(&trial)
		}

		all, allTokens := try(n)
		if allTokens > budget {
			*out, tokens = all, allTokens
			continue
		}
		low, high := 1, n
		for low < high {
			mid := (low + high) / 2
			if _, t := try(mid); t <= budget {
				high = mid
			} else {
				low = mid + 1
			}
		}
		*out, tokens = try(low)
	}

	if tokens > budget {
		return ErrTokenBudgetTooSmall
	}
	out.EstimatedTokens = tokens
	return nil
}

// withoutLast returns a copy of xs without its last k elements matching pred.
func withoutLast[T any](xs []T, k int, pred func(T) bool) []T {
	drop := make([]bool, len(xs))
	for i := len(xs) - 1; i >= 0 && k > 0; i-- {
		if pred(xs[i]) {
			drop[i] = true
			k--
		}
	}
	out := make([]T, 0, len(xs))
	for i, x := range xs {
		if !drop[i] {
			out = append(out, x)
		}
	}
	return out
}

// SelectRelevantFacts drops inactive facts and non-constraint facts below
// FactConfidenceFloor, ranks by confidence plus a boost for facts in the query's
// domains, and keeps at most maxRelevantFacts non-constraint facts. Constraint
// facts are always kept.
func SelectRelevantFacts(facts []domain.MemoryFact, query string) []domain.MemoryFact {
	keywords := queryKeywords(query)

	type scored struct {
		fact  domain.MemoryFact
		score float64
	}
	candidates := lo.FilterMap(facts, func(f domain.MemoryFact, _ int) (scored, bool) {
		if !f.IsActive || (f.Confidence < FactConfidenceFloor && !f.IsConstraint()) {
			return scored{}, false
		}
		s := f.Confidence
		if len(keywords) > 0 && factMatches(f, keywords) {
			s += queryRelevanceBoost
		}
		return scored{fact: f, score: s}, true
	})

	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		if candidates[i].fact.Confidence != candidates[j].fact.Confidence {
			return candidates[i].fact.Confidence > candidates[j].fact.Confidence
		}
		return candidates[i].fact.UpdatedAt.After(candidates[j].fact.UpdatedAt)
	})

	out := make([]domain.MemoryFact, 0, min(len(candidates), maxRelevantFacts))
	kept := 0
	for _, c := range candidates {
		if c.fact.IsConstraint() {
			out = append(out, c.fact)
			continue
		}
		if kept < maxRelevantFacts {
			out = append(out, c.fact)
			kept++
		}
	}
	return out
}

// queryKeywords returns the keywords of every domain the query touches, plus the
// query's own longer words.
func queryKeywords(query string) []string {
	words := strings.Fields(normalizeFactContent(query))
	if len(words) == 0 {
		return nil
	}
	var keywords []string
	for _, domainWords := range queryDomains {
		if lo.SomeBy(domainWords, func(kw string) bool { return anyHasPrefix(words, kw) }) {
			keywords = append(keywords, domainWords...)
		}
	}
	for _, w := range words {
		if len(w) >= 4 && !stopWords[w] {
			keywords = append(keywords, w)
		}
	}
	return lo.Uniq(keywords)
}

var stopWords = map[string]bool{
	"what": true, "should": true, "would": true, "could": true, "about": true, "today": true, "with": true,
	"have": true, "this": true, "that": true, "there": true, "from": true, "your": true, "tell": true, "some": true,
}

// factMatches reports whether any word of the fact's content or metadata starts
// with one of keywords.
func factMatches(f domain.MemoryFact, keywords []string) bool {
	var sb strings.Builder
	sb.WriteString(f.Content)
	for k, v := range f.Metadata {
		sb.WriteByte(' ')
		sb.WriteString(k)
		sb.WriteByte(' ')
		sb.WriteString(v)
	}
	words := strings.Fields(normalizeFactContent(sb.String()))
	return lo.SomeBy(keywords, func(kw string) bool { return anyHasPrefix(words, kw) })
}

func anyHasPrefix(words []string, prefix string) bool {
	for _, w := range words {
		if strings.HasPrefix(w, prefix) {
			return true
		}
	}
	return false
}

// PrioritizeContext returns active goals with high priority first and the meals
// eaten on now's calendar day, in now's location.
func PrioritizeContext(goals []domain.Goal, meals []domain.Meal, now time.Time) ([]domain.Goal, []domain.Meal) {
	active := lo.Filter(goals, func(g domain.Goal, _ int) bool { return g.IsActive })
	sort.SliceStable(active, func(i, j int) bool {
		ri, rj := active[i].Priority.Rank(), active[j].Priority.Rank()
		if ri != rj {
			return ri < rj
		}
		di, dj := active[i].Deadline, active[j].Deadline
		switch {
		case di != nil && dj != nil:
			return di.Before(*dj)
		default:
			return di != nil && dj == nil
		}
	})

	y, m, d := now.Date()
	today := lo.Filter(meals, func(meal domain.Meal, _ int) bool {
		my, mm, md := meal.EatenAt.In(now.Location()).Date()
		return my == y && mm == m && md == d
	})
	return active, today
}

func userLocation(tz string) *time.Location {
	if tz == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return time.UTC
	}
	return loc
}

func localWorkouts(ws []domain.Workout, loc *time.Location) []domain.Workout {
	return lo.Map(ws, func(w domain.Workout, _ int) domain.Workout {
		w.PerformedAt = w.PerformedAt.In(loc)
		return w
	})
}

func localMeals(ms []domain.Meal, loc *time.Location) []domain.Meal {
	return lo.Map(ms, func(m domain.Meal, _ int) domain.Meal {
		m.EatenAt = m.EatenAt.In(loc)
		return m
	})
}
