package service

import (
	"sort"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

// SummarizeActivityEvents aggregates raw activity rows for one bucket.
func SummarizeActivityEvents(activities []domain.Activity) domain.ActivitySummary {
	s := domain.ActivitySummary{Count: len(activities), ByType: map[string]int{}}
	if len(activities) == 0 {
		return s
	}

	var hrSum float64
	var hrCount int
	days := map[time.Time]struct{}{}
	first, last := activities[0].OccurredAt, activities[0].OccurredAt
	for _, a := range activities {
		s.ByType[a.Type]++
		s.TotalDurationMin += a.DurationMin
		s.TotalDistanceKm += a.DistanceKm
		s.TotalCalories += a.Calories
		if a.HeartRateAvg > 0 {
			hrSum += a.HeartRateAvg
			hrCount++
		}
		days[dayStart(a.OccurredAt)] = struct{}{}
		if a.OccurredAt.Before(first) {
			first = a.OccurredAt
		}
		if a.OccurredAt.After(last) {
			last = a.OccurredAt
		}
	}

	s.AvgDurationMin = round2(s.TotalDurationMin / float64(s.Count))
	if hrCount > 0 {
		s.AvgHeartRate = round2(hrSum / float64(hrCount))
	}
	s.ActiveDays = len(days)
	span := int(dayStart(last).Sub(dayStart(first))/day) + 1
	s.ConsistencyScore = round2(float64(s.ActiveDays) / float64(span))
	return s
}

// SummarizeMealEvents aggregates raw meal rows for one bucket. Daily averages
// are taken over days with at least one logged meal.
func SummarizeMealEvents(meals []domain.Meal) domain.NutritionSummary {
	s := domain.NutritionSummary{MealCount: len(meals)}
	if len(meals) == 0 {
		return s
	}

	var cal, protein, carbs, fat float64
	days := map[time.Time]struct{}{}
	for _, m := range meals {
		cal += m.Calories
		protein += m.ProteinG
		carbs += m.CarbsG
		fat += m.FatG
		days[dayStart(m.EatenAt)] = struct{}{}
	}

	s.TrackedDays = len(days)
	n := float64(s.TrackedDays)
	s.AvgDailyCalories = round2(cal / n)
	s.AvgDailyProtein = round2(protein / n)
	s.AvgDailyCarbs = round2(carbs / n)
	s.AvgDailyFat = round2(fat / n)
	s.MealsPerDay = round2(float64(s.MealCount) / n)
	return s
}

// AggregatePeriodSummaries reduces child summaries into one summary covering
// [start, end). Counts and totals are summed. Nutrition averages are weighted by
// tracked days, heart rate and consistency are averaged over children that
// recorded them. Achievements and challenges are unioned in child order.
func AggregatePeriodSummaries(userID uuid.UUID, periodType domain.PeriodType, start, end time.Time, children []domain.PeriodSummary) *domain.PeriodSummary {
	ordered := append([]domain.PeriodSummary(nil), children...)
	sort.SliceStable(ordered, func(i, j int) bool { return ordered[i].PeriodStart.Before(ordered[j].PeriodStart) })

	out := &domain.PeriodSummary{
		UserID:          userID,
		PeriodType:      periodType,
		PeriodStart:     start,
		PeriodEnd:       end,
		ActivitySummary: domain.ActivitySummary{ByType: map[string]int{}},
		KeyAchievements: []string{},
		ChallengesFaced: []string{},
	}

	act := &out.ActivitySummary
	nut := &out.NutritionSummary
	var hrSum, consistencySum float64
	var hrN, consistencyN int
	var calDays, proteinDays, carbsDays, fatDays float64

	for _, c := range ordered {
		a := c.ActivitySummary
		act.Count += a.Count
		act.TotalDurationMin += a.TotalDurationMin
		act.TotalDistanceKm += a.TotalDistanceKm
		act.TotalCalories += a.TotalCalories
		act.ActiveDays += a.ActiveDays
		for t, n := range a.ByType {
			act.ByType[t] += n
		}
		if a.AvgHeartRate > 0 {
			hrSum += a.AvgHeartRate
			hrN++
		}
		if a.Count > 0 {
			consistencySum += a.ConsistencyScore
			consistencyN++
		}

		n := c.NutritionSummary
		nut.MealCount += n.MealCount
		nut.TrackedDays += n.TrackedDays
		days := float64(n.TrackedDays)
		calDays += n.AvgDailyCalories * days
		proteinDays += n.AvgDailyProtein * days
		carbsDays += n.AvgDailyCarbs * days
		fatDays += n.AvgDailyFat * days

		out.KeyAchievements = append(out.KeyAchievements, c.KeyAchievements...)
		out.ChallengesFaced = append(out.ChallengesFaced, c.ChallengesFaced...)
	}

	if act.Count > 0 {
		act.AvgDurationMin = round2(act.TotalDurationMin / float64(act.Count))
	}
	if hrN > 0 {
		act.AvgHeartRate = round2(hrSum / float64(hrN))
	}
	if consistencyN > 0 {
		act.ConsistencyScore = round2(consistencySum / float64(consistencyN))
	}
	if nut.TrackedDays > 0 {
		d := float64(nut.TrackedDays)
		nut.AvgDailyCalories = round2(calDays / d)
		nut.AvgDailyProtein = round2(proteinDays / d)
		nut.AvgDailyCarbs = round2(carbsDays / d)
		nut.AvgDailyFat = round2(fatDays / d)
		nut.MealsPerDay = round2(float64(nut.MealCount) / d)
	}

	out.KeyAchievements = lo.Uniq(out.KeyAchievements)
	out.ChallengesFaced = lo.Uniq(out.ChallengesFaced)
	return out
}

// foldMilestones appends milestone titles to the summary's achievements or
// challenges, skipping titles already present.
func foldMilestones(s *domain.PeriodSummary, milestones []domain.Milestone) {
	sorted := append([]domain.Milestone(nil), milestones...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].OccurredAt.Before(sorted[j].OccurredAt) })
	for _, m := range sorted {
		switch m.Kind {
		case domain.MilestoneAchievement:
			s.KeyAchievements = append(s.KeyAchievements, m.Title)
		case domain.MilestoneChallenge:
			s.ChallengesFaced = append(s.ChallengesFaced, m.Title)
		}
	}
	s.KeyAchievements = lo.Uniq(s.KeyAchievements)
	s.ChallengesFaced = lo.Uniq(s.ChallengesFaced)
}

// Period boundaries are UTC. End is exclusive.

func lastCompletedWeek(now time.Time) (time.Time, time.Time) {
	end := weekStart(now)
	return end.AddDate(0, 0, -7), end
}

// weeksEndingIn returns the range of week starts whose last day falls in
// [start, end). A week straddling a month boundary belongs to the later month,
// so it has always closed by the time that month is rolled up.
func weeksEndingIn(start, end time.Time) (time.Time, time.Time) {
	return start.AddDate(0, 0, -6), end.AddDate(0, 0, -6)
}

func monthStart(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
}

func previousMonth(now time.Time) (time.Time, time.Time) {
	end := monthStart(now)
	return end.AddDate(0, -1, 0), end
}

func quarterStart(t time.Time) time.Time {
	t = t.UTC()
	m := time.Month((int(t.Month())-1)/3*3 + 1)
	return time.Date(t.Year(), m, 1, 0, 0, 0, 0, time.UTC)
}

func previousQuarter(now time.Time) (time.Time, time.Time) {
	end := quarterStart(now)
	return end.AddDate(0, -3, 0), end
}

func isFirstOfMonth(now time.Time) bool { return now.UTC().Day() == 1 }

func isFirstOfQuarter(now time.Time) bool {
	u := now.UTC()
	return u.Day() == 1 && (u.Month()-1)%3 == 0
}
