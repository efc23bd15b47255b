package service

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"dario.cat/mergo"
	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
	"github.com/samber/lo"
)

var (
	dayPattern       = regexp.MustCompile(`(?i)\b(monday|tuesday|wednesday|thursday|friday|saturday|sunday|weekends?|weekdays?)s?\b`)
	dietPattern      = regexp.MustCompile(`(?i)\b(vegan|vegetarian|pescatarian|gluten[- ]free|dairy[- ]free|lactose[- ]intolerant|keto|paleo|halal|kosher|low[- ]carb)\b`)
	motivatorPattern = regexp.MustCompile(`(?i)\b(?:motivated by|because|for my|so i can)\s+([^,.!?;]+)`)
	directTone       = regexp.MustCompile(`(?i)\b(tough love|be direct|blunt|no fluff|straightforward|push me|hold me accountable)\b`)
	supportiveTone   = regexp.MustCompile(`(?i)\b(gentle|encourag\w*|supportive|positive reinforcement|be patient)\b`)
	severePattern    = regexp.MustCompile(`(?i)\b(surgery|torn|tear|fracture\w*|broken|severe|chronic)\b`)
	moderatePattern  = regexp.MustCompile(`(?i)\b(injur\w*|pain|hurt\w*|sprain\w*|strain\w*)\b`)
)

// BuildPreferenceProfile derives a profile from facts. Facts that say nothing
// about preferences leave the profile untouched.
func BuildPreferenceProfile(userID uuid.UUID, facts []domain.MemoryFact) *domain.PreferenceProfile {
	p := domain.NewPreferenceProfile(userID)
	for _, f := range facts {
		if !f.IsActive {
			continue
		}
		applyFact(p, f)
	}
	dedupeProfile(p)
	return p
}

func applyFact(p *domain.PreferenceProfile, f domain.MemoryFact) {
	negative := f.Metadata["polarity"] == "negative"
	exercises := splitList(f.Metadata["exercises"])

	switch f.FactType {
	case domain.FactTypePreference, domain.FactTypeRoutine:
		if t := f.Metadata["time"]; t != "" && !negative {
			p.WorkoutPreferences.PreferredTime = t
		}
		if !negative {
			for _, d := range dayPattern.FindAllString(f.Content, -1) {
				p.WorkoutPreferences.PreferredDays = append(p.WorkoutPreferences.PreferredDays, strings.ToLower(d))
			}
		} else {
			p.WorkoutPreferences.AvoidedExercises = append(p.WorkoutPreferences.AvoidedExercises, exercises...)
		}

	case domain.FactTypeConstraint:
		p.NutritionPreferences.Allergies = append(p.NutritionPreferences.Allergies, splitList(f.Metadata["allergen"])...)
		if strings.Contains(strings.ToLower(f.Content), "avoid") {
			p.WorkoutPreferences.AvoidedExercises = append(p.WorkoutPreferences.AvoidedExercises, exercises...)
		}
		if part := f.Metadata["bodyPart"]; part != "" {
			c := p.Constraints[part]
			c.Restrictions = append(c.Restrictions, f.Content)
			c.Severity = maxSeverity(c.Severity, constraintSeverity(f.Content))
			p.Constraints[part] = c
		}

	case domain.FactTypeGoal, domain.FactTypeAchievement:
		for _, m := range motivatorPattern.FindAllStringSubmatch(f.Content, -1) {
			p.Motivators = append(p.Motivators, strings.ToLower(strings.TrimSpace(m[1])))
		}
	}

	for _, d := range dietPattern.FindAllString(f.Content, -1) {
		p.NutritionPreferences.DietaryRestrictions = append(p.NutritionPreferences.DietaryRestrictions, strings.ToLower(d))
	}
	switch {
	case directTone.MatchString(f.Content):
		p.CommunicationStyle.PreferredTone = "direct"
	case supportiveTone.MatchString(f.Content):
		p.CommunicationStyle.PreferredTone = "supportive"
	}
}

func constraintSeverity(content string) domain.Severity {
	switch {
	case severePattern.MatchString(content):
		return domain.SeveritySevere
	case moderatePattern.MatchString(content):
		return domain.SeverityModerate
	default:
		return domain.SeverityMild
	}
}

func severityRank(s domain.Severity) int {
	switch s {
	case domain.SeveritySevere:
		return 3
	case domain.SeverityModerate:
		return 2
	case domain.SeverityMild:
		return 1
	}
	return 0
}

func maxSeverity(a, b domain.Severity) domain.Severity {
	if severityRank(b) > severityRank(a) {
		return b
	}
	return a
}

// MergePreferenceProfile folds delta into dst. Scalars set in delta win, lists are
// unioned, and constraints for the same body part combine their restrictions.
func MergePreferenceProfile(dst, delta *domain.PreferenceProfile) error {
	dst.Normalize()
	delta.Normalize()

	constraints := make(map[string]domain.BodyConstraint, len(dst.Constraints)+len(delta.Constraints))
	for part, c := range dst.Constraints {
		constraints[part] = c
	}
	for part, c := range delta.Constraints {
		existing, ok := constraints[part]
		if !ok {
			constraints[part] = c
			continue
		}
		existing.Restrictions = append(existing.Restrictions, c.Restrictions...)
		existing.Severity = maxSeverity(existing.Severity, c.Severity)
		constraints[part] = existing
	}

	incoming := *delta
	incoming.Constraints = nil
	if err := mergo.Merge(dst, incoming, mergo.WithOverride, mergo.WithAppendSlice); err != nil {
		return fmt.Errorf("merge preference profile: %w", err)
	}
	dst.Constraints = constraints
	dst.UpdatedAt = time.Now().UTC()
	dedupeProfile(dst)
	return nil
}

func dedupeProfile(p *domain.PreferenceProfile) {
	p.WorkoutPreferences.PreferredDays = lo.Uniq(p.WorkoutPreferences.PreferredDays)
	p.WorkoutPreferences.AvoidedExercises = lo.Uniq(p.WorkoutPreferences.AvoidedExercises)
	p.NutritionPreferences.DietaryRestrictions = lo.Uniq(p.NutritionPreferences.DietaryRestrictions)
	p.NutritionPreferences.Allergies = lo.Uniq(p.NutritionPreferences.Allergies)
	p.Motivators = lo.Uniq(p.Motivators)
	for part, c := range p.Constraints {
		c.Restrictions = lo.Uniq(c.Restrictions)
		p.Constraints[part] = c
	}
}

func splitList(s string) []string {
	if s == "" {
		return nil
	}
	return lo.FilterMap(strings.Split(s, ","), func(item string, _ int) (string, bool) {
		item = strings.TrimSpace(item)
		return item, item != ""
	})
}
