package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/samber/lo"
)

// FactExtractor turns a filtered conversation window into candidate facts.
type FactExtractor interface {
	Extract(ctx context.Context, messages []domain.Message) ([]domain.ExtractedFact, error)
}

const (
	hedgedConfidence  = 0.6
	certainConfidence = 0.95
	strongConfidence  = 0.9
	allergyConfidence = 1.0
)

var (
	constraintTrigger = regexp.MustCompile(`(?i)\b(injur\w*|avoid\w*|allerg\w*|intoleran\w*|hurt\w*|sprain\w*|can't (eat|do)|bad (knee|back|shoulder|ankle|wrist|hip|neck|elbow)s?)\b`)
	allergyTrigger    = regexp.MustCompile(`(?i)\ballerg\w*`)
	strongTrigger     = regexp.MustCompile(`(?i)\b(hate|absolutely|can't stand|despise)\b`)
	goalTrigger       = regexp.MustCompile(`(?i)\b(want to|wanna|my goal|goal is|aiming to|trying to|hoping to|by (january|february|march|april|may|june|july|august|september|october|november|december|summer|winter|spring|fall|the end of|next (week|month|year)|\d{4}))\b`)
	preferenceTrigger = regexp.MustCompile(`(?i)\b(prefer\w*|like|likes|love|loves|enjoy\w*|favou?rite)\b`)

	hedgeWords     = regexp.MustCompile(`(?i)\b(think|maybe|might|perhaps|probably|not sure|kind of|sort of)\b`)
	certaintyWords = regexp.MustCompile(`(?i)\b(definitely|always|absolutely|certainly|never|every)\b`)

	timeOfDayPattern = regexp.MustCompile(`(?i)\b(morning|afternoon|evening|night|lunchtime)s?\b`)
	allergenPattern  = regexp.MustCompile(`(?i)\ballerg(?:ic|y|ies)\s+(?:to\s+)?([a-z][a-z\s,-]*)`)
	bodyPartPattern  = regexp.MustCompile(`(?i)\b(lower back|upper back|knee|back|shoulder|ankle|wrist|hip|neck|elbow|hamstring|foot|feet)s?\b`)
	targetPattern    = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(kg|kgs|kilos?|lbs?|pounds|km|k|miles?|mi|minutes?|mins?|reps?|pull-?ups|push-?ups|steps)\b`)
	deadlinePattern  = regexp.MustCompile(`(?i)\bby ((?:the end of )?(?:january|february|march|april|may|june|july|august|september|october|november|december|summer|winter|spring|fall|next (?:week|month|year)|\d{4}))\b`)
	exercisePattern  = regexp.MustCompile(`(?i)\b(squats?|deadlifts?|bench press|overhead press|pull-?ups?|push-?ups?|planks?|burpees?|lunges?|rows?|running|cycling|swimming|yoga|pilates|hiit|jump(?:ing)? rope|box jumps?|marathon|half marathon|5k|10k)\b`)
	allergenStops    = regexp.MustCompile(`(?i)\s+(so|but|which|because|that|and i|i)\b.*$`)
	allergenSplit    = regexp.MustCompile(`\s*(?:,|\band\b|\bor\b)\s*`)
	negativeWords    = regexp.MustCompile(`(?i)\b(hate|can't stand|despise)\b`)
)

var unitAliases = map[string]string{
	"kgs": "kg", "kilo": "kg", "kilos": "kg",
	"lb": "lbs", "pounds": "lbs",
	"k": "km", "mile": "miles", "mi": "miles",
	"minute": "minutes", "min": "minutes", "mins": "minutes",
	"rep": "reps", "pullups": "pull-ups", "pushups": "push-ups",
}

// RuleBasedExtractor finds facts by lexical triggers in user-authored sentences.
// It needs no generation backend and is always available.
type RuleBasedExtractor struct{}

func NewRuleBasedExtractor() *RuleBasedExtractor {
	return &RuleBasedExtractor{}
}

func (e *RuleBasedExtractor) Extract(ctx context.Context, messages []domain.Message) ([]domain.ExtractedFact, error) {
	var facts []domain.ExtractedFact
	for _, m := range userMessagesOnly(filterMessages(messages)) {
		for _, s := range sentences(m.Content) {
			if f, ok := extractFactFromSentence(s); ok {
				facts = append(facts, f)
			}
		}
	}
	return dedupeExtracted(facts), nil
}

// extractFactFromSentence applies triggers in priority order: constraints first,
// then strong preferences, goals and plain preferences. One fact per sentence.
func extractFactFromSentence(s string) (domain.ExtractedFact, bool) {
	fact := domain.ExtractedFact{
		Content:  capitalize(strings.TrimSpace(s)),
		Metadata: map[string]string{},
	}

	switch {
	case constraintTrigger.MatchString(s):
		fact.Type = domain.FactTypeConstraint
		fact.Confidence = hedgedValue(s, domain.DefaultFactConfidence)
		if allergyTrigger.MatchString(s) {
			fact.Confidence = allergyConfidence
			if allergen := extractAllergen(s); allergen != "" {
				fact.Metadata["allergen"] = allergen
			}
		}
		if part := extractBodyPart(s); part != "" {
			fact.Metadata["bodyPart"] = part
		}
		addExercises(fact.Metadata, s)

	case strongTrigger.MatchString(s):
		fact.Type = domain.FactTypePreference
		fact.Confidence = hedgedValue(s, strongConfidence)
		fact.Metadata["strength"] = "strong"
		if negativeWords.MatchString(s) {
			fact.Metadata["polarity"] = "negative"
		}
		addTimeOfDay(fact.Metadata, s)
		addExercises(fact.Metadata, s)

	case goalTrigger.MatchString(s):
		fact.Type = domain.FactTypeGoal
		fact.Confidence = hedgedValue(s, domain.DefaultFactConfidence)
		if m := targetPattern.FindStringSubmatch(s); m != nil {
			fact.Metadata["target"] = m[1]
			fact.Metadata["unit"] = normalizeUnit(m[2])
		}
		if m := deadlinePattern.FindStringSubmatch(s); m != nil {
			fact.Metadata["deadline"] = strings.ToLower(m[1])
		}
		addExercises(fact.Metadata, s)

	case preferenceTrigger.MatchString(s):
		fact.Type = domain.FactTypePreference
		fact.Confidence = hedgedValue(s, domain.DefaultFactConfidence)
		addTimeOfDay(fact.Metadata, s)
		addExercises(fact.Metadata, s)

	default:
		return domain.ExtractedFact{}, false
	}

	if len(fact.Metadata) == 0 {
		fact.Metadata = nil
	}
	return fact, true
}

// hedgedValue lowers confidence for hedged statements and raises it for emphatic ones.
func hedgedValue(s string, base float64) float64 {
	switch {
	case hedgeWords.MatchString(s):
		return hedgedConfidence
	case certaintyWords.MatchString(s):
		return max(base, certainConfidence)
	default:
		return base
	}
}

func extractAllergen(s string) string {
	m := allergenPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	raw := allergenStops.ReplaceAllString(strings.ToLower(m[1]), "")
	parts := allergenSplit.Split(raw, -1)
	allergens := lo.FilterMap(parts, func(p string, _ int) (string, bool) {
		p = strings.TrimSpace(p)
		return p, p != ""
	})
	return strings.Join(lo.Uniq(allergens), ", ")
}

func extractBodyPart(s string) string {
	m := bodyPartPattern.FindStringSubmatch(s)
	if m == nil {
		return ""
	}
	part := strings.ToLower(m[1])
	if part == "feet" {
		return "foot"
	}
	return part
}

func addTimeOfDay(meta map[string]string, s string) {
	if m := timeOfDayPattern.FindStringSubmatch(s); m != nil {
		meta["time"] = strings.ToLower(m[1])
	}
}

func addExercises(meta map[string]string, s string) {
	found := exercisePattern.FindAllString(strings.ToLower(s), -1)
	if len(found) > 0 {
		meta["exercises"] = strings.Join(lo.Uniq(found), ", ")
	}
}

func normalizeUnit(u string) string {
	u = strings.ToLower(u)
	if alias, ok := unitAliases[u]; ok {
		return alias
	}
	return u
}

func dedupeExtracted(facts []domain.ExtractedFact) []domain.ExtractedFact {
	out := lo.UniqBy(facts, func(f domain.ExtractedFact) string {
		return string(f.Type) + "|" + normalizeFactContent(f.Content)
	})
	if out == nil {
		return []domain.ExtractedFact{}
	}
	return out
}

var (
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// normalizeFactContent is the comparison form used for de-duplication:
// lowercase, punctuation stripped, whitespace collapsed.
func normalizeFactContent(s string) string {
	s = strings.ToLower(s)
	s = nonWordPattern.ReplaceAllString(s, "")
	s = whitespacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
