package service

import (
	"regexp"
	"sort"
	"strings"
	"unicode"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/samber/lo"
)

var (
	codeBlockPattern = regexp.MustCompile("(?s)```.*?```")
	sentenceSplit    = regexp.MustCompile(`[.!?]+(?:\s+|$)|\n+`)
)

// filterMessages drops turns that carry nothing extractable: empty content,
// content made only of fenced code blocks, and emoji-only content.
func filterMessages(messages []domain.Message) []domain.Message {
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		text := strings.TrimSpace(m.Content)
		if text == "" {
			return false
		}
		if strings.TrimSpace(codeBlockPattern.ReplaceAllString(text, "")) == "" {
			return false
		}
		return hasWordCharacters(text)
	})
}

func hasWordCharacters(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}

func userMessagesOnly(messages []domain.Message) []domain.Message {
	return lo.Filter(messages, func(m domain.Message, _ int) bool {
		return m.Role == domain.RoleUser
	})
}

// sentences splits text on terminal punctuation and newlines, dropping code blocks.
func sentences(text string) []string {
	text = codeBlockPattern.ReplaceAllString(text, " ")
	parts := sentenceSplit.Split(text, -1)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

var sentimentLexicon = []struct {
	sentiment domain.Sentiment
	pattern   *regexp.Regexp
}{
	{domain.SentimentPositive, regexp.MustCompile(`\b(great|good|happy|awesome|amazing|enjoy(ed|ing)?|thanks|thank you|glad|excellent|fun|proud|better)\b`)},
	{domain.SentimentMotivated, regexp.MustCompile(`\b(motivated|excited|ready|pumped|let's go|can't wait|determined|committed|crush(ing)?|fired up|let's do (it|this))\b`)},
	{domain.SentimentFrustrated, regexp.MustCompile(`\b(frustrat(ed|ing)|annoy(ed|ing)|tired of|stuck|plateau(ed)?|give up|giving up|struggl(e|ing)|disappointed|angry|ugh|not working|hopeless)\b`)},
	{domain.SentimentNeutral, regexp.MustCompile(`\b(not sure|maybe|unsure|idk|don't know|confused|wondering|no idea)\b`)},
}

// AnalyzeSentiment counts lexical hits per category over user messages and returns
// the category with the most hits. Ties and zero hits are neutral.
func AnalyzeSentiment(messages []domain.Message) domain.Sentiment {
	counts := make(map[domain.Sentiment]int, len(sentimentLexicon))
	for _, m := range userMessagesOnly(filterMessages(messages)) {
		text := strings.ToLower(m.Content)
		for _, entry := range sentimentLexicon {
			counts[entry.sentiment] += len(entry.pattern.FindAllStringIndex(text, -1))
		}
	}

	best := domain.SentimentNeutral
	bestCount := 0
	tie := false
	for _, entry := range sentimentLexicon {
		c := counts[entry.sentiment]
		switch {
		case c > bestCount:
			best, bestCount, tie = entry.sentiment, c, false
		case c == bestCount && c > 0:
			tie = true
		}
	}
	if bestCount == 0 || tie {
		return domain.SentimentNeutral
	}
	return best
}

const maxActionItems = 10

var (
	commitmentPattern = regexp.MustCompile(`(?i)\b(i'll|i will|i'm going to|im going to|i am going to|going to|starting tomorrow|i plan to|from now on)\b[,\s]*(.+)`)
	hedgedCommitment  = regexp.MustCompile(`(?i)\b(should|probably|might|maybe|could|not|won't|never)\b`)
	leadingCommitment = regexp.MustCompile(`(?i)^(i'll|i will|i'm going to|im going to|i am going to|going to|i plan to|i)\s+`)
)

// ExtractActionItems returns first-person commitments from user messages, with
// the leading pronoun and verb stripped and the first letter capitalized.
func ExtractActionItems(messages []domain.Message) []string {
	var items []string
	for _, m := range userMessagesOnly(filterMessages(messages)) {
		for _, s := range sentences(m.Content) {
			if hedgedCommitment.MatchString(s) {
				continue
			}
			match := commitmentPattern.FindStringSubmatch(s)
			if match == nil {
				continue
			}
			action := strings.TrimSpace(match[2])
			for {
				stripped := leadingCommitment.ReplaceAllString(action, "")
				if stripped == action {
					break
				}
				action = stripped
			}
			if action = strings.Trim(action, " ,;:"); action == "" {
				continue
			}
			items = append(items, capitalize(action))
		}
	}
	items = lo.Uniq(items)
	if len(items) > maxActionItems {
		items = items[:maxActionItems]
	}
	if items == nil {
		return []string{}
	}
	return items
}

var topicKeywords = []struct {
	tag     string
	pattern *regexp.Regexp
}{
	{"muscle_building", regexp.MustCompile(`\b(muscle|strength|strong(er)?|bulk(ing)?|hypertrophy|lift(ing)?|gains)\b`)},
	{"weight_loss", regexp.MustCompile(`\b(weight loss|lose weight|losing weight|fat loss|cut(ting)?|slim)\b`)},
	{"cardio", regexp.MustCompile(`\b(cardio|run(ning)?|jog(ging)?|cycl(e|ing)|swim(ming)?|marathon|5k|10k|endurance)\b`)},
	{"nutrition", regexp.MustCompile(`\b(diet|nutrition|calorie(s)?|protein|carbs?|meal(s)?|eat(ing)?|food|macros?)\b`)},
	{"recovery", regexp.MustCompile(`\b(sleep|rest|recovery|recover(ing)?|sore(ness)?|rest day)\b`)},
	{"injury", regexp.MustCompile(`\b(injur(y|ed|ies)|pain|hurt(s|ing)?|sprain(ed)?|physio)\b`)},
	{"motivation", regexp.MustCompile(`\b(motivat(ion|ed)|discipline|consisten(t|cy)|habit(s)?)\b`)},
	{"mobility", regexp.MustCompile(`\b(mobility|flexib(le|ility)|stretch(ing)?|yoga)\b`)},
	{"mental_health", regexp.MustCompile(`\b(stress(ed)?|anxi(ety|ous)|mood|burn(ed|t)? out|mental)\b`)},
}

// ExtractTopics maps keywords across all messages to a sorted set of topic tags.
func ExtractTopics(messages []domain.Message) []string {
	seen := make(map[string]bool)
	for _, m := range filterMessages(messages) {
		text := strings.ToLower(m.Content)
		for _, t := range topicKeywords {
			if t.pattern.MatchString(text) {
				seen[t.tag] = true
			}
		}
	}
	topics := lo.Keys(seen)
	sort.Strings(topics)
	return topics
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
