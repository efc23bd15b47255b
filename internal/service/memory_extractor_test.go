package service

import (
	"context"
	"errors"
	"testing"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func ruleExtract(t *testing.T, texts ...string) []domain.ExtractedFact {
	t.Helper()
	msgs := make([]domain.Message, 0, len(texts))
	for _, text := range texts {
		msgs = append(msgs, domain.Message{Role: domain.RoleUser, Content: text})
	}
	facts, err := NewRuleBasedExtractor().Extract(context.Background(), msgs)
	require.NoError(t, err)
	return facts
}

func TestRuleBasedExtractor_PreferenceWithTime(t *testing.T) {
	facts := ruleExtract(t, "I prefer morning workouts")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypePreference, facts[0].Type)
	assert.Equal(t, map[string]string{"time": "morning"}, facts[0].Metadata)
	assert.InDelta(t, 0.8, facts[0].Confidence, 0.001)
}

func TestRuleBasedExtractor_AllergyIsCertainConstraint(t *testing.T) {
	facts := ruleExtract(t, "I'm allergic to peanuts")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypeConstraint, facts[0].Type)
	assert.Equal(t, "peanuts", facts[0].Metadata["allergen"])
	assert.Equal(t, 1.0, facts[0].Confidence)
}

func TestRuleBasedExtractor_AllergyIgnoresHedging(t *testing.T) {
	facts := ruleExtract(t, "I think I'm allergic to shellfish and peanuts")

	require.Len(t, facts, 1)
	assert.Equal(t, 1.0, facts[0].Confidence)
	assert.Equal(t, "shellfish, peanuts", facts[0].Metadata["allergen"])
}

func TestRuleBasedExtractor_Injury(t *testing.T) {
	facts := ruleExtract(t, "I injured my knee last year")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypeConstraint, facts[0].Type)
	assert.Equal(t, "knee", facts[0].Metadata["bodyPart"])
	assert.InDelta(t, 0.8, facts[0].Confidence, 0.001)
}

func TestRuleBasedExtractor_GoalMetadata(t *testing.T) {
	facts := ruleExtract(t, "I want to lose 5 kg by June")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypeGoal, facts[0].Type)
	assert.Equal(t, "5", facts[0].Metadata["target"])
	assert.Equal(t, "kg", facts[0].Metadata["unit"])
	assert.Equal(t, "june", facts[0].Metadata["deadline"])
}

func TestRuleBasedExtractor_GoalWithDecimalTarget(t *testing.T) {
	facts := ruleExtract(t, "I want to lose 2.5 kg by June. I prefer evening runs")

	require.Len(t, facts, 2)
	assert.Equal(t, domain.FactTypeGoal, facts[0].Type)
	assert.Equal(t, "I want to lose 2.5 kg by June", facts[0].Content)
	assert.Equal(t, "2.5", facts[0].Metadata["target"])
	assert.Equal(t, "kg", facts[0].Metadata["unit"])
	assert.Equal(t, "june", facts[0].Metadata["deadline"])
	assert.Equal(t, domain.FactTypePreference, facts[1].Type)
}

func TestSentences(t *testing.T) {
	assert.Equal(t,
		[]string{"Ran 10.5 km today", "Felt great", "Next: 3.2 miles"},
		sentences("Ran 10.5 km today. Felt great!? \nNext: 3.2 miles."))
}

func TestRuleBasedExtractor_GoalWithExercise(t *testing.T) {
	facts := ruleExtract(t, "My goal is 10 pull-ups by the end of summer")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypeGoal, facts[0].Type)
	assert.Equal(t, "10", facts[0].Metadata["target"])
	assert.Equal(t, "pull-ups", facts[0].Metadata["unit"])
	assert.Equal(t, "pull-ups", facts[0].Metadata["exercises"])
}

func TestRuleBasedExtractor_StrongPreference(t *testing.T) {
	facts := ruleExtract(t, "I hate burpees")

	require.Len(t, facts, 1)
	assert.Equal(t, domain.FactTypePreference, facts[0].Type)
	assert.Equal(t, "strong", facts[0].Metadata["strength"])
	assert.Equal(t, "negative", facts[0].Metadata["polarity"])
	assert.Equal(t, "burpees", facts[0].Metadata["exercises"])
	assert.InDelta(t, 0.9, facts[0].Confidence, 0.001)
}

func TestRuleBasedExtractor_HedgingModulatesConfidence(t *testing.T) {
	hedged := ruleExtract(t, "I think I like yoga")
	require.Len(t, hedged, 1)
	assert.InDelta(t, 0.6, hedged[0].Confidence, 0.001)

	certain := ruleExtract(t, "I always love running")
	require.Len(t, certain, 1)
	assert.InDelta(t, 0.95, certain[0].Confidence, 0.001)
}

func TestRuleBasedExtractor_IgnoresAssistantAndNoise(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleAssistant, Content: "I prefer that you log meals"},
		{Role: domain.RoleUser, Content: ""},
		{Role: domain.RoleUser, Content: "```go\nfmt.Println(\"I love code\")\n```"},
		{Role: domain.RoleUser, Content: "💪🔥"},
		{Role: domain.RoleUser, Content: "What should I eat today?"},
	}
	facts, err := NewRuleBasedExtractor().Extract(context.Background(), msgs)
	require.NoError(t, err)
	assert.Empty(t, facts)
}

func TestRuleBasedExtractor_DeduplicatesWithinWindow(t *testing.T) {
	facts := ruleExtract(t, "I prefer morning workouts.", "i prefer morning workouts!")
	assert.Len(t, facts, 1)
}

func TestFilterMessages(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "   "},
		{Role: domain.RoleUser, Content: "```\nSELECT 1;\n```"},
		{Role: domain.RoleUser, Content: "🎉 🎉"},
		{Role: domain.RoleUser, Content: "Here is my log ```json\n{}\n``` from today"},
		{Role: domain.RoleUser, Content: "Ran 5k 🏃"},
	}
	filtered := filterMessages(msgs)
	require.Len(t, filtered, 2)
	assert.Equal(t, "Ran 5k 🏃", filtered[1].Content)
}

func TestAnalyzeSentiment(t *testing.T) {
	tests := []struct {
		name string
		text string
		want domain.Sentiment
	}{
		{"frustrated", "This is frustrating, I'm stuck on a plateau", domain.SentimentFrustrated},
		{"motivated", "I'm so motivated and ready to crush it", domain.SentimentMotivated},
		{"positive", "That was a great session, thanks!", domain.SentimentPositive},
		{"tie is neutral", "I'm happy but frustrated", domain.SentimentNeutral},
		{"no hits", "I ate eggs for breakfast", domain.SentimentNeutral},
		{"uncertain", "I'm not sure, maybe I don't know", domain.SentimentNeutral},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := AnalyzeSentiment([]domain.Message{{Role: domain.RoleUser, Content: tt.text}})
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExtractActionItems(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "I'll do yoga tomorrow. I should probably stretch more. Starting tomorrow I'm going to track my meals."},
		{Role: domain.RoleAssistant, Content: "I'll send you a plan."},
		{Role: domain.RoleUser, Content: "I'm not going to skip leg day"},
	}

	items := ExtractActionItems(msgs)
	assert.Equal(t, []string{"Do yoga tomorrow", "Track my meals"}, items)
}

func TestExtractActionItems_Empty(t *testing.T) {
	items := ExtractActionItems(nil)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestExtractTopics(t *testing.T) {
	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "I want to build muscle"},
		{Role: domain.RoleAssistant, Content: "Let's look at your protein and strength work"},
	}
	assert.Equal(t, []string{"muscle_building", "nutrition"}, ExtractTopics(msgs))
}

func newExtractionRouter(t *testing.T) (*ModelRouter, *llm.MockBackend) {
	t.Helper()
	backend := llm.NewMockBackend("a")
	routes := map[TaskCategory][]ModelSpec{
		TaskStructuredOutput: {{Model: "json-model", Provider: "a", MaxTokens: 1500}},
		TaskSimpleExtraction: {{Model: "summary-model", Provider: "a", MaxTokens: 1000}},
	}
	return NewModelRouter([]llm.Backend{backend}, routes, zap.NewNop()), backend
}

func TestModelExtractor_ParsesFencedJSON(t *testing.T) {
	router, backend := newExtractionRouter(t)
	backend.SetResponse("json-model", "```json\n"+`[
		{"type":"preference","content":"Prefers evening runs","confidence":0.7,"metadata":{"time":"evening"}},
		{"type":"constraint","content":"Allergic to shellfish","confidence":0.4,"metadata":{"allergen":"shellfish"}},
		{"type":"opinion","content":"Thinks kale is overrated"},
		{"type":"goal","content":"Run a 10k","metadata":{"target":10}}
	]`+"\n```")

	facts, err := NewModelExtractor(router, zap.NewNop()).Extract(context.Background(), userMessages("I like evening runs"))
	require.NoError(t, err)
	require.Len(t, facts, 3)
	assert.Equal(t, "evening", facts[0].Metadata["time"])
	assert.Equal(t, 1.0, facts[1].Confidence)
	assert.Equal(t, domain.DefaultFactConfidence, facts[2].Confidence)
	assert.Equal(t, "10", facts[2].Metadata["target"])
}

func TestModelExtractor_FallsBackOnGarbage(t *testing.T) {
	router, backend := newExtractionRouter(t)
	backend.SetResponse("json-model", "Sure! Here are the facts: the user likes mornings.")

	facts, err := NewModelExtractor(router, zap.NewNop()).Extract(context.Background(), userMessages("I prefer morning workouts"))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, "morning", facts[0].Metadata["time"])
}

func TestModelExtractor_FallsBackOnBackendError(t *testing.T) {
	router, backend := newExtractionRouter(t)
	backend.SetError("json-model", errors.New("unavailable"))

	facts, err := NewModelExtractor(router, zap.NewNop()).Extract(context.Background(), userMessages("I'm allergic to peanuts"))
	require.NoError(t, err)
	require.Len(t, facts, 1)
	assert.Equal(t, 1.0, facts[0].Confidence)
}

func TestNewMemoryExtractor_SelectsStrategy(t *testing.T) {
	noBackends := NewModelRouter(nil, nil, zap.NewNop())
	e := NewMemoryExtractor(newMockFactStore(), &mockSummaryStore{}, newMockProfileStore(), noBackends, 0, zap.NewNop())
	assert.IsType(t, &RuleBasedExtractor{}, e.extractor)
	assert.Equal(t, DefaultExtractionWindow, e.window)

	router, _ := newExtractionRouter(t)
	e = NewMemoryExtractor(newMockFactStore(), &mockSummaryStore{}, newMockProfileStore(), router, 4, zap.NewNop())
	assert.IsType(t, &ModelExtractor{}, e.extractor)
}

func newRuleMemoryExtractor() (*MemoryExtractor, *mockFactStore, *mockSummaryStore, *mockProfileStore) {
	facts := newMockFactStore()
	summaries := &mockSummaryStore{}
	profiles := newMockProfileStore()
	router := NewModelRouter(nil, nil, zap.NewNop())
	return NewMemoryExtractor(facts, summaries, profiles, router, 0, zap.NewNop()), facts, summaries, profiles
}

func TestMemoryExtractor_ProcessConversation(t *testing.T) {
	e, facts, summaries, profiles := newRuleMemoryExtractor()
	userID, convID := uuid.New(), uuid.New()

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "I prefer morning workouts. I'm allergic to peanuts."},
		{Role: domain.RoleAssistant, Content: "Noted! Any injuries?"},
		{Role: domain.RoleUser, Content: "I hurt my lower back deadlifting. I'll do mobility work tonight."},
	}

	res, err := e.ProcessConversation(context.Background(), userID, convID, msgs)
	require.NoError(t, err)
	require.Len(t, res.Facts, 3)
	assert.Len(t, facts.all(), 3)

	require.Len(t, summaries.summaries, 1)
	s := summaries.summaries[0]
	assert.Equal(t, convID, s.ConversationID)
	assert.Len(t, s.ExtractedFacts, 3)
	assert.Equal(t, []string{"Do mobility work tonight"}, s.ActionItems)
	assert.Contains(t, s.KeyTopics, "injury")
	assert.NotEmpty(t, s.Summary)

	profile := profiles.profiles[userID]
	assert.Equal(t, "morning", profile.WorkoutPreferences.PreferredTime)
	assert.Equal(t, []string{"peanuts"}, profile.NutritionPreferences.Allergies)
	require.Contains(t, profile.Constraints, "lower back")
	assert.Equal(t, domain.SeverityModerate, profile.Constraints["lower back"].Severity)
}

func TestMemoryExtractor_ProcessConversationDeduplicates(t *testing.T) {
	e, facts, _, _ := newRuleMemoryExtractor()
	userID := uuid.New()
	ctx := context.Background()

	_, err := e.ProcessConversation(ctx, userID, uuid.New(), userMessages("I think I prefer morning workouts"))
	require.NoError(t, err)
	_, err = e.ProcessConversation(ctx, userID, uuid.New(), userMessages("I definitely prefer morning workouts!"))
	require.NoError(t, err)

	all := facts.all()
	assert.Len(t, all, 2, "different wording is a different fact")

	_, err = e.ProcessConversation(ctx, userID, uuid.New(), userMessages("i definitely prefer morning workouts"))
	require.NoError(t, err)
	assert.Len(t, facts.all(), 2)
	assert.Equal(t, 1, facts.updateCalls)
	assert.Equal(t, 2, facts.createCalls)
}

func TestMemoryExtractor_DedupKeepsHigherConfidence(t *testing.T) {
	e, facts, _, _ := newRuleMemoryExtractor()
	userID := uuid.New()
	ctx := context.Background()

	existing := &domain.MemoryFact{
		UserID: userID, FactType: domain.FactTypePreference, Content: "I prefer morning workouts",
		Confidence: 0.95, IsActive: true, Metadata: map[string]string{"source_note": "manual"},
	}
	require.NoError(t, facts.Create(ctx, existing))

	res, err := e.ProcessConversation(ctx, userID, uuid.New(), userMessages("I prefer morning workouts"))
	require.NoError(t, err)
	require.Len(t, res.Facts, 1)
	assert.Equal(t, existing.ID, res.Facts[0].ID)
	assert.Equal(t, 0.95, res.Facts[0].Confidence)
	assert.Equal(t, "manual", res.Facts[0].Metadata["source_note"])
	assert.Equal(t, "morning", res.Facts[0].Metadata["time"])
}

func TestMemoryExtractor_ProcessConversationWindow(t *testing.T) {
	e, facts, _, _ := newRuleMemoryExtractor()
	e.window = 1

	msgs := []domain.Message{
		{Role: domain.RoleUser, Content: "I'm allergic to peanuts"},
		{Role: domain.RoleUser, Content: "I prefer evening runs"},
	}
	_, err := e.ProcessConversation(context.Background(), uuid.New(), uuid.New(), msgs)
	require.NoError(t, err)

	all := facts.all()
	require.Len(t, all, 1)
	assert.Equal(t, domain.FactTypePreference, all[0].FactType)
}

func TestMemoryExtractor_ProcessConversationNothingToExtract(t *testing.T) {
	e, _, summaries, _ := newRuleMemoryExtractor()

	res, err := e.ProcessConversation(context.Background(), uuid.New(), uuid.New(), userMessages("🙂"))
	require.NoError(t, err)
	assert.Empty(t, res.Facts)
	assert.Empty(t, summaries.summaries)
}

func TestMemoryExtractor_ProcessConversationRequiresUser(t *testing.T) {
	e, _, _, _ := newRuleMemoryExtractor()

	_, err := e.ProcessConversation(context.Background(), uuid.Nil, uuid.New(), userMessages("hi"))
	assert.ErrorIs(t, err, ErrUserIDMissing)
}

func TestMemoryExtractor_SummaryFromModel(t *testing.T) {
	router, backend := newExtractionRouter(t)
	backend.SetResponse("json-model", "[]")
	backend.SetResponse("summary-model", "  User wants to run a 10k in spring.  ")
	e := NewMemoryExtractor(newMockFactStore(), &mockSummaryStore{}, newMockProfileStore(), router, 0, zap.NewNop())

	s, err := e.SummarizeConversation(context.Background(), userMessages("I want to run a 10k by spring"), uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.Equal(t, "User wants to run a 10k in spring.", s.Summary)
	assert.Contains(t, s.KeyTopics, "cardio")
}

func TestMemoryExtractor_ProcessConversationAsync(t *testing.T) {
	e, facts, summaries, _ := newRuleMemoryExtractor()
	userID := uuid.New()

	e.ProcessConversationAsync(userID, uuid.New(), userMessages("I prefer morning workouts"))
	e.ProcessConversationAsync(userID, uuid.New(), userMessages("I'm allergic to peanuts"))
	e.Wait()

	assert.Len(t, facts.all(), 2)
	summaries.mu.Lock()
	defer summaries.mu.Unlock()
	assert.Len(t, summaries.summaries, 2)
}

func TestMemoryExtractor_AsyncFailureIsSwallowed(t *testing.T) {
	e, facts, _, _ := newRuleMemoryExtractor()
	facts.listErr = errors.New("db down")

	e.ProcessConversationAsync(uuid.New(), uuid.New(), userMessages("I prefer morning workouts"))
	e.Wait()

	assert.Empty(t, facts.all())
}
