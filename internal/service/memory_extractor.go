package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/Harshitk-cp/coachmind/internal/tokenizer"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	DefaultExtractionWindow = 6
	extractionTimeout       = 60 * time.Second
	maxTranscriptTokens     = 3000
)

// ModelExtractor asks the router for a JSON array of facts and falls back to
// the rule-based extractor when the call or the parse fails.
type ModelExtractor struct {
	router   *ModelRouter
	fallback FactExtractor
	logger   *zap.Logger
}

func NewModelExtractor(router *ModelRouter, logger *zap.Logger) *ModelExtractor {
	return &ModelExtractor{
		router:   router,
		fallback: NewRuleBasedExtractor(),
		logger:   logger,
	}
}

type modelFact struct {
	Type       string         `json:"type"`
	Content    string         `json:"content"`
	Confidence *float64       `json:"confidence"`
	Metadata   map[string]any `json:"metadata"`
}

func (e *ModelExtractor) Extract(ctx context.Context, messages []domain.Message) ([]domain.ExtractedFact, error) {
	transcript := formatTranscript(userMessagesOnly(filterMessages(messages)))
	if transcript == "" {
		return []domain.ExtractedFact{}, nil
	}
	transcript = tokenizer.Truncate(transcript, maxTranscriptTokens)

	prompt := []domain.Message{{Role: domain.RoleUser, Content: fmt.Sprintf(llm.ExtractFactsPrompt, transcript)}}
	res, err := e.router.Complete(ctx, TaskConfig{Category: TaskStructuredOutput}, prompt, CompletionOptions{})
	if err != nil {
		e.logger.Warn("model fact extraction failed, using rules", zap.Error(err))
		return e.fallback.Extract(ctx, messages)
	}

	facts, err := parseModelFacts(res.Text)
	if err != nil {
		e.logger.Warn("model fact extraction unparseable, using rules", zap.Error(err))
		return e.fallback.Extract(ctx, messages)
	}
	return facts, nil
}

func parseModelFacts(text string) ([]domain.ExtractedFact, error) {
	var raw []modelFact
	if err := json.Unmarshal([]byte(stripJSONFences(text)), &raw); err != nil {
		return nil, fmt.Errorf("parse extracted facts: %w", err)
	}

	facts := make([]domain.ExtractedFact, 0, len(raw))
	for _, r := range raw {
		content := strings.TrimSpace(r.Content)
		if content == "" || !domain.ValidFactType(r.Type) {
			continue
		}
		f := domain.ExtractedFact{
			Type:       domain.FactType(r.Type),
			Content:    content,
			Confidence: domain.DefaultFactConfidence,
		}
		if r.Confidence != nil {
			f.Confidence = math.Min(1, math.Max(0, *r.Confidence))
		}
		if len(r.Metadata) > 0 {
			f.Metadata = make(map[string]string, len(r.Metadata))
			for k, v := range r.Metadata {
				f.Metadata[k] = fmt.Sprint(v)
			}
		}
		if f.Type == domain.FactTypeConstraint && allergyTrigger.MatchString(content) {
			f.Confidence = allergyConfidence
		}
		facts = append(facts, f)
	}
	return dedupeExtracted(facts), nil
}

func formatTranscript(messages []domain.Message) string {
	var sb strings.Builder
	for _, m := range messages {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, strings.TrimSpace(m.Content))
	}
	return strings.TrimSpace(sb.String())
}

// ExtractionResult is what one ProcessConversation pass persisted.
type ExtractionResult struct {
	Facts   []domain.MemoryFact         `json:"facts"`
	Summary *domain.ConversationSummary `json:"summary"`
}

// MemoryExtractor turns conversation windows into persisted facts, a summary and
// preference profile updates.
type MemoryExtractor struct {
	factStore    domain.MemoryFactStore
	summaryStore domain.ConversationSummaryStore
	profileStore domain.PreferenceProfileStore
	router       *ModelRouter
	extractor    FactExtractor
	window       int
	logger       *zap.Logger

	wg sync.WaitGroup
}

// NewMemoryExtractor picks the model-backed strategy when the router has a backend
// configured and the rule-based one otherwise.
func NewMemoryExtractor(
	factStore domain.MemoryFactStore,
	summaryStore domain.ConversationSummaryStore,
	profileStore domain.PreferenceProfileStore,
	router *ModelRouter,
	window int,
	logger *zap.Logger,
) *MemoryExtractor {
	var extractor FactExtractor = NewRuleBasedExtractor()
	if router.Available() {
		extractor = NewModelExtractor(router, logger)
	}
	if window <= 0 {
		window = DefaultExtractionWindow
	}
	return &MemoryExtractor{
		factStore:    factStore,
		summaryStore: summaryStore,
		profileStore: profileStore,
		router:       router,
		extractor:    extractor,
		window:       window,
		logger:       logger,
	}
}

func (e *MemoryExtractor) ExtractFactsFromConversation(ctx context.Context, messages []domain.Message, userID uuid.UUID) ([]domain.ExtractedFact, error) {
	filtered := filterMessages(messages)
	if len(filtered) == 0 {
		return []domain.ExtractedFact{}, nil
	}
	facts, err := e.extractor.Extract(ctx, filtered)
	if err != nil {
		return nil, fmt.Errorf("extract facts for user %s: %w", userID, err)
	}
	return facts, nil
}

// SummarizeConversation builds an unsaved summary. The summary text comes from the
// router when available; topics, action items and sentiment are always lexical.
func (e *MemoryExtractor) SummarizeConversation(ctx context.Context, messages []domain.Message, userID, conversationID uuid.UUID) (*domain.ConversationSummary, error) {
	filtered := filterMessages(messages)
	if len(filtered) == 0 {
		return nil, ErrNoMessages
	}

	summary := &domain.ConversationSummary{
		UserID:         userID,
		ConversationID: conversationID,
		KeyTopics:      ExtractTopics(filtered),
		ExtractedFacts: []uuid.UUID{},
		ActionItems:    ExtractActionItems(filtered),
		Sentiment:      AnalyzeSentiment(filtered),
	}
	summary.Summary = e.summaryText(ctx, filtered, summary)
	return summary, nil
}

func (e *MemoryExtractor) summaryText(ctx context.Context, messages []domain.Message, s *domain.ConversationSummary) string {
	if e.router.Available() {
		transcript := tokenizer.Truncate(formatTranscript(messages), maxTranscriptTokens)
		prompt := []domain.Message{{Role: domain.RoleUser, Content: fmt.Sprintf(llm.SummarizeConversationPrompt, transcript)}}
		res, err := e.router.Complete(ctx, TaskConfig{Category: TaskSimpleExtraction}, prompt, CompletionOptions{})
		if err == nil && strings.TrimSpace(res.Text) != "" {
			return strings.TrimSpace(res.Text)
		}
		e.logger.Warn("model summary failed, using rules", zap.Error(err))
	}
	return ruleSummary(messages, s)
}

func ruleSummary(messages []domain.Message, s *domain.ConversationSummary) string {
	var sb strings.Builder
	userTurns := len(userMessagesOnly(messages))
	if len(s.KeyTopics) > 0 {
		topics := lo.Map(s.KeyTopics, func(t string, _ int) string { return strings.ReplaceAll(t, "_", " ") })
		fmt.Fprintf(&sb, "Conversation about %s over %d user messages.", strings.Join(topics, ", "), userTurns)
	} else {
		fmt.Fprintf(&sb, "General check-in over %d user messages.", userTurns)
	}
	if len(s.ActionItems) > 0 {
		fmt.Fprintf(&sb, " Committed to: %s.", strings.Join(s.ActionItems, "; "))
	}
	if s.Sentiment != domain.SentimentNeutral {
		fmt.Fprintf(&sb, " User seemed %s.", s.Sentiment)
	}
	return sb.String()
}

// ProcessConversation extracts from the last window of messages, persists facts
// with de-duplication, stores the summary and merges facts into the preference profile.
func (e *MemoryExtractor) ProcessConversation(ctx context.Context, userID, conversationID uuid.UUID, messages []domain.Message) (*ExtractionResult, error) {
	if userID == uuid.Nil {
		return nil, ErrUserIDMissing
	}
	if len(messages) > e.window {
		messages = messages[len(messages)-e.window:]
	}
	if len(filterMessages(messages)) == 0 {
		return &ExtractionResult{Facts: []domain.MemoryFact{}}, nil
	}

	extracted, err := e.ExtractFactsFromConversation(ctx, messages, userID)
	if err != nil {
		return nil, err
	}

	saved := make([]domain.MemoryFact, 0, len(extracted))
	cache := make(map[domain.FactType][]domain.MemoryFact)
	for _, ef := range extracted {
		f, err := e.saveFact(ctx, userID, ef, cache)
		if err != nil {
			return nil, err
		}
		saved = append(saved, *f)
	}

	summary, err := e.SummarizeConversation(ctx, messages, userID, conversationID)
	if err != nil {
		return nil, err
	}
	summary.ExtractedFacts = lo.Map(saved, func(f domain.MemoryFact, _ int) uuid.UUID { return f.ID })
	if err := e.summaryStore.Create(ctx, summary); err != nil {
		return nil, fmt.Errorf("store conversation summary: %w", err)
	}

	if len(saved) > 0 {
		if err := e.updatePreferenceProfile(ctx, userID, saved); err != nil {
			return nil, err
		}
	}

	e.logger.Info("conversation processed",
		zap.String("user_id", userID.String()),
		zap.String("conversation_id", conversationID.String()),
		zap.Int("facts", len(saved)),
		zap.String("sentiment", string(summary.Sentiment)))

	return &ExtractionResult{Facts: saved, Summary: summary}, nil
}

// saveFact updates an active fact with the same type and normalized content in
// place, keeping the higher confidence, or inserts a new one.
func (e *MemoryExtractor) saveFact(ctx context.Context, userID uuid.UUID, ef domain.ExtractedFact, cache map[domain.FactType][]domain.MemoryFact) (*domain.MemoryFact, error) {
	existing, ok := cache[ef.Type]
	if !ok {
		var err error
		existing, err = e.factStore.ListActiveByType(ctx, userID, ef.Type)
		if err != nil {
			return nil, fmt.Errorf("list %s facts: %w", ef.Type, err)
		}
		cache[ef.Type] = existing
	}

	key := normalizeFactContent(ef.Content)
	for i := range existing {
		match := &existing[i]
		if normalizeFactContent(match.Content) != key {
			continue
		}
		match.Confidence = math.Max(match.Confidence, ef.Confidence)
		if len(ef.Metadata) > 0 {
			match.Metadata = lo.Assign(match.Metadata, ef.Metadata)
		}
		match.UpdatedAt = time.Now().UTC()
		if err := e.factStore.Update(ctx, match); err != nil {
			return nil, fmt.Errorf("update fact: %w", err)
		}
		return match, nil
	}

	f := ef.ToMemoryFact(userID)
	if err := e.factStore.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create fact: %w", err)
	}
	cache[ef.Type] = append(existing, *f)
	return f, nil
}

func (e *MemoryExtractor) updatePreferenceProfile(ctx context.Context, userID uuid.UUID, facts []domain.MemoryFact) error {
	profile, err := e.profileStore.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		profile = domain.NewPreferenceProfile(userID)
	} else if err != nil {
		return fmt.Errorf("get preference profile: %w", err)
	}

	if err := MergePreferenceProfile(profile, BuildPreferenceProfile(userID, facts)); err != nil {
		return err
	}
	if err := e.profileStore.Upsert(ctx, profile); err != nil {
		return fmt.Errorf("upsert preference profile: %w", err)
	}
	return nil
}

// ProcessConversationAsync runs ProcessConversation in the background. Failures are
// logged only; callers never wait on it except through Wait at shutdown.
func (e *MemoryExtractor) ProcessConversationAsync(userID, conversationID uuid.UUID, messages []domain.Message) {
	msgs := append([]domain.Message(nil), messages...)
	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), extractionTimeout)
		defer cancel()

		if _, err := e.ProcessConversation(ctx, userID, conversationID, msgs); err != nil {
			e.logger.Error("background extraction failed",
				zap.String("user_id", userID.String()),
				zap.String("conversation_id", conversationID.String()),
				zap.Error(err))
		}
	}()
}

// Wait blocks until in-flight background extractions finish.
func (e *MemoryExtractor) Wait() {
	e.wg.Wait()
}
