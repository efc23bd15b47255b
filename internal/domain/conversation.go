package domain

import (
	"time"

	"github.com/google/uuid"
)

type Sentiment string

const (
	SentimentPositive   Sentiment = "positive"
	SentimentNeutral    Sentiment = "neutral"
	SentimentFrustrated Sentiment = "frustrated"
	SentimentMotivated  Sentiment = "motivated"
)

func ValidSentiment(s string) bool {
	switch Sentiment(s) {
	case SentimentPositive, SentimentNeutral, SentimentFrustrated, SentimentMotivated:
		return true
	}
	return false
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one role-tagged conversation turn.
type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// ConversationSummary is written once per extraction pass and never mutated.
type ConversationSummary struct {
	ID             uuid.UUID   `json:"id"`
	UserID         uuid.UUID   `json:"user_id"`
	ConversationID uuid.UUID   `json:"conversation_id"`
	Summary        string      `json:"summary"`
	KeyTopics      []string    `json:"key_topics"`
	ExtractedFacts []uuid.UUID `json:"extracted_facts"`
	ActionItems    []string    `json:"action_items"`
	Sentiment      Sentiment   `json:"sentiment"`
	CreatedAt      time.Time   `json:"created_at"`
}
