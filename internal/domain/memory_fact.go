package domain

import (
	"time"

	"github.com/google/uuid"
)

type FactType string

const (
	FactTypePreference  FactType = "preference"
	FactTypeGoal        FactType = "goal"
	FactTypeConstraint  FactType = "constraint"
	FactTypeAchievement FactType = "achievement"
	FactTypeRoutine     FactType = "routine"
)

func ValidFactType(t string) bool {
	switch FactType(t) {
	case FactTypePreference, FactTypeGoal, FactTypeConstraint, FactTypeAchievement, FactTypeRoutine:
		return true
	}
	return false
}

type FactSource string

const (
	FactSourceConversation FactSource = "conversation"
	FactSourceManual       FactSource = "manual"
	FactSourceInferred     FactSource = "inferred"
)

func ValidFactSource(s string) bool {
	switch FactSource(s) {
	case FactSourceConversation, FactSourceManual, FactSourceInferred:
		return true
	}
	return false
}

// DefaultFactConfidence is assigned to rule-based facts with no hedging signal.
const DefaultFactConfidence = 0.8

// MemoryFact is one durable, structured claim about a user.
// Facts are deactivated rather than deleted so history stays auditable.
type MemoryFact struct {
	ID         uuid.UUID         `json:"id"`
	UserID     uuid.UUID         `json:"user_id"`
	FactType   FactType          `json:"fact_type"`
	Content    string            `json:"content"`
	Confidence float64           `json:"confidence"`
	Source     FactSource        `json:"source"`
	Metadata   map[string]string `json:"metadata,omitempty"`
	IsActive   bool              `json:"is_active"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// IsConstraint reports whether the fact is safety relevant and must survive filtering.
func (f MemoryFact) IsConstraint() bool {
	return f.FactType == FactTypeConstraint
}

// ExtractedFact is a fact produced by extraction that has not been persisted yet.
type ExtractedFact struct {
	Type       FactType          `json:"type"`
	Content    string            `json:"content"`
	Confidence float64           `json:"confidence"`
	Metadata   map[string]string `json:"metadata,omitempty"`
}

// ToMemoryFact turns an extraction result into an active conversation fact for userID.
func (e ExtractedFact) ToMemoryFact(userID uuid.UUID) *MemoryFact {
	return &MemoryFact{
		UserID:     userID,
		FactType:   e.Type,
		Content:    e.Content,
		Confidence: e.Confidence,
		Source:     FactSourceConversation,
		Metadata:   e.Metadata,
		IsActive:   true,
	}
}

// FactQuery filters fact reads. A nil MinConfidence applies no floor.
type FactQuery struct {
	Limit         int
	MinConfidence *float64
	Types         []FactType
	ActiveOnly    bool
}
