package store

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ConversationSummaryStore struct {
	db *pgxpool.Pool
}

func NewConversationSummaryStore(db *pgxpool.Pool) *ConversationSummaryStore {
	return &ConversationSummaryStore{db: db}
}

func (s *ConversationSummaryStore) Create(ctx context.Context, cs *domain.ConversationSummary) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO conversation_summaries (user_id, conversation_id, summary, key_topics, extracted_facts, action_items, sentiment)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at`,
		cs.UserID, cs.ConversationID, cs.Summary, nonNil(cs.KeyTopics), nonNilIDs(cs.ExtractedFacts), nonNil(cs.ActionItems), cs.Sentiment,
	).Scan(&cs.ID, &cs.CreatedAt)
}

// ListRecent returns the newest summaries first.
func (s *ConversationSummaryStore) ListRecent(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationSummary, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, user_id, conversation_id, summary, key_topics, extracted_facts, action_items, sentiment, created_at
		 FROM conversation_summaries
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`,
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list conversation summaries: %w", err)
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (domain.ConversationSummary, error) {
		var cs domain.ConversationSummary
		err := row.Scan(&cs.ID, &cs.UserID, &cs.ConversationID, &cs.Summary, &cs.KeyTopics, &cs.ExtractedFacts, &cs.ActionItems, &cs.Sentiment, &cs.CreatedAt)
		return cs, err
	})
}

func nonNil(xs []string) []string {
	if xs == nil {
		return []string{}
	}
	return xs
}

func nonNilIDs(xs []uuid.UUID) []uuid.UUID {
	if xs == nil {
		return []uuid.UUID{}
	}
	return xs
}
