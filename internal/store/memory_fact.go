package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const factColumns = `id, user_id, fact_type, content, confidence, source, metadata, is_active, created_at, updated_at`

type MemoryFactStore struct {
	db *pgxpool.Pool
}

func NewMemoryFactStore(db *pgxpool.Pool) *MemoryFactStore {
	return &MemoryFactStore{db: db}
}

func (s *MemoryFactStore) Create(ctx context.Context, f *domain.MemoryFact) error {
	if f.Source == "" {
		f.Source = domain.FactSourceConversation
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO memory_facts (user_id, fact_type, content, confidence, source, metadata, is_active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		f.UserID, f.FactType, f.Content, f.Confidence, f.Source, f.Metadata, f.IsActive,
	).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
}

// List returns facts ordered by confidence, highest first.
func (s *MemoryFactStore) List(ctx context.Context, userID uuid.UUID, q domain.FactQuery) ([]domain.MemoryFact, error) {
	b := psql.Select(factColumns).
		From("memory_facts").
		Where(sq.Eq{"user_id": userID}).
		OrderBy("confidence DESC", "updated_at DESC")
	if q.ActiveOnly {
		b = b.Where(sq.Eq{"is_active": true})
	}
	if q.MinConfidence != nil {
		b = b.Where(sq.GtOrEq{"confidence": *q.MinConfidence})
	}
	if len(q.Types) > 0 {
		types := make([]string, len(q.Types))
		for i, t := range q.Types {
			types[i] = string(t)
		}
		b = b.Where(sq.Eq{"fact_type": types})
	}
	if q.Limit > 0 {
		b = b.Limit(uint64(q.Limit))
	}

	facts, err := queryRows(ctx, s.db, b, scanFact)
	if err != nil {
		return nil, fmt.Errorf("list memory facts: %w", err)
	}
	return facts, nil
}

func (s *MemoryFactStore) ListActiveByType(ctx context.Context, userID uuid.UUID, factType domain.FactType) ([]domain.MemoryFact, error) {
	return s.List(ctx, userID, domain.FactQuery{ActiveOnly: true, Types: []domain.FactType{factType}})
}

func (s *MemoryFactStore) Update(ctx context.Context, f *domain.MemoryFact) error {
	err := s.db.QueryRow(ctx,
		`UPDATE memory_facts
		 SET content = $2, confidence = $3, metadata = $4, is_active = $5, updated_at = NOW()
		 WHERE id = $1
		 RETURNING updated_at`,
		f.ID, f.Content, f.Confidence, f.Metadata, f.IsActive,
	).Scan(&f.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func (s *MemoryFactStore) Deactivate(ctx context.Context, id uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE memory_facts SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanFact(row pgx.CollectableRow) (domain.MemoryFact, error) {
	var f domain.MemoryFact
	err := row.Scan(&f.ID, &f.UserID, &f.FactType, &f.Content, &f.Confidence, &f.Source, &f.Metadata, &f.IsActive, &f.CreatedAt, &f.UpdatedAt)
	return f, err
}
