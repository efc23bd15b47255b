package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/google/uuid"
)

// MemoryReader exposes the context builder's standalone reads.
type MemoryReader interface {
	GetMemoryFacts(ctx context.Context, userID uuid.UUID, limit int, minConfidence *float64) ([]domain.MemoryFact, error)
	GetRecentConversationSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationSummary, error)
	GetPreferenceProfile(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error)
}

type MemoryHandler struct {
	reader MemoryReader
}

func NewMemoryHandler(reader MemoryReader) *MemoryHandler {
	return &MemoryHandler{reader: reader}
}

func (h *MemoryHandler) ListFacts(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	limit, ok := intQuery(r, "limit", 20)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	var minConfidence *float64
	if raw := r.URL.Query().Get("min_confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 1 {
			writeError(w, http.StatusBadRequest, "min_confidence must be between 0 and 1")
			return
		}
		minConfidence = &v
	}

	facts, err := h.reader.GetMemoryFacts(r.Context(), userID, limit, minConfidence)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list facts")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"facts": facts})
}

func (h *MemoryHandler) ListSummaries(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	limit, ok := intQuery(r, "limit", 5)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid limit")
		return
	}

	summaries, err := h.reader.GetRecentConversationSummaries(r.Context(), userID, limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to list summaries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"summaries": summaries})
}

func (h *MemoryHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	profile, err := h.reader.GetPreferenceProfile(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "failed to load preferences")
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
