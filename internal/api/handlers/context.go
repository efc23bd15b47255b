package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type ContextBuilder interface {
	BuildContext(ctx context.Context, userID uuid.UUID) (*domain.UserContextSnapshot, error)
}

type ContextCompressor interface {
	CompressContext(snap *domain.UserContextSnapshot, tokenBudget int, opts service.CompressOptions) (*domain.CompressedContext, error)
}

// ContextHandler serves the build-then-compress path used before each chat turn.
type ContextHandler struct {
	builder       ContextBuilder
	compressor    ContextCompressor
	defaultBudget int
	logger        *zap.Logger
}

func NewContextHandler(builder ContextBuilder, compressor ContextCompressor, defaultBudget int, logger *zap.Logger) *ContextHandler {
	return &ContextHandler{builder: builder, compressor: compressor, defaultBudget: defaultBudget, logger: logger}
}

type contextRequest struct {
	TokenBudget     int    `json:"token_budget,omitempty"`
	Query           string `json:"query,omitempty"`
	IncludeSnapshot bool   `json:"include_snapshot,omitempty"`
}

type contextResponse struct {
	Context         *domain.CompressedContext   `json:"context"`
	TokenBudget     int                         `json:"token_budget"`
	EstimatedTokens int                         `json:"estimated_tokens"`
	Snapshot        *domain.UserContextSnapshot `json:"snapshot,omitempty"`
}

func (h *ContextHandler) Build(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	var req contextRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.TokenBudget < 0 {
		writeError(w, http.StatusBadRequest, "token_budget must be positive")
		return
	}
	budget := req.TokenBudget
	if budget == 0 {
		budget = h.defaultBudget
	}

	snap, err := h.builder.BuildContext(r.Context(), userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserIDMissing):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "user not found")
		case errors.Is(err, service.ErrContextFetchFailed):
			h.logger.Error("context build failed", zap.String("user_id", userID.String()), zap.Error(err))
			writeError(w, http.StatusServiceUnavailable, "context unavailable")
		default:
			writeError(w, http.StatusInternalServerError, "failed to build context")
		}
		return
	}

	compressed, err := h.compressor.CompressContext(snap, budget, service.CompressOptions{Query: req.Query})
	if err != nil {
		if errors.Is(err, service.ErrTokenBudgetTooSmall) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "failed to compress context")
		return
	}

	resp := contextResponse{Context: compressed, TokenBudget: budget, EstimatedTokens: compressed.EstimatedTokens}
	if req.IncludeSnapshot {
		resp.Snapshot = snap
	}
	writeJSON(w, http.StatusOK, resp)
}
