package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type ConversationProcessor interface {
	ProcessConversation(ctx context.Context, userID, conversationID uuid.UUID, messages []domain.Message) (*service.ExtractionResult, error)
	ProcessConversationAsync(userID, conversationID uuid.UUID, messages []domain.Message)
}

type ExtractionHandler struct {
	processor ConversationProcessor
}

func NewExtractionHandler(processor ConversationProcessor) *ExtractionHandler {
	return &ExtractionHandler{processor: processor}
}

type extractRequest struct {
	Messages []domain.Message `json:"messages"`
	Wait     bool             `json:"wait,omitempty"`
}

// Extract mines the tail of a conversation for facts and a summary. By default it
// returns 202 immediately; with "wait" it runs inline and returns the result.
func (h *ExtractionHandler) Extract(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}
	conversationID, err := uuid.Parse(chi.URLParam(r, "conversationID"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid conversation id")
		return
	}

	var req extractRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if len(req.Messages) == 0 {
		writeError(w, http.StatusBadRequest, service.ErrNoMessages.Error())
		return
	}

	if !req.Wait {
		h.processor.ProcessConversationAsync(userID, conversationID, req.Messages)
		writeJSON(w, http.StatusAccepted, map[string]string{"status": "accepted"})
		return
	}

	result, err := h.processor.ProcessConversation(r.Context(), userID, conversationID, req.Messages)
	if err != nil {
		if errors.Is(err, service.ErrUserIDMissing) || errors.Is(err, service.ErrNoMessages) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, "extraction failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}
