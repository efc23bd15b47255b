package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"go.uber.org/zap"
)

type Completer interface {
	Complete(ctx context.Context, task service.TaskConfig, messages []domain.Message, opts service.CompletionOptions) (*service.CompletionResult, error)
	Stream(ctx context.Context, task service.TaskConfig, messages []domain.Message, opts service.CompletionOptions) (llm.Stream, error)
	Status() service.RouterStatus
}

type CompletionHandler struct {
	router Completer
	logger *zap.Logger
}

func NewCompletionHandler(router Completer, logger *zap.Logger) *CompletionHandler {
	return &CompletionHandler{router: router, logger: logger}
}

type completionRequest struct {
	Task             string           `json:"task"`
	CriticalAccuracy bool             `json:"critical_accuracy,omitempty"`
	Criteria         string           `json:"criteria,omitempty"`
	Messages         []domain.Message `json:"messages"`
	MaxTokens        int              `json:"max_tokens,omitempty"`
	Temperature      *float64         `json:"temperature,omitempty"`
}

func (req completionRequest) validate() error {
	if !service.ValidTaskCategory(req.Task) {
		return fmt.Errorf("unknown task %q", req.Task)
	}
	if len(req.Messages) == 0 {
		return service.ErrNoMessages
	}
	if req.MaxTokens < 0 {
		return errors.New("max_tokens must be positive")
	}
	return nil
}

func (req completionRequest) task() service.TaskConfig {
	return service.TaskConfig{
		Category:         service.TaskCategory(req.Task),
		CriticalAccuracy: req.CriticalAccuracy,
		Criteria:         req.Criteria,
	}
}

func (req completionRequest) options() service.CompletionOptions {
	return service.CompletionOptions{MaxTokens: req.MaxTokens, Temperature: req.Temperature}
}

func (h *CompletionHandler) decode(w http.ResponseWriter, r *http.Request) (completionRequest, bool) {
	var req completionRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return req, false
	}
	if err := req.validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return req, false
	}
	return req, true
}

func (h *CompletionHandler) Complete(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}

	result, err := h.router.Complete(r.Context(), req.task(), req.Messages, req.options())
	if err != nil {
		h.writeRouterError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Stream relays chunks as server-sent events. Each chunk is a "data:" line with
// {"text": ...}; the stream ends with a "done" or "error" event.
func (h *CompletionHandler) Stream(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	stream, err := h.router.Stream(r.Context(), req.task(), req.Messages, req.options())
	if err != nil {
		h.writeRouterError(w, err)
		return
	}
	defer stream.Close()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	for stream.Next() {
		writeEvent(w, "", map[string]string{"text": stream.Chunk()})
		flusher.Flush()
	}
	if err := stream.Err(); err != nil {
		if r.Context().Err() == nil {
			h.logger.Warn("completion stream failed", zap.String("task", req.Task), zap.Error(err))
			writeEvent(w, "error", map[string]string{"error": "stream interrupted"})
			flusher.Flush()
		}
		return
	}
	writeEvent(w, "done", struct{}{})
	flusher.Flush()
}

func writeEvent(w http.ResponseWriter, event string, v any) {
	data, _ := json.Marshal(v)
	if event != "" {
		_, _ = fmt.Fprintf(w, "event: %s\n", event)
	}
	_, _ = fmt.Fprintf(w, "data: %s\n\n", data)
}

func (h *CompletionHandler) Status(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.router.Status())
}

func (h *CompletionHandler) writeRouterError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrNoModelForTask), errors.Is(err, service.ErrNoMessages):
		writeError(w, http.StatusBadRequest, err.Error())
	case llm.IsRateLimit(err):
		w.Header().Set("Retry-After", "30")
		writeError(w, http.StatusTooManyRequests, "all models for this task are rate limited")
	default:
		h.logger.Error("completion failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "generation backend failed")
	}
}
