package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/service"
)

type SummaryRunner interface {
	Run(ctx context.Context, now time.Time) (*service.SummarizerResult, error)
}

// JobHandler lets an external scheduler trigger the period summary batch.
type JobHandler struct {
	summarizer SummaryRunner
	now        func() time.Time
}

func NewJobHandler(summarizer SummaryRunner) *JobHandler {
	return &JobHandler{summarizer: summarizer, now: time.Now}
}

type runSummariesRequest struct {
	// At is an RFC 3339 timestamp or a YYYY-MM-DD date. Empty means now.
	At string `json:"at,omitempty"`
}

func (h *JobHandler) RunPeriodSummaries(w http.ResponseWriter, r *http.Request) {
	var req runSummariesRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	at := h.now()
	if req.At != "" {
		t, err := ParseRunTime(req.At)
		if err != nil {
			writeError(w, http.StatusBadRequest, "at must be RFC 3339 or YYYY-MM-DD")
			return
		}
		at = t
	}

	result, err := h.summarizer.Run(r.Context(), at)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "period summary run failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// ParseRunTime accepts an RFC 3339 timestamp or a bare UTC date.
func ParseRunTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse(time.DateOnly, s)
}
