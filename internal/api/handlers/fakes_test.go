package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type fakeBuilder struct {
	snap     *domain.UserContextSnapshot
	err      error
	lastUser uuid.UUID

	facts       []domain.MemoryFact
	lastLimit   int
	lastMinConf *float64
	summaries   []domain.ConversationSummary
	profile     *domain.PreferenceProfile
	readErr     error
}

func (f *fakeBuilder) BuildContext(ctx context.Context, userID uuid.UUID) (*domain.UserContextSnapshot, error) {
	f.lastUser = userID
	return f.snap, f.err
}

func (f *fakeBuilder) GetMemoryFacts(ctx context.Context, userID uuid.UUID, limit int, minConfidence *float64) ([]domain.MemoryFact, error) {
	f.lastUser, f.lastLimit, f.lastMinConf = userID, limit, minConfidence
	return f.facts, f.readErr
}

func (f *fakeBuilder) GetRecentConversationSummaries(ctx context.Context, userID uuid.UUID, limit int) ([]domain.ConversationSummary, error) {
	f.lastUser, f.lastLimit = userID, limit
	return f.summaries, f.readErr
}

func (f *fakeBuilder) GetPreferenceProfile(ctx context.Context, userID uuid.UUID) (*domain.PreferenceProfile, error) {
	f.lastUser = userID
	return f.profile, f.readErr
}

type fakeCompressor struct {
	out        *domain.CompressedContext
	err        error
	lastBudget int
	lastQuery  string
}

func (f *fakeCompressor) CompressContext(snap *domain.UserContextSnapshot, tokenBudget int, opts service.CompressOptions) (*domain.CompressedContext, error) {
	f.lastBudget, f.lastQuery = tokenBudget, opts.Query
	return f.out, f.err
}

type fakeProcessor struct {
	mu         sync.Mutex
	asyncCalls int
	result     *service.ExtractionResult
	err        error
	lastConv   uuid.UUID
}

func (f *fakeProcessor) ProcessConversation(ctx context.Context, userID, conversationID uuid.UUID, messages []domain.Message) (*service.ExtractionResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastConv = conversationID
	return f.result, f.err
}

func (f *fakeProcessor) ProcessConversationAsync(userID, conversationID uuid.UUID, messages []domain.Message) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.asyncCalls++
	f.lastConv = conversationID
}

type fakeStream struct {
	chunks []string
	i      int
	err    error
	closed bool
}

func (s *fakeStream) Next() bool {
	if s.i >= len(s.chunks) {
		return false
	}
	s.i++
	return true
}

func (s *fakeStream) Chunk() string { return s.chunks[s.i-1] }
func (s *fakeStream) Err() error    { return s.err }
func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

type fakeCompleter struct {
	result   *service.CompletionResult
	stream   *fakeStream
	err      error
	lastTask service.TaskConfig
}

func (f *fakeCompleter) Complete(ctx context.Context, task service.TaskConfig, messages []domain.Message, opts service.CompletionOptions) (*service.CompletionResult, error) {
	f.lastTask = task
	return f.result, f.err
}

func (f *fakeCompleter) Stream(ctx context.Context, task service.TaskConfig, messages []domain.Message, opts service.CompletionOptions) (llm.Stream, error) {
	f.lastTask = task
	if f.err != nil {
		return nil, f.err
	}
	return f.stream, nil
}

func (f *fakeCompleter) Status() service.RouterStatus {
	return service.RouterStatus{FailingModels: []string{}, Usage: map[string]int64{"mock/mock-small": 2}}
}

type fakeRunner struct {
	result *service.SummarizerResult
	err    error
	lastAt time.Time
}

func (f *fakeRunner) Run(ctx context.Context, now time.Time) (*service.SummarizerResult, error) {
	f.lastAt = now
	return f.result, f.err
}

// serve routes a single request through a chi router so URL params resolve.
func serve(method, pattern, target, body string, h http.HandlerFunc) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	r.MethodFunc(method, pattern, h)

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}
