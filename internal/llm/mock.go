package llm

import (
	"context"
	"sync"
)

// MockBackend is a configurable backend for testing.
// Set the response fields to control what each model returns.
type MockBackend struct {
	mu sync.Mutex

	provider        string
	DefaultResponse string
	Responses       map[string]string
	Errors          map[string]error
	StreamChunks    []string

	// Call tracking for assertions
	Calls []Request
}

func NewMockBackend(provider string) *MockBackend {
	return &MockBackend{
		provider:        provider,
		DefaultResponse: "Mock response",
		Responses:       make(map[string]string),
		Errors:          make(map[string]error),
	}
}

func (b *MockBackend) Provider() string {
	return b.provider
}

// SetResponse sets the text returned for model.
func (b *MockBackend) SetResponse(model, text string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Responses[model] = text
}

// SetError makes every call to model fail with err. A nil err clears it.
func (b *MockBackend) SetError(model string, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err == nil {
		delete(b.Errors, model)
		return
	}
	b.Errors[model] = err
}

// CallsFor returns how many requests were sent to model.
func (b *MockBackend) CallsFor(model string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, c := range b.Calls {
		if c.Model == model {
			n++
		}
	}
	return n
}

func (b *MockBackend) record(req Request) (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.Calls = append(b.Calls, req)
	if err, ok := b.Errors[req.Model]; ok {
		return "", err
	}
	if text, ok := b.Responses[req.Model]; ok {
		return text, nil
	}
	return b.DefaultResponse, nil
}

func (b *MockBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	text, err := b.record(req)
	if err != nil {
		return nil, err
	}
	return &Response{Text: text, Model: req.Model, Provider: b.provider}, nil
}

func (b *MockBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	text, err := b.record(req)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	chunks := append([]string(nil), b.StreamChunks...)
	b.mu.Unlock()
	if len(chunks) == 0 {
		chunks = []string{text}
	}
	return &mockStream{ctx: ctx, chunks: chunks, pos: -1}, nil
}

// Reset clears all recorded calls and configured responses.
func (b *MockBackend) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.DefaultResponse = "Mock response"
	b.Responses = make(map[string]string)
	b.Errors = make(map[string]error)
	b.StreamChunks = nil
	b.Calls = nil
}

type mockStream struct {
	ctx    context.Context
	chunks []string
	pos    int
	err    error
	closed bool
}

func (s *mockStream) Next() bool {
	if s.closed {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.err = err
		return false
	}
	s.pos++
	return s.pos < len(s.chunks)
}

func (s *mockStream) Chunk() string {
	if s.pos < 0 || s.pos >= len(s.chunks) {
		return ""
	}
	return s.chunks[s.pos]
}

func (s *mockStream) Err() error {
	return s.err
}

func (s *mockStream) Close() error {
	s.closed = true
	return nil
}
