package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"
)

// OllamaBackend serves models from a local or self-hosted Ollama daemon.
type OllamaBackend struct {
	client *api.Client
}

// NewOllamaBackend creates a backend for host. An empty host uses OLLAMA_HOST
// or http://localhost:11434.
func NewOllamaBackend(host string) (*OllamaBackend, error) {
	if host == "" {
		client, err := api.ClientFromEnvironment()
		if err != nil {
			return nil, fmt.Errorf("create ollama client: %w", err)
		}
		return &OllamaBackend{client: client}, nil
	}

	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "http://" + host
	}
	baseURL, err := url.Parse(host)
	if err != nil {
		return nil, fmt.Errorf("invalid ollama host: %w", err)
	}
	return &OllamaBackend{client: api.NewClient(baseURL, &http.Client{})}, nil
}

func (b *OllamaBackend) Provider() string {
	return ProviderOllama
}

func (b *OllamaBackend) chatRequest(req Request, stream bool) *api.ChatRequest {
	msgs := make([]api.Message, 0, len(req.Messages))
	for _, m := range req.Messages {
		msgs = append(msgs, api.Message{Role: m.Role, Content: m.Content})
	}

	options := map[string]any{"temperature": req.Temperature}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}

	return &api.ChatRequest{
		Model:    req.Model,
		Messages: msgs,
		Stream:   &stream,
		Options:  options,
	}
}

func (b *OllamaBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	var sb strings.Builder
	var final api.ChatResponse
	err := b.client.Chat(ctx, b.chatRequest(req, false), func(resp api.ChatResponse) error {
		sb.WriteString(resp.Message.Content)
		final = resp
		return nil
	})
	if err != nil {
		return nil, convertOllamaError(req.Model, err)
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("ollama %s: %w", req.Model, ErrEmptyOutput)
	}

	return &Response{
		Text:         strings.TrimSpace(sb.String()),
		Model:        req.Model,
		Provider:     ProviderOllama,
		InputTokens:  int64(final.PromptEvalCount),
		OutputTokens: int64(final.EvalCount),
	}, nil
}

// Stream adapts Ollama's callback API to a pull stream. It waits for the first
// chunk so request failures, rate limits included, are returned here rather
// than from Next. The producer goroutine exits when the response ends or the
// stream is closed.
func (b *OllamaBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	ctx, cancel := context.WithCancel(ctx)
	s := &ollamaStream{
		model:  req.Model,
		chunks: make(chan string),
		done:   make(chan error, 1),
		cancel: cancel,
	}

	go func() {
		defer close(s.chunks)
		err := b.client.Chat(ctx, b.chatRequest(req, true), func(resp api.ChatResponse) error {
			if resp.Message.Content == "" {
				return nil
			}
			select {
			case s.chunks <- resp.Message.Content:
				return nil
			case <-ctx.Done():
				return ctx.Err()
			}
		})
		s.done <- err
	}()

	first, ok := <-s.chunks
	if ok {
		s.pending = &first
		return s, nil
	}
	s.finished = true
	if err := <-s.done; err != nil {
		cancel()
		return nil, convertOllamaError(req.Model, err)
	}
	return s, nil
}

type ollamaStream struct {
	model     string
	chunks    chan string
	done      chan error
	cancel    context.CancelFunc
	pending   *string
	chunk     string
	err       error
	finished  bool
	closeOnce sync.Once
}

func (s *ollamaStream) Next() bool {
	if s.pending != nil {
		s.chunk, s.pending = *s.pending, nil
		return true
	}
	if s.finished {
		return false
	}
	chunk, ok := <-s.chunks
	if ok {
		s.chunk = chunk
		return true
	}
	s.finished = true
	if err := <-s.done; err != nil && !errors.Is(err, context.Canceled) {
		s.err = convertOllamaError(s.model, err)
	}
	return false
}

func (s *ollamaStream) Chunk() string {
	return s.chunk
}

func (s *ollamaStream) Err() error {
	return s.err
}

func (s *ollamaStream) Close() error {
	s.closeOnce.Do(s.cancel)
	return nil
}

func convertOllamaError(model string, err error) error {
	var statusErr api.StatusError
	if errors.As(err, &statusErr) {
		if statusErr.StatusCode == http.StatusTooManyRequests {
			return &RateLimitError{Provider: ProviderOllama, Model: model, Message: statusErr.ErrorMessage, Err: err}
		}
		return fmt.Errorf("ollama API error (status %d): %w", statusErr.StatusCode, err)
	}
	return fmt.Errorf("ollama chat request failed: %w", err)
}
