package llm

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIBackend talks to OpenAI and to OpenAI-compatible endpoints
// (Cerebras, Gemini) selected by base URL.
type OpenAIBackend struct {
	provider string
	client   *openai.Client
}

func NewOpenAIBackend(provider, apiKey, baseURL string) *OpenAIBackend {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &OpenAIBackend{
		provider: provider,
		client:   openai.NewClientWithConfig(config),
	}
}

func (b *OpenAIBackend) Provider() string {
	return b.provider
}

func (b *OpenAIBackend) chatRequest(req Request, stream bool) openai.ChatCompletionRequest {
	msgs := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := openai.ChatMessageRoleUser
		switch m.Role {
		case domain.RoleSystem:
			role = openai.ChatMessageRoleSystem
		case domain.RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		}
		msgs = append(msgs, openai.ChatCompletionMessage{Role: role, Content: m.Content})
	}

	chatReq := openai.ChatCompletionRequest{
		Model:       req.Model,
		Messages:    msgs,
		Temperature: float32(req.Temperature),
		Stream:      stream,
	}
	if req.MaxTokens > 0 {
		chatReq.MaxTokens = req.MaxTokens
	}
	return chatReq
}

func (b *OpenAIBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	resp, err := b.client.CreateChatCompletion(ctx, b.chatRequest(req, false))
	if err != nil {
		return nil, b.convertError(req.Model, err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%s %s: %w", b.provider, req.Model, ErrEmptyOutput)
	}

	return &Response{
		Text:         strings.TrimSpace(resp.Choices[0].Message.Content),
		Model:        req.Model,
		Provider:     b.provider,
		InputTokens:  int64(resp.Usage.PromptTokens),
		OutputTokens: int64(resp.Usage.CompletionTokens),
	}, nil
}

func (b *OpenAIBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	stream, err := b.client.CreateChatCompletionStream(ctx, b.chatRequest(req, true))
	if err != nil {
		return nil, b.convertError(req.Model, err)
	}
	return &openaiStream{backend: b, model: req.Model, stream: stream}, nil
}

func (b *OpenAIBackend) convertError(model string, err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		if apiErr.HTTPStatusCode == http.StatusTooManyRequests || quotaMessage(apiErr.Message) {
			return &RateLimitError{Provider: b.provider, Model: model, Message: apiErr.Message, Err: err}
		}
		return fmt.Errorf("%s API error (status %d): %w", b.provider, apiErr.HTTPStatusCode, err)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode == http.StatusTooManyRequests {
		return &RateLimitError{Provider: b.provider, Model: model, Message: reqErr.Error(), Err: err}
	}
	return fmt.Errorf("%s request failed: %w", b.provider, err)
}

type openaiStream struct {
	backend *OpenAIBackend
	model   string
	stream  *openai.ChatCompletionStream
	chunk   string
	err     error
	done    bool
}

func (s *openaiStream) Next() bool {
	if s.done {
		return false
	}
	for {
		resp, err := s.stream.Recv()
		if err != nil {
			s.done = true
			if !errors.Is(err, io.EOF) {
				s.err = s.backend.convertError(s.model, err)
			}
			return false
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
			continue
		}
		s.chunk = resp.Choices[0].Delta.Content
		return true
	}
}

func (s *openaiStream) Chunk() string {
	return s.chunk
}

func (s *openaiStream) Err() error {
	return s.err
}

func (s *openaiStream) Close() error {
	s.done = true
	return s.stream.Close()
}
