package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"
)

const anthropicDefaultMaxTokens = 1024

type AnthropicBackend struct {
	client *anthropic.Client
}

func NewAnthropicBackend(apiKey string) *AnthropicBackend {
	client := anthropic.NewClient(option.WithAPIKey(apiKey))
	return &AnthropicBackend{client: &client}
}

func (b *AnthropicBackend) Provider() string {
	return ProviderAnthropic
}

func (b *AnthropicBackend) params(req Request) anthropic.MessageNewParams {
	system, turns := splitSystem(req.Messages)

	msgs := make([]anthropic.MessageParam, 0, len(turns))
	for _, m := range turns {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == domain.RoleAssistant {
			msgs = append(msgs, anthropic.NewAssistantMessage(block))
		} else {
			msgs = append(msgs, anthropic.NewUserMessage(block))
		}
	}

	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = anthropicDefaultMaxTokens
	}

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(req.Model),
		MaxTokens:   maxTokens,
		Messages:    msgs,
		Temperature: anthropic.Float(req.Temperature),
	}
	if system != "" {
		params.System = []anthropic.TextBlockParam{{Text: system}}
	}
	return params
}

func (b *AnthropicBackend) Complete(ctx context.Context, req Request) (*Response, error) {
	message, err := b.client.Messages.New(ctx, b.params(req))
	if err != nil {
		return nil, convertAnthropicError(req.Model, err)
	}

	var sb strings.Builder
	for _, block := range message.Content {
		if block.Type == "text" {
			sb.WriteString(block.Text)
		}
	}
	if sb.Len() == 0 {
		return nil, fmt.Errorf("anthropic %s: %w", req.Model, ErrEmptyOutput)
	}

	return &Response{
		Text:         strings.TrimSpace(sb.String()),
		Model:        req.Model,
		Provider:     ProviderAnthropic,
		InputTokens:  message.Usage.InputTokens,
		OutputTokens: message.Usage.OutputTokens,
	}, nil
}

func (b *AnthropicBackend) Stream(ctx context.Context, req Request) (Stream, error) {
	stream := b.client.Messages.NewStreaming(ctx, b.params(req))
	if err := stream.Err(); err != nil {
		_ = stream.Close()
		return nil, convertAnthropicError(req.Model, err)
	}
	return &anthropicStream{model: req.Model, stream: stream}, nil
}

func convertAnthropicError(model string, err error) error {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		if apiErr.StatusCode == http.StatusTooManyRequests || quotaMessage(apiErr.Error()) {
			return &RateLimitError{Provider: ProviderAnthropic, Model: model, Message: apiErr.Error(), Err: err}
		}
		return fmt.Errorf("anthropic API error (status %d): %w", apiErr.StatusCode, err)
	}
	return fmt.Errorf("anthropic request failed: %w", err)
}

type anthropicStream struct {
	model  string
	stream *ssestream.Stream[anthropic.MessageStreamEventUnion]
	chunk  string
	err    error
}

func (s *anthropicStream) Next() bool {
	for s.stream.Next() {
		event := s.stream.Current()
		delta, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent)
		if !ok {
			continue
		}
		text, ok := delta.Delta.AsAny().(anthropic.TextDelta)
		if !ok || text.Text == "" {
			continue
		}
		s.chunk = text.Text
		return true
	}
	if err := s.stream.Err(); err != nil {
		s.err = convertAnthropicError(s.model, err)
	}
	return false
}

func (s *anthropicStream) Chunk() string {
	return s.chunk
}

func (s *anthropicStream) Err() error {
	return s.err
}

func (s *anthropicStream) Close() error {
	return s.stream.Close()
}
