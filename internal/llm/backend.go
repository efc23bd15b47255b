package llm

import (
	"context"
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/domain"
)

// Provider constants
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderCerebras  = "cerebras"
	ProviderOllama    = "ollama"
	ProviderMock      = "mock"
)

const (
	cerebrasBaseURL = "https://api.cerebras.ai/v1"
	geminiBaseURL   = "https://generativelanguage.googleapis.com/v1beta/openai"
)

// Request is a provider-neutral completion request addressed by model id.
type Request struct {
	Model       string
	Messages    []domain.Message
	MaxTokens   int
	Temperature float64
}

type Response struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	Provider     string `json:"provider"`
	InputTokens  int64  `json:"input_tokens"`
	OutputTokens int64  `json:"output_tokens"`
}

// Stream delivers generated text in order. Callers must Close it; cancelling the
// request context also stops delivery.
type Stream interface {
	Next() bool
	Chunk() string
	Err() error
	Close() error
}

// Backend sends role-tagged messages to a text-generation service.
// Rate-limit and quota rejections are returned as *RateLimitError.
type Backend interface {
	Provider() string
	Complete(ctx context.Context, req Request) (*Response, error)
	Stream(ctx context.Context, req Request) (Stream, error)
}

// NewBackend creates a backend for the provider name.
// credential is the API key, or the host for Ollama (empty means OLLAMA_HOST / localhost).
func NewBackend(provider, credential string) (Backend, error) {
	switch provider {
	case ProviderOpenAI:
		if credential == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required for OpenAI provider")
		}
		return NewOpenAIBackend(ProviderOpenAI, credential, ""), nil

	case ProviderCerebras:
		if credential == "" {
			return nil, fmt.Errorf("CEREBRAS_API_KEY is required for Cerebras provider")
		}
		return NewOpenAIBackend(ProviderCerebras, credential, cerebrasBaseURL), nil

	case ProviderGemini:
		if credential == "" {
			return nil, fmt.Errorf("GEMINI_API_KEY is required for Gemini provider")
		}
		return NewOpenAIBackend(ProviderGemini, credential, geminiBaseURL), nil

	case ProviderAnthropic:
		if credential == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY is required for Anthropic provider")
		}
		return NewAnthropicBackend(credential), nil

	case ProviderOllama:
		return NewOllamaBackend(credential)

	case ProviderMock:
		return NewMockBackend(ProviderMock), nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (valid options: openai, anthropic, gemini, cerebras, ollama, mock)", provider)
	}
}

// splitSystem separates system turns from the conversational ones.
func splitSystem(messages []domain.Message) (string, []domain.Message) {
	var system string
	rest := make([]domain.Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == domain.RoleSystem {
			if system != "" {
				system += "\n\n"
			}
			system += m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
