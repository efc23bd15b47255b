package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"go.uber.org/zap"
)

type TaskCategory string

const (
	TaskSimpleExtraction    TaskCategory = "simple_extraction"
	TaskComplexReasoning    TaskCategory = "complex_reasoning"
	TaskLongContext         TaskCategory = "long_context"
	TaskStructuredOutput    TaskCategory = "structured_output"
	TaskVision              TaskCategory = "vision"
	TaskQuickCategorization TaskCategory = "quick_categorization"
	TaskVerification        TaskCategory = "verification"
	TaskConversational      TaskCategory = "conversational"
	TaskProgramGeneration   TaskCategory = "program_generation"
)

func ValidTaskCategory(t string) bool {
	switch TaskCategory(t) {
	case TaskSimpleExtraction, TaskComplexReasoning, TaskLongContext, TaskStructuredOutput, TaskVision,
		TaskQuickCategorization, TaskVerification, TaskConversational, TaskProgramGeneration:
		return true
	}
	return false
}

// ModelSpec is one entry of a task's fallback chain.
type ModelSpec struct {
	Model       string  `json:"model"`
	Provider    string  `json:"provider"`
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

func (m ModelSpec) key() string {
	return m.Provider + "/" + m.Model
}

// DefaultRoutes maps each task to its primary model followed by ordered fallbacks.
var DefaultRoutes = map[TaskCategory][]ModelSpec{
	TaskSimpleExtraction: {
		{Model: "gpt-4o-mini", Provider: llm.ProviderOpenAI, MaxTokens: 1000, Temperature: 0.2},
		{Model: "claude-3-5-haiku-latest", Provider: llm.ProviderAnthropic, MaxTokens: 1000, Temperature: 0.2},
		{Model: "llama3.1-8b", Provider: llm.ProviderCerebras, MaxTokens: 1000, Temperature: 0.2},
		{Model: "llama3.2", Provider: llm.ProviderOllama, MaxTokens: 1000, Temperature: 0.2},
	},
	TaskComplexReasoning: {
		{Model: "claude-sonnet-4-5", Provider: llm.ProviderAnthropic, MaxTokens: 4000, Temperature: 0.4},
		{Model: "gpt-4o", Provider: llm.ProviderOpenAI, MaxTokens: 4000, Temperature: 0.4},
		{Model: "gemini-2.0-flash", Provider: llm.ProviderGemini, MaxTokens: 4000, Temperature: 0.4},
	},
	TaskLongContext: {
		{Model: "gemini-1.5-pro", Provider: llm.ProviderGemini, MaxTokens: 8000, Temperature: 0.3},
		{Model: "claude-sonnet-4-5", Provider: llm.ProviderAnthropic, MaxTokens: 8000, Temperature: 0.3},
		{Model: "gpt-4o", Provider: llm.ProviderOpenAI, MaxTokens: 8000, Temperature: 0.3},
	},
	TaskStructuredOutput: {
		{Model: "gpt-4o-mini", Provider: llm.ProviderOpenAI, MaxTokens: 1500, Temperature: 0.1},
		{Model: "claude-3-5-haiku-latest", Provider: llm.ProviderAnthropic, MaxTokens: 1500, Temperature: 0.1},
		{Model: "gemini-2.0-flash", Provider: llm.ProviderGemini, MaxTokens: 1500, Temperature: 0.1},
		{Model: "llama3.2", Provider: llm.ProviderOllama, MaxTokens: 1500, Temperature: 0.1},
	},
	TaskVision: {
		{Model: "gpt-4o", Provider: llm.ProviderOpenAI, MaxTokens: 2000, Temperature: 0.3},
		{Model: "claude-sonnet-4-5", Provider: llm.ProviderAnthropic, MaxTokens: 2000, Temperature: 0.3},
		{Model: "gemini-2.0-flash", Provider: llm.ProviderGemini, MaxTokens: 2000, Temperature: 0.3},
	},
	TaskQuickCategorization: {
		{Model: "llama3.1-8b", Provider: llm.ProviderCerebras, MaxTokens: 200, Temperature: 0},
		{Model: "gpt-4o-mini", Provider: llm.ProviderOpenAI, MaxTokens: 200, Temperature: 0},
		{Model: "llama3.2", Provider: llm.ProviderOllama, MaxTokens: 200, Temperature: 0},
	},
	TaskVerification: {
		{Model: "gpt-4o-mini", Provider: llm.ProviderOpenAI, MaxTokens: 500, Temperature: 0},
		{Model: "claude-3-5-haiku-latest", Provider: llm.ProviderAnthropic, MaxTokens: 500, Temperature: 0},
	},
	TaskConversational: {
		{Model: "claude-sonnet-4-5", Provider: llm.ProviderAnthropic, MaxTokens: 1500, Temperature: 0.7},
		{Model: "gpt-4o", Provider: llm.ProviderOpenAI, MaxTokens: 1500, Temperature: 0.7},
		{Model: "gemini-2.0-flash", Provider: llm.ProviderGemini, MaxTokens: 1500, Temperature: 0.7},
		{Model: "llama3.2", Provider: llm.ProviderOllama, MaxTokens: 1500, Temperature: 0.7},
	},
	TaskProgramGeneration: {
		{Model: "claude-sonnet-4-5", Provider: llm.ProviderAnthropic, MaxTokens: 6000, Temperature: 0.5},
		{Model: "gpt-4o", Provider: llm.ProviderOpenAI, MaxTokens: 6000, Temperature: 0.5},
		{Model: "gemini-1.5-pro", Provider: llm.ProviderGemini, MaxTokens: 6000, Temperature: 0.5},
	},
}

// MockRoutes sends every task to the in-process mock backend, keeping the
// default token and temperature settings.
func MockRoutes() map[TaskCategory][]ModelSpec {
	routes := make(map[TaskCategory][]ModelSpec, len(DefaultRoutes))
	for task, chain := range DefaultRoutes {
		routes[task] = []ModelSpec{{
			Model:       "mock-" + string(task),
			Provider:    llm.ProviderMock,
			MaxTokens:   chain[0].MaxTokens,
			Temperature: chain[0].Temperature,
		}}
	}
	return routes
}

// TaskConfig describes one routed call. Criteria is only used when
// CriticalAccuracy requests a verification pass.
type TaskConfig struct {
	Category         TaskCategory `json:"category"`
	CriticalAccuracy bool         `json:"critical_accuracy,omitempty"`
	Criteria         string       `json:"criteria,omitempty"`
}

// CompletionOptions override the selected model's defaults when set.
type CompletionOptions struct {
	MaxTokens   int
	Temperature *float64
}

type VerificationResult struct {
	IsValid bool     `json:"is_valid"`
	Issues  []string `json:"issues"`
}

type CompletionResult struct {
	llm.Response
	Verification *VerificationResult `json:"verification,omitempty"`
}

type RouterStatus struct {
	FailingModels []string         `json:"failing_models"`
	Usage         map[string]int64 `json:"usage"`
}

// routerState is the circuit breaker and usage ledger shared by concurrent requests.
// The failing set is not time-windowed; it is cleared when a whole chain is failing.
type routerState struct {
	mu      sync.Mutex
	failing map[string]bool
	usage   map[string]int64
}

func newRouterState() *routerState {
	return &routerState{
		failing: make(map[string]bool),
		usage:   make(map[string]int64),
	}
}

// pick returns the first non-failing spec. When every spec is failing it clears the
// whole failing set and returns the primary.
func (s *routerState) pick(chain []ModelSpec) (ModelSpec, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, spec := range chain {
		if !s.failing[spec.key()] {
			return spec, false
		}
	}
	s.failing = make(map[string]bool)
	return chain[0], true
}

func (s *routerState) markFailing(spec ModelSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failing[spec.key()] = true
}

func (s *routerState) recordUsage(spec ModelSpec) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.usage[spec.key()]++
}

func (s *routerState) snapshot() RouterStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	status := RouterStatus{
		FailingModels: make([]string, 0, len(s.failing)),
		Usage:         make(map[string]int64, len(s.usage)),
	}
	for k := range s.failing {
		status.FailingModels = append(status.FailingModels, k)
	}
	sort.Strings(status.FailingModels)
	for k, v := range s.usage {
		status.Usage[k] = v
	}
	return status
}

// ModelRouter picks a backend model per task and falls back when a model is
// rate limited. One router owns its state; create one per process or tenant.
type ModelRouter struct {
	backends map[string]llm.Backend
	routes   map[TaskCategory][]ModelSpec
	state    *routerState
	logger   *zap.Logger
}

// NewModelRouter keeps only route entries whose provider has a backend. A nil
// routes map uses DefaultRoutes.
func NewModelRouter(backends []llm.Backend, routes map[TaskCategory][]ModelSpec, logger *zap.Logger) *ModelRouter {
	if routes == nil {
		routes = DefaultRoutes
	}

	r := &ModelRouter{
		backends: make(map[string]llm.Backend, len(backends)),
		routes:   make(map[TaskCategory][]ModelSpec, len(routes)),
		state:    newRouterState(),
		logger:   logger,
	}
	for _, b := range backends {
		r.backends[b.Provider()] = b
	}
	for task, chain := range routes {
		var usable []ModelSpec
		for _, spec := range chain {
			if _, ok := r.backends[spec.Provider]; ok {
				usable = append(usable, spec)
			}
		}
		if len(usable) > 0 {
			r.routes[task] = usable
		}
	}
	return r
}

// Available reports whether any generation backend is configured.
func (r *ModelRouter) Available() bool {
	return r != nil && len(r.backends) > 0
}

func (r *ModelRouter) SelectModel(task TaskCategory) (ModelSpec, error) {
	chain := r.routes[task]
	if len(chain) == 0 {
		return ModelSpec{}, fmt.Errorf("%w: %s", ErrNoModelForTask, task)
	}
	spec, reset := r.state.pick(chain)
	if reset {
		r.logger.Warn("all models failing for task, resetting circuit breaker",
			zap.String("task", string(task)),
			zap.String("model", spec.Model))
	}
	return spec, nil
}

func (r *ModelRouter) Status() RouterStatus {
	return r.state.snapshot()
}

// Usage returns how many calls were sent to each "provider/model".
func (r *ModelRouter) Usage() map[string]int64 {
	return r.state.snapshot().Usage
}

// FailingModels returns the models currently skipped by selection, sorted.
func (r *ModelRouter) FailingModels() []string {
	return r.state.snapshot().FailingModels
}

func (r *ModelRouter) request(spec ModelSpec, messages []domain.Message, opts CompletionOptions) llm.Request {
	req := llm.Request{
		Model:       spec.Model,
		Messages:    messages,
		MaxTokens:   spec.MaxTokens,
		Temperature: spec.Temperature,
	}
	if opts.MaxTokens > 0 && opts.MaxTokens < req.MaxTokens {
		req.MaxTokens = opts.MaxTokens
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	return req
}

func (r *ModelRouter) backendFor(spec ModelSpec) (llm.Backend, error) {
	b, ok := r.backends[spec.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendMissing, spec.Provider)
	}
	return b, nil
}

// withFallback runs call against the selected model. A rate-limit error marks the
// model failing and retries exactly once with the next selection.
func withFallback[T any](ctx context.Context, r *ModelRouter, task TaskCategory, call func(context.Context, llm.Backend, ModelSpec) (T, error)) (T, ModelSpec, error) {
	var zero T

	attempt := func(spec ModelSpec) (T, error) {
		backend, err := r.backendFor(spec)
		if err != nil {
			return zero, err
		}
		r.state.recordUsage(spec)
		return call(ctx, backend, spec)
	}

	spec, err := r.SelectModel(task)
	if err != nil {
		return zero, ModelSpec{}, err
	}

	out, err := attempt(spec)
	if err == nil {
		return out, spec, nil
	}
	if !llm.IsRateLimit(err) {
		return zero, spec, err
	}

	r.state.markFailing(spec)
	r.logger.Warn("model rate limited, retrying with fallback",
		zap.String("task", string(task)),
		zap.String("model", spec.Model),
		zap.String("provider", spec.Provider),
		zap.Error(err))

	next, err := r.SelectModel(task)
	if err != nil {
		return zero, spec, err
	}
	out, err = attempt(next)
	if err != nil {
		if llm.IsRateLimit(err) {
			r.state.markFailing(next)
		}
		return zero, next, err
	}
	return out, next, nil
}

// Complete sends messages to the model selected for task. Tasks flagged
// CriticalAccuracy get a verification pass whose failure never fails the call.
func (r *ModelRouter) Complete(ctx context.Context, task TaskConfig, messages []domain.Message, opts CompletionOptions) (*CompletionResult, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	resp, spec, err := withFallback(ctx, r, task.Category, func(ctx context.Context, b llm.Backend, spec ModelSpec) (*llm.Response, error) {
		return b.Complete(ctx, r.request(spec, messages, opts))
	})
	if err != nil {
		return nil, fmt.Errorf("complete %s with %s: %w", task.Category, spec.Model, err)
	}

	result := &CompletionResult{Response: *resp}
	if task.CriticalAccuracy {
		v := r.VerifyOutput(ctx, lastUserContent(messages), resp.Text, task.Criteria)
		result.Verification = &v
	}
	return result, nil
}

// Stream opens a streamed completion. Router state is only touched while opening;
// consuming or abandoning the stream does not affect it.
func (r *ModelRouter) Stream(ctx context.Context, task TaskConfig, messages []domain.Message, opts CompletionOptions) (llm.Stream, error) {
	if len(messages) == 0 {
		return nil, ErrNoMessages
	}

	stream, spec, err := withFallback(ctx, r, task.Category, func(ctx context.Context, b llm.Backend, spec ModelSpec) (llm.Stream, error) {
		return b.Stream(ctx, r.request(spec, messages, opts))
	})
	if err != nil {
		return nil, fmt.Errorf("stream %s with %s: %w", task.Category, spec.Model, err)
	}
	return stream, nil
}

// VerifyOutput asks a cheap model whether output satisfies criteria. It fails
// open: any error yields {IsValid: true}.
func (r *ModelRouter) VerifyOutput(ctx context.Context, prompt, output, criteria string) VerificationResult {
	pass := VerificationResult{IsValid: true, Issues: []string{}}
	if criteria == "" {
		criteria = "The response is accurate, safe, and answers the request."
	}

	messages := []domain.Message{{
		Role:    domain.RoleUser,
		Content: fmt.Sprintf(llm.VerifyOutputPrompt, prompt, output, criteria),
	}}
	resp, _, err := withFallback(ctx, r, TaskVerification, func(ctx context.Context, b llm.Backend, spec ModelSpec) (*llm.Response, error) {
		return b.Complete(ctx, r.request(spec, messages, CompletionOptions{}))
	})
	if err != nil {
		r.logger.Warn("verification failed, accepting output", zap.Error(err))
		return pass
	}

	var result VerificationResult
	if err := json.Unmarshal([]byte(stripJSONFences(resp.Text)), &result); err != nil {
		r.logger.Warn("verification response unparseable, accepting output", zap.Error(err))
		return pass
	}
	if result.Issues == nil {
		result.Issues = []string{}
	}
	return result
}

func lastUserContent(messages []domain.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == domain.RoleUser {
			return messages[i].Content
		}
	}
	return ""
}

// stripJSONFences removes markdown code fences models wrap JSON in.
func stripJSONFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
