package api

import (
	"github.com/Harshitk-cp/coachmind/internal/config"
	"github.com/Harshitk-cp/coachmind/internal/domain"
	"github.com/Harshitk-cp/coachmind/internal/llm"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/Harshitk-cp/coachmind/internal/tokenizer"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

var (
	_ domain.UserDataStore            = (*store.UserDataStore)(nil)
	_ domain.EventStore               = (*store.EventStore)(nil)
	_ domain.MemoryFactStore          = (*store.MemoryFactStore)(nil)
	_ domain.ConversationSummaryStore = (*store.ConversationSummaryStore)(nil)
	_ domain.PreferenceProfileStore   = (*store.PreferenceProfileStore)(nil)
	_ domain.PeriodSummaryStore       = (*store.PeriodSummaryStore)(nil)
)

// Services is the pipeline shared by the HTTP server and the CLI.
type Services struct {
	Router     *service.ModelRouter
	Builder    *service.ContextBuilder
	Compressor *service.ContextCompressor
	Extractor  *service.MemoryExtractor
	Summarizer *service.PeriodSummarizer
}

func NewServices(db *pgxpool.Pool, logger *zap.Logger) *Services {
	users := store.NewUserDataStore(db)
	events := store.NewEventStore(db)
	facts := store.NewMemoryFactStore(db)
	summaries := store.NewConversationSummaryStore(db)
	profiles := store.NewPreferenceProfileStore(db)
	periods := store.NewPeriodSummaryStore(db)

	var routes map[service.TaskCategory][]service.ModelSpec
	if config.MockLLM() {
		routes = service.MockRoutes()
	}
	router := service.NewModelRouter(Backends(logger), routes, logger)

	return &Services{
		Router: router,
		Builder: service.NewContextBuilder(users, facts, summaries, profiles,
			config.ContextFetchLimit(), config.SecondaryFetchTimeout(), logger),
		Compressor: service.NewContextCompressor(tokenizer.JSONEstimator{}, logger),
		Extractor:  service.NewMemoryExtractor(facts, summaries, profiles, router, config.ExtractionWindow(), logger),
		Summarizer: service.NewPeriodSummarizer(users, events, periods,
			config.SummarizerConcurrency(), config.SummarizerSchedule(), logger),
	}
}

// Backends creates one backend per configured provider. Providers that fail to
// initialize are logged and skipped; with none the pipeline runs rule-based only.
func Backends(logger *zap.Logger) []llm.Backend {
	credentials := []struct {
		provider   string
		credential string
		enabled    bool
	}{
		{llm.ProviderOpenAI, config.OpenAIAPIKey(), config.OpenAIAPIKey() != ""},
		{llm.ProviderAnthropic, config.AnthropicAPIKey(), config.AnthropicAPIKey() != ""},
		{llm.ProviderGemini, config.GeminiAPIKey(), config.GeminiAPIKey() != ""},
		{llm.ProviderCerebras, config.CerebrasAPIKey(), config.CerebrasAPIKey() != ""},
		{llm.ProviderOllama, config.OllamaHost(), config.OllamaHost() != ""},
		{llm.ProviderMock, "", config.MockLLM()},
	}

	var backends []llm.Backend
	for _, c := range credentials {
		if !c.enabled {
			continue
		}
		b, err := llm.NewBackend(c.provider, c.credential)
		if err != nil {
			logger.Warn("failed to initialize LLM backend", zap.String("provider", c.provider), zap.Error(err))
			continue
		}
		backends = append(backends, b)
	}

	if len(backends) == 0 {
		logger.Warn("no LLM backend configured, extraction falls back to rule-based")
	} else {
		providers := make([]string, len(backends))
		for i, b := range backends {
			providers[i] = b.Provider()
		}
		logger.Info("LLM backends initialized", zap.Strings("providers", providers))
	}
	return backends
}
