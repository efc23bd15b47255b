package api

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/api/handlers"
	mw "github.com/Harshitk-cp/coachmind/internal/api/middleware"
	"github.com/Harshitk-cp/coachmind/internal/buildconfig"
	"github.com/Harshitk-cp/coachmind/internal/config"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"
)

// Pinger reports database reachability for /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

// App holds the router and the services whose lifecycle the server manages.
type App struct {
	Router      *chi.Mux
	Services    *Services
	RateLimiter *mw.RateLimiter
	metrics     *mw.Metrics
	startTime   time.Time
}

func NewApp(db Pinger, svcs *Services, logger *zap.Logger) *App {
	app := &App{
		Router:      chi.NewRouter(),
		Services:    svcs,
		RateLimiter: mw.NewRateLimiter(config.RateLimitRPS(), config.RateLimitBurst()),
		metrics:     &mw.Metrics{},
		startTime:   time.Now(),
	}

	contextHandler := handlers.NewContextHandler(svcs.Builder, svcs.Compressor, config.ContextTokenBudget(), logger)
	memoryHandler := handlers.NewMemoryHandler(svcs.Builder)
	extractionHandler := handlers.NewExtractionHandler(svcs.Extractor)
	completionHandler := handlers.NewCompletionHandler(svcs.Router, logger)
	jobHandler := handlers.NewJobHandler(svcs.Summarizer)

	r := app.Router
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(app.metrics.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(app.RateLimiter.Middleware)

	r.Get("/health", healthHandler(db))
	r.Get("/metrics", app.metricsHandler())

	r.Route("/v1", func(r chi.Router) {
		r.Route("/users/{userID}", func(r chi.Router) {
			r.Post("/context", contextHandler.Build)
			r.Get("/facts", memoryHandler.ListFacts)
			r.Get("/summaries", memoryHandler.ListSummaries)
			r.Get("/preferences", memoryHandler.GetPreferences)
			r.Post("/conversations/{conversationID}/extract", extractionHandler.Extract)
		})

		r.Post("/completions", completionHandler.Complete)
		r.Post("/completions/stream", completionHandler.Stream)
		r.Get("/router/status", completionHandler.Status)

		r.Post("/jobs/period-summaries", jobHandler.RunPeriodSummaries)
	})

	return app
}

func healthHandler(db Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if err := db.Ping(r.Context()); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		body := buildconfig.VersionInfo()
		body["status"] = "ok"
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(body)
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)
		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.metrics.Requests.Load(),
			"error_count":    app.metrics.Errors.Load(),
			"open_streams":   app.metrics.OpenStreams.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"router":     app.Services.Router.Status(),
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}
