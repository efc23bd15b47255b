package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/api"
	"github.com/Harshitk-cp/coachmind/internal/buildconfig"
	"github.com/Harshitk-cp/coachmind/internal/config"
	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

func main() {
	if err := config.Load(); err != nil {
		panic(err)
	}

	logger, err := buildconfig.NewLogger(config.LogLevel())
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	dbURL := config.DatabaseURL()
	if dbURL == "" {
		logger.Fatal("DATABASE_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal("failed to connect to database", zap.Error(err))
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		logger.Fatal("failed to ping database", zap.Error(err))
	}
	logger.Info("connected to database")

	if err := store.Migrate(pool, logger); err != nil {
		logger.Fatal("failed to migrate database", zap.Error(err))
	}

	svcs := api.NewServices(pool, logger)
	app := api.NewApp(pool, svcs, logger)

	if err := svcs.Summarizer.Start(); err != nil {
		logger.Fatal("failed to start period summarizer", zap.Error(err))
	}
	go app.RateLimiter.RunCleanup(ctx, time.Minute)

	addr := config.ServerAddr()
	srv := &http.Server{
		Addr:              addr,
		Handler:           app.Router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting",
			zap.String("addr", addr),
			zap.String("version", buildconfig.Version()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
	}

	// In-flight extractions write to the pool, so drain them before it closes.
	svcs.Summarizer.Stop()
	svcs.Extractor.Wait()

	logger.Info("server stopped")
}
