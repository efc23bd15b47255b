// Command coachctl runs the pipeline's batch and maintenance tasks against the
// database without starting the HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Harshitk-cp/coachmind/internal/buildconfig"
	"github.com/Harshitk-cp/coachmind/internal/config"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	rootCmd := newRootCmd()
	rootCmd.SetContext(ctx)

	err := rootCmd.Execute()
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "coachctl",
		Short:         "Maintenance commands for the coaching memory pipeline",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return config.Load()
		},
	}

	rootCmd.AddCommand(
		migrateCmd(),
		summarizeCmd(),
		contextCmd(),
		seedCmd(),
		versionCmd(),
	)
	return rootCmd
}

func newLogger() *zap.Logger {
	logger, err := buildconfig.NewLogger(config.LogLevel())
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

func openPool(ctx context.Context) (*pgxpool.Pool, error) {
	dbURL := config.DatabaseURL()
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return pool, nil
}
