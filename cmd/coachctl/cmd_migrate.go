package main

import (
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/store"
	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var down int

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations, or roll back with --down",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := newLogger()
			defer func() { _ = logger.Sync() }()

			pool, err := openPool(cmd.Context())
			if err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			defer pool.Close()

			if down > 0 {
				return store.MigrateDown(pool, down, logger)
			}
			return store.Migrate(pool, logger)
		},
	}

	cmd.Flags().IntVar(&down, "down", 0, "number of migrations to roll back")
	return cmd
}
