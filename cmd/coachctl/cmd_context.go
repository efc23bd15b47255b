package main

import (
	"encoding/json"
	"fmt"

	"github.com/Harshitk-cp/coachmind/internal/api"
	"github.com/Harshitk-cp/coachmind/internal/config"
	"github.com/Harshitk-cp/coachmind/internal/service"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

func contextCmd() *cobra.Command {
	var (
		budget int
		query  string
		raw    bool
	)

	cmd := &cobra.Command{
		Use:   "context [user-id]",
		Short: "Build and print the compressed coaching context for a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := uuid.Parse(args[0])
			if err != nil {
				return fmt.Errorf("context: invalid user id %q", args[0])
			}
			if budget <= 0 {
				budget = config.ContextTokenBudget()
			}

			logger := newLogger()
			defer func() { _ = logger.Sync() }()

			pool, err := openPool(cmd.Context())
			if err != nil {
				return fmt.Errorf("context: %w", err)
			}
			defer pool.Close()

			svcs := api.NewServices(pool, logger)
			snap, err := svcs.Builder.BuildContext(cmd.Context(), userID)
			if err != nil {
				return fmt.Errorf("context: building snapshot: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if raw {
				return enc.Encode(snap)
			}

			compressed, err := svcs.Compressor.CompressContext(snap, budget, service.CompressOptions{Query: query})
			if err != nil {
				return fmt.Errorf("context: compressing: %w", err)
			}
			if err := enc.Encode(compressed); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "estimated tokens: %d / %d\n", compressed.EstimatedTokens, budget)
			return nil
		},
	}

	cmd.Flags().IntVar(&budget, "budget", 0, "token budget (default CONTEXT_TOKEN_BUDGET)")
	cmd.Flags().StringVar(&query, "query", "", "user message used to rank memory facts")
	cmd.Flags().BoolVar(&raw, "raw", false, "print the uncompressed snapshot instead")
	return cmd
}
