package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/Harshitk-cp/coachmind/internal/api"
	"github.com/Harshitk-cp/coachmind/internal/api/handlers"
	"github.com/spf13/cobra"
)

func summarizeCmd() *cobra.Command {
	var at string

	cmd := &cobra.Command{
		Use:   "summarize",
		Short: "Run the weekly, monthly and quarterly period summary batch once",
		Long: "Summarizes the last completed week for every user. On the first day of a month\n" +
			"it also rolls up the previous month, and on the first day of a quarter the previous quarter.",
		RunE: func(cmd *cobra.Command, args []string) error {
			now := time.Now()
			if at != "" {
				t, err := handlers.ParseRunTime(at)
				if err != nil {
					return fmt.Errorf("summarize: --at must be RFC 3339 or YYYY-MM-DD: %w", err)
				}
				now = t
			}

			logger := newLogger()
			defer func() { _ = logger.Sync() }()

			pool, err := openPool(cmd.Context())
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}
			defer pool.Close()

			svcs := api.NewServices(pool, logger)
			result, err := svcs.Summarizer.Run(cmd.Context(), now)
			if err != nil {
				return fmt.Errorf("summarize: %w", err)
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		},
	}

	cmd.Flags().StringVar(&at, "at", "", "evaluate the schedule as of this time (RFC 3339 or YYYY-MM-DD)")
	return cmd
}
