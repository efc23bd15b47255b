package main

import (
	"fmt"
	"runtime"

	"github.com/Harshitk-cp/coachmind/internal/buildconfig"
	"github.com/spf13/cobra"
)

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		// Skips config loading.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			info := buildconfig.VersionInfo()
			fmt.Fprintf(cmd.OutOrStdout(), "coachctl %s (commit %s, %s)\n", info["version"], info["commit"], runtime.Version())
		},
	}
}
