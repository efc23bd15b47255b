// Package buildconfig carries link-time build metadata and the process logger setup.
package buildconfig

import (
	"fmt"

	"go.uber.org/zap"
)

// Set with -ldflags "-X github.com/Harshitk-cp/coachmind/internal/buildconfig.version=..."
var (
	version = "dev"
	commit  = "unknown"
)

func Version() string {
	return version
}

func Commit() string {
	return commit
}

// VersionInfo is reported by /health and the CLI.
func VersionInfo() map[string]string {
	return map[string]string{
		"version": version,
		"commit":  commit,
	}
}

// NewLogger builds a production JSON logger at level (debug, info, warn, error)
// tagged with the build version.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zap.ParseAtomicLevel(level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = lvl
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("version", version)), nil
}
