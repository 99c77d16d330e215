// Package main is the entry point for the ToolHive catalog browser.
package main

import (
	"log/slog"
	"os"

	"github.com/stacklok/toolhive-catalog-browser/cmd/thv-catalog/app"
	"github.com/stacklok/toolhive-catalog-browser/internal/config"
	"github.com/stacklok/toolhive-catalog-browser/internal/logging"
)

func main() {
	// Logs go to stderr to keep stdout clean for command output (e.g., browse --output json)
	logging.Setup(logging.WithLevel(logging.LevelFromEnv(config.EnvPrefix)))

	if err := app.NewRootCmd().Execute(); err != nil {
		slog.Debug("Command failed", "error", err)
		os.Exit(1)
	}
}
