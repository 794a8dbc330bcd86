package main

import (
	"github.com/fulmenhq/gofulmen/foundry"

	"github.com/tuan28064/Hono-demo/internal/cmd"
	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
)

// Version information set via ldflags during build
// Example: go build -ldflags="-X main.version=1.0.0 -X main.commit=abc123 -X main.buildDate=2026-10-17"
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func main() {
	cmd.SetVersionInfo(version, commit, buildDate)

	handlers.SetVersionInfo(version, commit, buildDate)
	handlers.SetAppName(config.AppName)

	if err := cmd.Execute(); err != nil {
		// Commands log their own specifics; this only sets the exit code.
		cmd.ExitWithCodeStderr(foundry.ExitFailure, "Command execution failed", err)
	}
}
