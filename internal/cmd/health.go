package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/foundry"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	errwrap "github.com/tuan28064/Hono-demo/internal/errors"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

var (
	healthURL     string
	healthTimeout time.Duration
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Run self-health check",
	Long: `Run a self-health check to verify the application can start successfully:
configuration, store and rate limit backend. With --url, also probe the
/health endpoint of a running server.`,
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		if log == nil {
			ExitWithCodeStderr(foundry.ExitConfigInvalid, "Logger not initialized", errwrap.NewInternalError("logger not initialized"))
			return
		}
		log.Info("Running health check...")

		if versionInfo.Version == "" {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Version information missing", errwrap.NewInternalError("version information missing"))
			return
		}
		log.Info("Version information available", zap.String("version", versionInfo.Version))

		ctx, cancel := context.WithTimeout(cmd.Context(), healthTimeout)
		defer cancel()

		cfg, err := config.Load(ctx)
		if err != nil {
			ExitWithCode(log, foundry.ExitConfigInvalid, "Configuration invalid", err)
			return
		}
		log.Info("Configuration loaded", zap.String("store_driver", cfg.Store.Driver))

		repos, err := openRepositories(ctx, cfg)
		if err != nil {
			ExitWithCode(log, foundry.ExitExternalServiceUnavailable, "Store unavailable", err)
			return
		}
		defer func() { _ = repos.close() }()

		if err := repos.health.CheckHealth(ctx); err != nil {
			ExitWithCode(log, foundry.ExitExternalServiceUnavailable, "Store health check failed", err)
			return
		}
		log.Info("Store reachable")

		lims, err := buildLimiters(ctx, cfg)
		if err != nil {
			ExitWithCode(log, foundry.ExitExternalServiceUnavailable, "Rate limit backend unavailable", err)
			return
		}
		defer func() { _ = lims.close() }()
		log.Info("Rate limit backend ready", zap.String("backend", cfg.RateLimit.Backend))

		if strings.TrimSpace(healthURL) != "" {
			if err := probeHealthURL(ctx, healthURL); err != nil {
				ExitWithCode(log, foundry.ExitExternalServiceUnavailable, "Server health probe failed", err)
				return
			}
			log.Info("Server reports healthy", zap.String("url", healthURL))
		}

		log.Info("All health checks passed")
	},
}

// probeHealthURL requires a 200 from a running server's /health endpoint.
func probeHealthURL(ctx context.Context, base string) error {
	url := strings.TrimRight(base, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("GET %s: status %d: %s", url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return nil
}

func init() {
	rootCmd.AddCommand(healthCmd)
	healthCmd.Flags().StringVar(&healthURL, "url", "", "base URL of a running server to probe (e.g. http://localhost:8787)")
	healthCmd.Flags().DurationVar(&healthTimeout, "timeout", 5*time.Second, "overall timeout for the checks")
}
