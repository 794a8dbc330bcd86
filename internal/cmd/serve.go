package cmd

import (
	"context"
	"errors"
	"io/fs"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/fulmenhq/gofulmen/signals"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	errwrap "github.com/tuan28064/Hono-demo/internal/errors"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/server"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
)

// telemetryHealthChecker ensures telemetry system and exporter are available
type telemetryHealthChecker struct{}

func (telemetryHealthChecker) CheckHealth(ctx context.Context) error {
	if observability.TelemetrySystem == nil || observability.PrometheusExporter == nil {
		return errwrap.NewInternalError("telemetry system not initialized")
	}
	return nil
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the HTTP server with graceful shutdown support.

Signal Handling:
  Ctrl+C (SIGINT) or SIGTERM: Graceful shutdown
  Ctrl+C twice within 2s: Force quit
  SIGHUP: Re-read and validate the config file

The server drains in-flight requests, stops the rate limit janitors,
closes the store and flushes logs on shutdown.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cmd.Context())
		if err != nil {
			return errwrap.WrapValidationError(cmd.Context(), err, "invalid configuration")
		}

		observability.InitServerLogger(observability.ServerLoggerOptions{
			Service:   config.AppName,
			Level:     cfg.Logging.Level,
			Profile:   cfg.Logging.Profile,
			Namespace: config.AppName,
		})
		logger := observability.ServerLogger

		if cfg.Metrics.Enabled {
			if err := observability.InitMetrics(config.AppName, cfg.Metrics.Port, config.AppName); err != nil {
				logger.Error("Failed to initialize metrics", zap.Error(err))
				return errwrap.WrapInternal(cmd.Context(), err, "metrics initialization failed")
			}
		}

		logger.Info("Initializing server",
			zap.String("service", config.AppName),
			zap.String("version", versionInfo.Version),
			zap.String("host", cfg.Server.Host),
			zap.Int("port", cfg.Server.Port),
			zap.String("store_driver", cfg.Store.Driver),
			zap.String("ratelimit_backend", cfg.RateLimit.Backend),
			zap.Bool("metrics_enabled", cfg.Metrics.Enabled))

		// Janitors and other background work stop with this context.
		runCtx, stop := context.WithCancel(cmd.Context())
		defer stop()

		repos, err := openRepositories(runCtx, cfg)
		if err != nil {
			return errwrap.WrapDatabaseError(cmd.Context(), err, "store initialization failed")
		}

		lims, err := buildLimiters(runCtx, cfg)
		if err != nil {
			_ = repos.close()
			return errwrap.WrapInternal(cmd.Context(), err, "rate limiter initialization failed")
		}

		hm := handlers.NewHealthManager(versionInfo.Version)
		hm.RegisterChecker("store", repos.health)
		hm.RegisterChecker("ratelimit", lims.health)
		if cfg.Metrics.Enabled {
			hm.RegisterChecker("telemetry", telemetryHealthChecker{})
		}

		srv, err := server.New(server.Options{
			Config:    cfg,
			Users:     repos.users,
			Products:  repos.products,
			Limiter:   lims.window,
			Throttle:  lims.throttle,
			Static:    staticFS(cfg.Static),
			Health:    hm,
			StartedAt: time.Now(),
		})
		if err != nil {
			_ = lims.close()
			_ = repos.close()
			return errwrap.WrapInternal(cmd.Context(), err, "server construction failed")
		}

		shutdownTimeout := cfg.Server.ShutdownTimeout
		if shutdownTimeout == 0 {
			shutdownTimeout = 10 * time.Second
		}

		// Shutdown handlers run LIFO: the HTTP server stops first, logs flush last.
		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Flushing logger...")
			if err := observability.ShutdownMetrics(); err != nil {
				logger.Warn("Metrics shutdown returned error", zap.Error(err))
			}
			observability.SyncLoggers()
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			stop()
			if err := lims.close(); err != nil {
				logger.Warn("Rate limiter close returned error", zap.Error(err))
			}
			if err := repos.close(); err != nil {
				logger.Warn("Store close returned error", zap.Error(err))
			}
			return nil
		})

		signals.OnShutdown(func(ctx context.Context) error {
			logger.Info("Shutting down HTTP server...")
			shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errwrap.WrapInternal(ctx, err, "server shutdown failed")
			}

			logger.Info("HTTP server stopped gracefully")
			return nil
		})

		signals.OnReload(func(ctx context.Context) error {
			logger.Info("Received SIGHUP: attempting config reload")

			if err := viper.ReadInConfig(); err != nil {
				var notFound viper.ConfigFileNotFoundError
				if errors.As(err, &notFound) {
					logger.Info("No config file found - using defaults and environment variables")
					return nil
				}
				logger.Error("Failed to reload config file",
					zap.String("file", viper.ConfigFileUsed()),
					zap.Error(err))
				return errwrap.WrapValidationError(ctx, err, "config reload failed")
			}

			if _, err := config.Load(ctx); err != nil {
				logger.Error("Reloaded config is invalid", zap.Error(err))
				return errwrap.WrapValidationError(ctx, err, "config reload failed")
			}

			// Listener, store and limiter settings are bound at startup.
			logger.Info("Configuration reloaded; restart to apply server changes",
				zap.String("file", viper.ConfigFileUsed()))
			return nil
		})

		if err := signals.EnableDoubleTap(signals.DoubleTapConfig{
			Window:  2 * time.Second,
			Message: "Press Ctrl+C again within 2 seconds to force quit",
		}); err != nil {
			logger.Warn("Failed to enable double-tap force quit", zap.Error(err))
		}

		errChan := make(chan error, 2)
		go func() {
			err := srv.Start()
			if errors.Is(err, http.ErrServerClosed) {
				err = nil
			}
			errChan <- err
		}()

		go func() {
			if err := signals.Listen(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Signal handler error", zap.Error(err))
				errChan <- err
			}
		}()

		if err := <-errChan; err != nil {
			return errwrap.WrapInternal(cmd.Context(), err, "server error")
		}
		return nil
	},
}

// staticFS returns the asset directory for the SPA fallback, or nil when
// the fallback is disabled or the directory is missing.
func staticFS(cfg config.StaticConfig) fs.FS {
	dir := strings.TrimSpace(cfg.Dir)
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		if observability.ServerLogger != nil {
			observability.ServerLogger.Warn("Static directory unavailable, fallback disabled", zap.String("dir", dir))
		}
		return nil
	}
	return os.DirFS(dir)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("host", "localhost", "server host")
	serveCmd.Flags().IntP("port", "p", 8787, "server port")
	serveCmd.Flags().String("static-dir", "", "serve a single-page application from this directory")

	_ = viper.BindPFlag("server.host", serveCmd.Flags().Lookup("host"))
	_ = viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	_ = viper.BindPFlag("static.dir", serveCmd.Flags().Lookup("static-dir"))
}
