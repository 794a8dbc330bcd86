package cmd

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/fulmenhq/gofulmen/crucible"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

var envInfoCmd = &cobra.Command{
	Use:   "envinfo",
	Short: "Display environment information",
	Long:  "Display environment, configuration, and version information.",
	Run: func(cmd *cobra.Command, args []string) {
		log := observability.CLILogger
		version := crucible.GetVersion()

		log.Info("=== " + config.AppName + " Environment Information ===")
		log.Info("")

		log.Info("Application:")
		log.Info("  Name:       " + config.AppName)
		log.Info("  Version:    " + versionInfo.Version)
		log.Info("  Commit:     " + versionInfo.Commit)
		log.Info("  Built:      " + versionInfo.BuildDate)
		log.Info("")

		log.Info("SSOT:")
		log.Info("  Gofulmen:   "+version.Gofulmen, zap.String("gofulmen_version", version.Gofulmen))
		log.Info("  Crucible:   "+version.Crucible, zap.String("crucible_version", version.Crucible))
		log.Info("")

		log.Info("Runtime:")
		log.Info("  Go Version: "+runtime.Version(), zap.String("go_version", runtime.Version()))
		log.Info("  Platform:   " + runtime.GOOS + "/" + runtime.GOARCH)
		log.Info(fmt.Sprintf("  NumCPU:     %d", runtime.NumCPU()), zap.Int("num_cpu", runtime.NumCPU()))
		log.Info("")

		cfg, err := config.Load(cmd.Context())
		if err != nil {
			log.Warn("Config load failed", zap.Error(err))
			return
		}

		configFile := viper.ConfigFileUsed()
		if configFile == "" {
			configFile = "(none)"
		}

		log.Info("Configuration:")
		log.Info("  Config File:    " + configFile)
		log.Info("  Listen:         " + fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		log.Info("  API Prefix:     " + cfg.Server.APIPrefix)
		log.Info("  Log Level:      " + cfg.Logging.Level)
		log.Info("  Log Profile:    " + cfg.Logging.Profile)
		log.Info("  Store Driver:   " + cfg.Store.Driver)
		if cfg.Store.Driver == config.StoreDriverLibsql {
			if strings.TrimSpace(cfg.Store.URL) != "" {
				log.Info("  Store URL:      " + cfg.Store.URL)
			} else {
				log.Info("  Store Path:     " + cfg.Store.Path)
			}
		}
		log.Info(fmt.Sprintf("  Rate Limit:     %d per %s (%s)", cfg.RateLimit.Limit, cfg.RateLimit.Window, cfg.RateLimit.Backend))
		if cfg.RateLimit.Global.Enabled {
			log.Info(fmt.Sprintf("  Throttle:       %.1f rps, burst %d", cfg.RateLimit.Global.RPS, cfg.RateLimit.Global.Burst))
		}
		log.Info(fmt.Sprintf("  Metrics:        %t (port %d)", cfg.Metrics.Enabled, cfg.Metrics.Port))
		log.Info(fmt.Sprintf("  Auth Token Set: %t", cfg.Auth.Token != ""))
		if cfg.Static.Dir != "" {
			log.Info("  Static Dir:     " + cfg.Static.Dir)
		}
	},
}

func init() {
	rootCmd.AddCommand(envInfoCmd)
}
