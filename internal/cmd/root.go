package cmd

import (
	"os"
	"path/filepath"

	"github.com/fulmenhq/gofulmen/telemetry"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   config.AppName,
	Short: "Demo HTTP service for users and products",
	Long: config.AppName + ` serves a small users/products JSON API behind a request
pipeline of access logging, panic recovery, metrics, CORS, request ids,
bearer-token auth and sliding-window rate limiting.

Use the subcommands to perform specific operations.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Keep config loading from emitting metrics to stdout; serve installs the
	// real telemetry system.
	disabledConfig := &telemetry.Config{Enabled: false}
	if sys, err := telemetry.NewSystem(disabledConfig); err == nil {
		telemetry.SetGlobalSystem(sys)
	}

	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/"+config.AppName+"/config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output (sets log level to debug)")

	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	observability.InitCLILogger(config.AppName, verbose)

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		if dir := config.DefaultConfigDir(); dir != "" {
			viper.AddConfigPath(dir)
		}
		viper.AddConfigPath("./config")
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	config.BindEnv(viper.GetViper())

	if err := viper.ReadInConfig(); err == nil {
		observability.CLILogger.Debug("Using config file", zap.String("path", viper.ConfigFileUsed()))
		return
	} else if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
		observability.CLILogger.Warn("Error reading config file", zap.Error(err))
		return
	}

	// Last resort: $HOME/.honodemo.yaml
	if cfgFile == "" {
		if home, err := os.UserHomeDir(); err == nil {
			legacy := filepath.Join(home, "."+config.AppName+".yaml")
			if _, statErr := os.Stat(legacy); statErr == nil {
				viper.SetConfigFile(legacy)
				if err := viper.ReadInConfig(); err != nil {
					observability.CLILogger.Warn("Error reading config file", zap.String("path", legacy), zap.Error(err))
				}
				return
			}
		}
	}

	observability.CLILogger.Debug("No config file found, using defaults and environment variables")
}
