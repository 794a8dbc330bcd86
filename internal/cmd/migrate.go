package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/core"
	"github.com/tuan28064/Hono-demo/internal/observability"
)

var migrateNoSeed bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations and seed an empty store",
	Long: `Open the libsql store, apply schema migrations and load the seed data
when the store is empty. The memory driver needs no migration.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := config.Load(ctx)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		if cfg.Store.Driver != config.StoreDriverLibsql {
			return fmt.Errorf("store driver %q has no schema; set store.driver=%s", cfg.Store.Driver, config.StoreDriverLibsql)
		}

		db, err := openStore(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() { _ = db.Close() }()

		observability.CLILogger.Info("Schema up to date", zap.String("driver", db.Driver()))

		if migrateNoSeed {
			return nil
		}

		seed, err := core.LoadSeed(cfg.Store.SeedFile)
		if err != nil {
			return fmt.Errorf("load seed: %w", err)
		}
		seeded, err := db.SeedOnce(ctx, seed)
		if err != nil {
			return err
		}
		if seeded {
			observability.CLILogger.Info("Seeded store",
				zap.Int("users", len(seed.Users)),
				zap.Int("products", len(seed.Products)))
		} else {
			observability.CLILogger.Info("Store already seeded")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.Flags().BoolVar(&migrateNoSeed, "no-seed", false, "skip loading seed data")
}
