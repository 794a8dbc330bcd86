package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/tuan28064/Hono-demo/internal/config"
	"github.com/tuan28064/Hono-demo/internal/core"
	"github.com/tuan28064/Hono-demo/internal/core/memory"
	"github.com/tuan28064/Hono-demo/internal/core/store"
	"github.com/tuan28064/Hono-demo/internal/observability"
	"github.com/tuan28064/Hono-demo/internal/server/handlers"
)

// repositories is the configured user and product storage plus its health
// probe and release hook.
type repositories struct {
	users    core.UserRepository
	products core.ProductRepository
	health   handlers.HealthChecker
	close    func() error
}

// openRepositories builds the store selected by store.driver. The memory
// driver starts from the seed on every run; libsql seeds an empty database once.
func openRepositories(ctx context.Context, cfg *config.Config) (*repositories, error) {
	seed, err := core.LoadSeed(cfg.Store.SeedFile)
	if err != nil {
		return nil, fmt.Errorf("load seed: %w", err)
	}

	switch cfg.Store.Driver {
	case config.StoreDriverLibsql:
		db, err := openStore(ctx, cfg)
		if err != nil {
			return nil, err
		}

		seeded, err := db.SeedOnce(ctx, seed)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("seed store: %w", err)
		}
		if seeded && observability.CLILogger != nil {
			observability.CLILogger.Info("Seeded empty store",
				zap.Int("users", len(seed.Users)),
				zap.Int("products", len(seed.Products)))
		}

		return &repositories{
			users:    db.Users(),
			products: db.Products(),
			health:   handlers.CheckerFunc(db.CheckHealth),
			close:    db.Close,
		}, nil

	default:
		users := memory.NewUsers(seed.Users)
		return &repositories{
			users:    users,
			products: memory.NewProducts(seed.Products),
			health:   handlers.CheckerFunc(users.CheckHealth),
			close:    func() error { return nil },
		}, nil
	}
}

// openStore opens the libsql database and applies migrations.
func openStore(ctx context.Context, cfg *config.Config) (*store.Store, error) {
	db, err := store.Open(ctx, cfg.Store)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}
