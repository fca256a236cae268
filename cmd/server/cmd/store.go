package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/beemailley/final-project-backend-bm/internal/config"
	"github.com/beemailley/final-project-backend-bm/internal/storage"
	"github.com/beemailley/final-project-backend-bm/internal/storage/memory"
	"github.com/beemailley/final-project-backend-bm/internal/storage/mongodb"
	"github.com/beemailley/final-project-backend-bm/internal/storage/postgres"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const connectTimeout = 10 * time.Second

// openStore connects the backend selected by STORE_DRIVER. The pool is
// returned only for postgres, for health checks and pool metrics.
func openStore(ctx context.Context, cfg config.Config, logger zerolog.Logger) (storage.Store, *pgxpool.Pool, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		if cfg.Database.AutoMigrate {
			if err := postgres.MigrateUp(cfg.Database.URL, cfg.Database.MigrationsPath, logger); err != nil {
				return nil, nil, err
			}
			logger.Info().Msg("database migrations applied")
		}
		pool, err := postgres.Open(ctx, cfg.Database.URL, cfg.Database.MaxConnections)
		if err != nil {
			return nil, nil, err
		}
		store, err := postgres.NewStore(pool, cfg.Store.Timeout)
		if err != nil {
			pool.Close()
			return nil, nil, err
		}
		return store, pool, nil

	case config.StoreDriverMongo:
		store, err := mongodb.Open(ctx, cfg.Mongo.URL, cfg.Mongo.Database, cfg.Store.Timeout)
		if err != nil {
			return nil, nil, err
		}
		return store, nil, nil

	case config.StoreDriverMemory:
		logger.Warn().Msg("memory store selected; data is lost on restart")
		return memory.NewStore(), nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported STORE_DRIVER %q", cfg.Store.Driver)
	}
}
