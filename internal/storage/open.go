package storage

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/gaugyan/storefront/internal/config"
	"github.com/gaugyan/storefront/internal/domain"
	"github.com/gaugyan/storefront/internal/repository"
	"github.com/gaugyan/storefront/internal/repository/kv"
	"github.com/gaugyan/storefront/internal/repository/memory"
	"github.com/gaugyan/storefront/internal/repository/mongodb"
	"github.com/gaugyan/storefront/internal/repository/postgres"
	"github.com/gaugyan/storefront/internal/repository/sqlite"
)

// Open connects the backend named by cfg.Cart.Store and returns its
// repositories along with a func that releases the connection.
// APIClient is only set for postgres.
func Open(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repositories, func(), error) {
	noop := func() {}

	switch cfg.Cart.Store {
	case domain.BackendMemory:
		return &repository.Repositories{CartBlobs: memory.NewCartBlobRepository()}, noop, nil

	case domain.BackendRedis:
		client, err := kv.NewClient(ctx, kv.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := client.Close(); err != nil {
				logger.Warn("Failed to close redis client", zap.Error(err))
			}
		}
		return &repository.Repositories{
			CartBlobs: kv.NewCartBlobRepository(client, cfg.Cart.TTL, logger),
		}, closeFn, nil

	case domain.BackendPostgres:
		db, err := postgres.NewConnection(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		if err := postgres.Migrate(ctx, db); err != nil {
			db.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close database", zap.Error(err))
			}
		}
		return postgres.NewRepositories(db, logger), closeFn, nil

	case domain.BackendSQLite:
		db, err := sqlite.Open(cfg.SQLite.Path)
		if err != nil {
			return nil, nil, err
		}
		blobs, err := sqlite.NewCartBlobRepository(db, logger)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Close(); err != nil {
				logger.Warn("Failed to close sqlite database", zap.Error(err))
			}
		}
		return &repository.Repositories{CartBlobs: blobs}, closeFn, nil

	case domain.BackendMongo:
		db, err := mongodb.Connect(ctx, cfg.Mongo.URI, cfg.Mongo.Database)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			if err := db.Client().Disconnect(context.Background()); err != nil {
				logger.Warn("Failed to disconnect from mongo", zap.Error(err))
			}
		}
		return &repository.Repositories{CartBlobs: mongodb.NewCartBlobRepository(db, logger)}, closeFn, nil
	}

	return nil, nil, fmt.Errorf("unsupported cart store %q", cfg.Cart.Store)
}
