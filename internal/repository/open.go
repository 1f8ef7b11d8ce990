package repository

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/stemsi/formbuilder/internal/config"
	"github.com/stemsi/formbuilder/internal/database"
)

// OpenKV connects the storage driver named by cfg.StorageDriver. The returned
// close function releases the underlying connection.
func OpenKV(ctx context.Context, cfg *config.Config, log zerolog.Logger) (KVRepository, func(), error) {
	switch cfg.StorageDriver {
	case config.StorageBadger:
		db, err := database.NewBadgerDB(cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewBadgerKVRepository(db), func() {
			if err := db.Close(); err != nil {
				log.Error().Err(err).Msg("Badger close error")
			}
		}, nil

	case config.StorageRedis:
		rdb, err := database.NewRedisClient(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewRedisKVRepository(rdb), func() { _ = rdb.Close() }, nil

	case config.StoragePostgres:
		pool, err := database.NewPostgresPool(ctx, cfg, log)
		if err != nil {
			return nil, nil, err
		}
		return NewPostgresKVRepository(pool), pool.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}
