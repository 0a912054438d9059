package kvstore

import (
	"context"
	"fmt"

	"github.com/noah-isme/sma-timetable-sync/pkg/config"
	"github.com/noah-isme/sma-timetable-sync/pkg/database"
)

// Open builds the backend selected by cfg.Store.Driver. The returned closer is never nil.
func Open(ctx context.Context, cfg *config.Config) (Store, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Store.Driver {
	case config.StoreMemory:
		return NewMemoryStore(), noop, nil
	case "", config.StoreFile:
		store, err := NewFileStore(cfg.Store.FilePath)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case config.StoreRedis:
		client, err := NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, noop, err
		}
		store := NewRedisStore(client, cfg.Store.KeyPrefix)
		return store, store.Close, nil
	case config.StorePostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, noop, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		store := NewPostgresStore(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = store.Close()
			return nil, noop, err
		}
		return store, store.Close, nil
	default:
		return nil, noop, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}
