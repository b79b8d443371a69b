package acousticdna

import (
	"context"

	"github.com/himanishpuri/fpstore/internal/storage"
	"github.com/himanishpuri/fpstore/pkg/logger"
)

var _ Storage = (*storage.DBClient)(nil)

// NewSQLiteStorage creates a new SQLite storage backend with default pool
// and batch settings.
func NewSQLiteStorage(dbPath string) (Storage, error) {
	return storage.NewDBClientWithPath(dbPath)
}

func newStorageFromConfig(ctx context.Context, cfg *Config) (Storage, error) {
	opts := storage.DefaultOptions()
	opts.Path = cfg.DBPath
	opts.PoolSize = cfg.PoolSize
	opts.MaxConns = cfg.MaxConns
	opts.BatchSize = cfg.BatchSize
	if l, ok := cfg.Logger.(*logger.Logger); ok {
		opts.Logger = l
	}

	db, err := storage.NewDBClientWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := db.Setup(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}
