package repository

import (
	"context"
	"fmt"

	"pyquest/internal/config"
	"pyquest/internal/database"
	"pyquest/internal/logx"
)

// Backend is the persistence chosen by DB_TYPE
type Backend struct {
	Stores *StoreRepository
	// BadWords is nil unless the backend is SQL
	BadWords *BadWordRepository

	db *database.DB
}

// OpenBackend opens the configured persistence. SQL backends are migrated before use.
func OpenBackend(ctx context.Context, cfg *config.Config) (*Backend, error) {
	switch cfg.DatabaseType {
	case "memory":
		logx.Warn("Using in-memory storage; progress is lost on restart")
		return &Backend{Stores: NewStoreRepository(NewMemoryKV())}, nil

	case "file":
		kv, err := NewFileKV(cfg.StoreDir)
		if err != nil {
			return nil, err
		}
		logx.Info("Using file storage", "dir", cfg.StoreDir)
		return &Backend{Stores: NewStoreRepository(kv)}, nil
	}

	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	logx.Info("Database connection established", "type", cfg.DatabaseType)

	return &Backend{
		Stores:   NewStoreRepository(NewSQLKV(db)),
		BadWords: NewBadWordRepository(db),
		db:       db,
	}, nil
}

// Close releases the database connection, if any
func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	return b.db.Close()
}
