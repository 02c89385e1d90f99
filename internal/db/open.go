package db

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// Storage backend names.
const (
	BackendPostgres = "postgres"
	BackendSQLite   = "sqlite"
	BackendMemory   = "memory"
)

// Backend is an opened KV together with its release function.
type Backend struct {
	Name string
	KV   KV

	close func()
}

func (b *Backend) Close() {
	if b.close != nil {
		b.close()
	}
}

// OpenBackend connects the named backend. Postgres pools are migrated
// before use.
func OpenBackend(ctx context.Context, name, dbURL, sqlitePath string, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	switch name {
	case BackendPostgres:
		pool, err := Connect(ctx, dbURL)
		if err != nil {
			return nil, err
		}
		if err := ApplyMigrations(ctx, pool, logger); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migration failed: %w", err)
		}
		return &Backend{Name: name, KV: NewPostgresKV(pool), close: pool.Close}, nil

	case BackendSQLite:
		kv, err := OpenSQLite(sqlitePath)
		if err != nil {
			return nil, err
		}
		logger.Debug("opened sqlite store", zap.String("path", kv.DBPath))
		return &Backend{Name: name, KV: kv, close: func() {
			if err := kv.Close(); err != nil {
				logger.Warn("failed to close sqlite store", zap.Error(err))
			}
		}}, nil

	case BackendMemory:
		return &Backend{Name: name, KV: NewMemoryKV()}, nil
	}
	return nil, fmt.Errorf("unknown store backend %q", name)
}
