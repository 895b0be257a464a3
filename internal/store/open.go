package store

import (
	"context"
	"fmt"
)

// Open connects to the configured backend. PostgreSQL databases are migrated
// to the latest schema first.
func Open(ctx context.Context, backend, databaseURL string) (Store, error) {
	switch backend {
	case "sqlite", "":
		return NewSQLiteStore(databaseURL)
	case "postgres":
		if err := RunMigrations(databaseURL, MigrationsFS()); err != nil {
			return nil, err
		}
		pool, err := NewPool(ctx, databaseURL)
		if err != nil {
			return nil, err
		}
		return NewPostgresStore(pool), nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", backend)
	}
}
