// Package store opens the catalog backend selected by configuration.
package store

import (
	"context"
	"fmt"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/services"
	"animehub/internal/store/postgres"
	"animehub/internal/store/sqlite"
)

// Open returns the configured catalog store.
func Open(ctx context.Context, cfg *config.Config) (catalog.Store, error) {
	switch cfg.Store.Driver {
	case config.StoreDriverSQLite, "":
		if err := cfg.EnsureDirectories(); err != nil {
			return nil, fmt.Errorf("ensure directories: %w", err)
		}
		return sqlite.Open(ctx, cfg.SQLitePath())
	case config.StoreDriverPostgres:
		return postgres.Open(ctx, cfg.Store.DSN, cfg.Ingest.StoreConcurrency)
	default:
		return nil, services.Wrap(services.ErrConfiguration, "startup", "open store",
			fmt.Sprintf("unsupported store driver %q", cfg.Store.Driver), nil)
	}
}
