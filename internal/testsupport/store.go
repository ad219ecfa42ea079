package testsupport

import (
	"context"
	"testing"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/store/sqlite"
)

// MustOpenStore opens the SQLite catalog for cfg and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *sqlite.Store {
	t.Helper()

	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	store, err := sqlite.Open(context.Background(), cfg.SQLitePath())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

// MustSeed commits records as stamped writes.
func MustSeed(t testing.TB, store catalog.Store, records ...catalog.Record) {
	t.Helper()
	writes := make([]catalog.Write, 0, len(records))
	for _, r := range records {
		writes = append(writes, catalog.Write{Record: r, StampEpisodeAdded: true})
	}
	if err := store.CommitBatch(context.Background(), writes); err != nil {
		t.Fatalf("seed store: %v", err)
	}
}
