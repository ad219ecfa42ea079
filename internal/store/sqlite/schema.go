package sqlite

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
)

//go:embed schema.sql
var schemaSQL string

// catalogSchemaVersion is stored in PRAGMA user_version. Bump it whenever
// schema.sql changes shape; older catalogs are rebuilt, not migrated.
const catalogSchemaVersion = 1

// ErrSchemaMismatch indicates the catalog was written by another schema version.
var ErrSchemaMismatch = errors.New("catalog schema version mismatch")

func (s *Store) ensureSchema(ctx context.Context) error {
	var version int
	if err := s.db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read catalog schema version: %w", err)
	}
	switch version {
	case catalogSchemaVersion:
		return nil
	case 0:
		return s.applySchema(ctx)
	default:
		return fmt.Errorf("%w: %s has version %d, this build expects %d; remove it and re-run ingest to rebuild",
			ErrSchemaMismatch, s.path, version, catalogSchemaVersion)
	}
}

func (s *Store) applySchema(ctx context.Context) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("create catalog tables: %w", err)
	}
	// PRAGMA does not accept bound parameters.
	if _, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", catalogSchemaVersion)); err != nil {
		return fmt.Errorf("stamp catalog schema version: %w", err)
	}
	return tx.Commit()
}
