package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"animehub/internal/catalog"
)

// Store implements catalog.Store on SQLite.
type Store struct {
	db   *sql.DB
	path string
}

var _ catalog.Store = (*Store)(nil)

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond
)

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

// Open creates or connects to the catalog database at path.
func Open(ctx context.Context, path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database dir: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.ExecContext(ctx, pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: path}
	if err := store.ensureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Path returns the database file location.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Get returns the record for id, or nil when none exists.
func (s *Store) Get(ctx context.Context, id string) (*catalog.Record, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT "+recordColumns+" FROM catalog_records WHERE secondary_id = ?", id)
	record, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

const upsertSQL = `INSERT INTO catalog_records (
    secondary_id, series_id, latest_episode, episode_aired_at, episode_added_at,
    last_refreshed_at, status, series_json, created_at, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(secondary_id) DO UPDATE SET
    series_id = excluded.series_id,
    latest_episode = excluded.latest_episode,
    episode_aired_at = excluded.episode_aired_at,
    episode_added_at = CASE WHEN ? = 1 THEN excluded.episode_added_at
        ELSE COALESCE(catalog_records.episode_added_at, excluded.episode_added_at) END,
    last_refreshed_at = excluded.last_refreshed_at,
    status = excluded.status,
    series_json = excluded.series_json,
    updated_at = excluded.updated_at`

// CommitBatch upserts every write in one transaction. Unstamped writes keep
// the stored episode_added_at; created_at is never overwritten.
func (s *Store) CommitBatch(ctx context.Context, writes []catalog.Write) error {
	if len(writes) == 0 {
		return nil
	}
	args := make([][]any, 0, len(writes))
	for _, w := range writes {
		seriesJSON, err := encodeSeries(w.Record.Series)
		if err != nil {
			return fmt.Errorf("encode series %s: %w", w.Record.SecondaryID, err)
		}
		r := w.Record
		args = append(args, []any{
			r.SecondaryID,
			r.SeriesID,
			r.LatestEpisode,
			formatTime(r.EpisodeAiredAt),
			nullableTime(r.EpisodeAddedAt),
			formatTime(r.LastRefreshedAt),
			string(r.Status),
			seriesJSON,
			formatTime(r.CreatedAt),
			formatTime(r.UpdatedAt),
			boolToInt(w.StampEpisodeAdded),
		})
	}

	return retryOnBusy(ctx, func() error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin batch tx: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		stmt, err := tx.PrepareContext(ctx, upsertSQL)
		if err != nil {
			return fmt.Errorf("prepare upsert: %w", err)
		}
		defer stmt.Close()

		for i, a := range args {
			if _, err := stmt.ExecContext(ctx, a...); err != nil {
				return fmt.Errorf("upsert %s: %w", writes[i].Record.SecondaryID, err)
			}
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("commit batch: %w", err)
		}
		return nil
	})
}

// Scan returns every record ordered by secondary id.
func (s *Store) Scan(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+recordColumns+" FROM catalog_records ORDER BY secondary_id")
	if err != nil {
		return nil, fmt.Errorf("scan catalog: %w", err)
	}
	defer rows.Close()

	var records []catalog.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog row: %w", err)
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// Delete removes the record for id. Deleting a missing id is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	return retryOnBusy(ctx, func() error {
		_, err := s.db.ExecContext(ctx, "DELETE FROM catalog_records WHERE secondary_id = ?", id)
		return err
	})
}
