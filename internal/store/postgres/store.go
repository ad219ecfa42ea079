// Package postgres persists catalog records in PostgreSQL through a pgx pool.
package postgres

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"animehub/internal/catalog"
)

//go:embed schema.sql
var schemaSQL string

const defaultMaxConns = 4

// Store implements catalog.Store on PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var _ catalog.Store = (*Store)(nil)

// Open connects to dsn and ensures the schema exists. maxConns <= 0 uses a
// small default pool.
func Open(ctx context.Context, dsn string, maxConns int) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse postgres dsn: %w", err)
	}
	if maxConns <= 0 {
		maxConns = defaultMaxConns
	}
	cfg.MaxConns = int32(maxConns)

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

// Close releases the pool.
func (s *Store) Close() error {
	if s == nil || s.pool == nil {
		return nil
	}
	s.pool.Close()
	return nil
}

const recordColumns = "secondary_id, series_id, latest_episode, episode_aired_at, episode_added_at, last_refreshed_at, status, series, created_at, updated_at"

func (s *Store) Get(ctx context.Context, id string) (*catalog.Record, error) {
	row := s.pool.QueryRow(ctx, "SELECT "+recordColumns+" FROM catalog_records WHERE secondary_id = $1", id)
	record, err := scanRecord(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get record %s: %w", id, err)
	}
	return record, nil
}

const upsertSQL = `INSERT INTO catalog_records (
    secondary_id, series_id, latest_episode, episode_aired_at, episode_added_at,
    last_refreshed_at, status, series, created_at, updated_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (secondary_id) DO UPDATE SET
    series_id = EXCLUDED.series_id,
    latest_episode = EXCLUDED.latest_episode,
    episode_aired_at = EXCLUDED.episode_aired_at,
    episode_added_at = CASE WHEN $11::boolean THEN EXCLUDED.episode_added_at
        ELSE COALESCE(catalog_records.episode_added_at, EXCLUDED.episode_added_at) END,
    last_refreshed_at = EXCLUDED.last_refreshed_at,
    status = EXCLUDED.status,
    series = EXCLUDED.series,
    updated_at = EXCLUDED.updated_at`

// CommitBatch queues every upsert in one pgx.Batch inside a transaction.
func (s *Store) CommitBatch(ctx context.Context, writes []catalog.Write) error {
	if len(writes) == 0 {
		return nil
	}
	b := &pgx.Batch{}
	for _, w := range writes {
		r := w.Record
		series, err := json.Marshal(r.Series)
		if err != nil {
			return fmt.Errorf("encode series %s: %w", r.SecondaryID, err)
		}
		b.Queue(upsertSQL,
			r.SecondaryID, r.SeriesID, r.LatestEpisode, r.EpisodeAiredAt.UTC(), nullableTime(r.EpisodeAddedAt),
			r.LastRefreshedAt.UTC(), string(r.Status), string(series), r.CreatedAt.UTC(), r.UpdatedAt.UTC(),
			w.StampEpisodeAdded,
		)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	br := tx.SendBatch(ctx, b)
	for i := range writes {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("upsert %s: %w", writes[i].Record.SecondaryID, err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("close batch: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context) ([]catalog.Record, error) {
	rows, err := s.pool.Query(ctx, "SELECT "+recordColumns+" FROM catalog_records ORDER BY secondary_id")
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

func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.pool.Exec(ctx, "DELETE FROM catalog_records WHERE secondary_id = $1", id); err != nil {
		return fmt.Errorf("delete record %s: %w", id, err)
	}
	return nil
}

func scanRecord(row pgx.Row) (*catalog.Record, error) {
	var (
		record  catalog.Record
		status  string
		series  []byte
		addedAt *time.Time
	)
	if err := row.Scan(
		&record.SecondaryID,
		&record.SeriesID,
		&record.LatestEpisode,
		&record.EpisodeAiredAt,
		&addedAt,
		&record.LastRefreshedAt,
		&status,
		&series,
		&record.CreatedAt,
		&record.UpdatedAt,
	); err != nil {
		return nil, err
	}
	record.Status = catalog.Status(status)
	if addedAt != nil {
		record.EpisodeAddedAt = *addedAt
	}
	if len(series) > 0 {
		if err := json.Unmarshal(series, &record.Series); err != nil {
			return nil, fmt.Errorf("decode series: %w", err)
		}
	}
	return &record, nil
}

func nullableTime(value time.Time) *time.Time {
	if value.IsZero() {
		return nil
	}
	v := value.UTC()
	return &v
}
