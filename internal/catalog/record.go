package catalog

import (
	"context"
	"time"
)

// Record is the persisted state of one tracked series, keyed by SecondaryID.
type Record struct {
	SecondaryID     string
	SeriesID        int
	LatestEpisode   int
	EpisodeAiredAt  time.Time
	EpisodeAddedAt  time.Time
	LastRefreshedAt time.Time
	Status          Status
	Series          Series
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Title returns the display title of the record's series.
func (r Record) Title() string {
	return r.Series.Titles.Display()
}

// Write is one upsert in a batch commit. When StampEpisodeAdded is false the
// store keeps whatever episode_added_at the row already holds.
type Write struct {
	Record            Record
	StampEpisodeAdded bool
}

// Store persists catalog records.
//
// Get returns (nil, nil) when no record exists. CommitBatch applies every
// write atomically or none of them.
type Store interface {
	Get(ctx context.Context, secondaryID string) (*Record, error)
	CommitBatch(ctx context.Context, writes []Write) error
	Scan(ctx context.Context) ([]Record, error)
	Delete(ctx context.Context, secondaryID string) error
	Close() error
}
