package reconcile

import (
	"time"

	"animehub/internal/catalog"
)

// Transition is the reconcile outcome for one series.
type Transition string

const (
	TransitionCreate  Transition = "create"
	TransitionAdvance Transition = "advance"
	TransitionRefresh Transition = "refresh"
)

// Decision describes how a record is written.
type Decision struct {
	Transition Transition
	// StampEpisodeAdded is true when episode_added_at moves to now.
	StampEpisodeAdded bool
}

// Decide computes the transition and the complete record to write.
func Decide(entry catalog.Entry, prior *catalog.Record, now time.Time) (Decision, catalog.Record) {
	record := catalog.Record{
		SecondaryID:     entry.SecondaryID,
		SeriesID:        entry.SeriesID,
		LatestEpisode:   entry.Episode,
		EpisodeAiredAt:  entry.AiredAt,
		LastRefreshedAt: now,
		Status:          entry.Status,
		Series:          entry.Series,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	switch {
	case prior == nil:
		record.EpisodeAddedAt = now
		return Decision{Transition: TransitionCreate, StampEpisodeAdded: true}, record

	case entry.Episode > prior.LatestEpisode:
		record.EpisodeAddedAt = now
		record.CreatedAt = createdAt(prior, now)
		return Decision{Transition: TransitionAdvance, StampEpisodeAdded: true}, record

	default:
		record.EpisodeAddedAt = prior.EpisodeAddedAt
		record.CreatedAt = createdAt(prior, now)
		if entry.Episode < prior.LatestEpisode {
			record.LatestEpisode = prior.LatestEpisode
			record.EpisodeAiredAt = prior.EpisodeAiredAt
		} else if prior.EpisodeAiredAt.After(entry.AiredAt) {
			record.EpisodeAiredAt = prior.EpisodeAiredAt
		}
		return Decision{Transition: TransitionRefresh}, record
	}
}

func createdAt(prior *catalog.Record, now time.Time) time.Time {
	if prior.CreatedAt.IsZero() {
		return now
	}
	return prior.CreatedAt
}
