package retention

import (
	"time"

	"animehub/internal/catalog"
)

// KeepReason names the predicate that kept a record.
type KeepReason string

const (
	KeepReleasing         KeepReason = "releasing"
	KeepAiredRecently     KeepReason = "aired_recently"
	KeepNewSeries         KeepReason = "new_series"
	KeepAddedRecently     KeepReason = "added_recently"
	KeepRefreshedRecently KeepReason = "refreshed_recently"
)

// Windows holds the recency cutoffs predicates evaluate against.
type Windows struct {
	Recency        time.Duration
	NewSeriesGrace time.Duration
	RefreshGrace   time.Duration
}

type predicate struct {
	reason KeepReason
	keep   func(catalog.Record, time.Time, Windows) bool
}

var predicates = []predicate{
	{KeepReleasing, func(r catalog.Record, _ time.Time, _ Windows) bool {
		return r.Status.IsReleasing()
	}},
	{KeepAiredRecently, func(r catalog.Record, now time.Time, w Windows) bool {
		return within(r.EpisodeAiredAt, now, w.Recency)
	}},
	{KeepNewSeries, func(r catalog.Record, now time.Time, w Windows) bool {
		return r.Series.StartDate != nil && within(*r.Series.StartDate, now, w.NewSeriesGrace)
	}},
	{KeepAddedRecently, func(r catalog.Record, now time.Time, w Windows) bool {
		return within(r.EpisodeAddedAt, now, w.Recency)
	}},
	{KeepRefreshedRecently, func(r catalog.Record, now time.Time, w Windows) bool {
		return within(r.LastRefreshedAt, now, w.RefreshGrace)
	}},
}

// KeepReasons lists reasons in evaluation order.
func KeepReasons() []KeepReason {
	out := make([]KeepReason, len(predicates))
	for i, p := range predicates {
		out[i] = p.reason
	}
	return out
}

// Evaluate returns the first matching keep reason, or "" when the record
// should be deleted.
func Evaluate(record catalog.Record, now time.Time, w Windows) KeepReason {
	for _, p := range predicates {
		if p.keep(record, now, w) {
			return p.reason
		}
	}
	return ""
}

// within reports whether ts is no older than window relative to now. Zero
// timestamps never qualify.
func within(ts, now time.Time, window time.Duration) bool {
	if ts.IsZero() {
		return false
	}
	return !ts.Before(now.Add(-window))
}
