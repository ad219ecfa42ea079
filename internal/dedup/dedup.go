package dedup

import (
	"log/slog"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/logging"
	"animehub/internal/policy"
)

// DropReason names why an entry did not survive reduction.
type DropReason string

const (
	DropMissingID    DropReason = "missing_id"
	DropPolicy       DropReason = "policy"
	DropStale        DropReason = "stale"
	DropNotReleasing DropReason = "not_releasing"
	DropSuperseded   DropReason = "superseded"
)

// Admitter is the content policy consulted for each entry.
type Admitter interface {
	Admit(series catalog.Series) policy.Decision
}

// Result is the reduced schedule and its bookkeeping.
type Result struct {
	// Entries holds one entry per secondary id, ordered by first sighting.
	Entries  []catalog.Entry
	Input    int
	Drops    map[DropReason]int
	Policy   map[policy.Reason]int
	Admitted int
}

// Reducer applies the drop rules and the latest-wins reduction.
type Reducer struct {
	policy Admitter
	logger *slog.Logger
}

// New constructs a Reducer.
func New(admitter Admitter, logger *slog.Logger) *Reducer {
	return &Reducer{policy: admitter, logger: logging.NewComponentLogger(logger, "dedup")}
}

// Reduce filters entries and keeps the greatest episode per series.
func (r *Reducer) Reduce(entries []catalog.Entry, cutoff time.Time) Result {
	result := Result{
		Input:  len(entries),
		Drops:  make(map[DropReason]int),
		Policy: make(map[policy.Reason]int),
	}
	index := make(map[string]int, len(entries))

	for _, entry := range entries {
		if !entry.Addressable() {
			result.Drops[DropMissingID]++
			continue
		}
		if decision := r.policy.Admit(entry.Series); !decision.Allowed {
			result.Drops[DropPolicy]++
			result.Policy[decision.Reason]++
			r.logger.Debug("entry rejected by content policy",
				logging.Args(append(logging.DecisionAttrs("content_policy", "rejected", string(decision.Reason)),
					logging.Series(entry.SecondaryID),
					logging.String("title", entry.Series.Titles.Display()),
					logging.String("detail", decision.Detail),
				)...)...,
			)
			continue
		}
		if entry.AiredAt.Before(cutoff) {
			result.Drops[DropStale]++
			continue
		}
		if !entry.Status.IsReleasing() {
			result.Drops[DropNotReleasing]++
			continue
		}
		result.Admitted++

		pos, seen := index[entry.SecondaryID]
		if !seen {
			index[entry.SecondaryID] = len(result.Entries)
			result.Entries = append(result.Entries, entry)
			continue
		}
		result.Drops[DropSuperseded]++
		if entry.Episode > result.Entries[pos].Episode {
			result.Entries[pos] = entry
		}
	}
	return result
}
