package reconcile

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sourcegraph/conc/pool"

	"animehub/internal/catalog"
	"animehub/internal/logging"
	"animehub/internal/services"
)

// RecordFailure is a per-series error excluded from the batch.
type RecordFailure struct {
	SecondaryID string
	Err         error
}

// Report summarizes one Apply call.
type Report struct {
	Created   int
	Advanced  int
	Refreshed int
	Failures  []RecordFailure
	// Added holds the records whose episode_added_at moved (CREATE or ADVANCE).
	Added []catalog.Record
}

// Written is the number of records committed.
func (r Report) Written() int {
	return r.Created + r.Advanced + r.Refreshed
}

// Reconciler reads prior state and commits batches against a store.
type Reconciler struct {
	store       catalog.Store
	concurrency int
	logger      *slog.Logger
}

// New constructs a Reconciler. concurrency bounds parallel prior reads.
func New(store catalog.Store, concurrency int, logger *slog.Logger) *Reconciler {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Reconciler{
		store:       store,
		concurrency: concurrency,
		logger:      logging.NewComponentLogger(logger, "reconcile"),
	}
}

type readResult struct {
	prior *catalog.Record
	err   error
}

// Apply reconciles entries (one per secondary id) and commits the writes
// atomically. The error is non-nil only when the batch commit fails; the
// returned Report still describes what was attempted.
func (r *Reconciler) Apply(ctx context.Context, entries []catalog.Entry, now time.Time) (Report, error) {
	logger := logging.WithContext(ctx, r.logger)
	reads := r.readPriors(ctx, entries)

	var report Report
	writes := make([]catalog.Write, 0, len(entries))
	for i, entry := range entries {
		if err := reads[i].err; err != nil {
			report.Failures = append(report.Failures, RecordFailure{SecondaryID: entry.SecondaryID, Err: err})
			logging.WarnWithContext(logger, "prior record read failed; series skipped this cycle", "store_read_failed",
				logging.Series(entry.SecondaryID),
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldImpact, "series is reconciled on the next cycle"),
			)
			continue
		}

		decision, record := Decide(entry, reads[i].prior, now)
		write := catalog.Write{Record: record, StampEpisodeAdded: decision.StampEpisodeAdded}
		if err := validate(write); err != nil {
			report.Failures = append(report.Failures, RecordFailure{SecondaryID: entry.SecondaryID, Err: err})
			logging.WarnWithContext(logger, "record rejected before write", "store_write_rejected",
				logging.Series(entry.SecondaryID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "series is not persisted this cycle"),
			)
			continue
		}

		writes = append(writes, write)
		switch decision.Transition {
		case TransitionCreate:
			report.Created++
		case TransitionAdvance:
			report.Advanced++
		case TransitionRefresh:
			report.Refreshed++
		}
		if decision.StampEpisodeAdded {
			report.Added = append(report.Added, record)
		}
		logger.Debug("reconcile decision",
			logging.Args(append(logging.DecisionAttrs("reconcile", string(decision.Transition), transitionReason(decision.Transition)),
				logging.Series(entry.SecondaryID),
				logging.Int("episode", record.LatestEpisode),
			)...)...,
		)
	}

	if len(writes) == 0 {
		return report, nil
	}
	if err := r.store.CommitBatch(ctx, writes); err != nil {
		return report, services.Wrap(services.ErrBatchCommit, "reconciling", "commit batch",
			fmt.Sprintf("%d write(s) rolled back", len(writes)), err)
	}
	return report, nil
}

func (r *Reconciler) readPriors(ctx context.Context, entries []catalog.Entry) []readResult {
	results := make([]readResult, len(entries))
	p := pool.New().WithMaxGoroutines(r.concurrency)
	for i, entry := range entries {
		p.Go(func() {
			prior, err := r.store.Get(ctx, entry.SecondaryID)
			if err != nil {
				err = services.Wrap(services.ErrStoreRead, "reconciling", "get record", entry.SecondaryID, err)
			}
			results[i] = readResult{prior: prior, err: err}
		})
	}
	p.Wait()
	return results
}

// validate checks a write before it joins the batch. Only stamped writes need
// an added time; unstamped writes keep whatever the store holds, NULL included.
func validate(w catalog.Write) error {
	record := w.Record
	switch {
	case record.SecondaryID == "":
		return services.Wrap(services.ErrStoreWrite, "reconciling", "validate", "record has no secondary id", nil)
	case record.LatestEpisode < 1:
		return services.Wrap(services.ErrStoreWrite, "reconciling", "validate",
			fmt.Sprintf("latest episode %d is not positive", record.LatestEpisode), nil)
	case w.StampEpisodeAdded && record.EpisodeAddedAt.IsZero():
		return services.Wrap(services.ErrStoreWrite, "reconciling", "validate", "episode added time missing", nil)
	}
	return nil
}

func transitionReason(t Transition) string {
	switch t {
	case TransitionCreate:
		return "no prior record"
	case TransitionAdvance:
		return "episode advanced"
	default:
		return "episode unchanged; metadata refreshed"
	}
}
