package ingest

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"animehub/internal/anilist"
	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/dedup"
	"animehub/internal/fetcher"
	"animehub/internal/logging"
	"animehub/internal/notifications"
	"animehub/internal/policy"
	"animehub/internal/reconcile"
	"animehub/internal/services"
)

// Dependencies wires a Driver. Notifier, Now and Logger are optional.
type Dependencies struct {
	Source   fetcher.PageSource
	Store    catalog.Store
	Admitter dedup.Admitter
	Notifier notifications.Service
	Fetch    fetcher.Options
	Recency  time.Duration
	// Concurrency bounds parallel prior reads during reconciliation.
	Concurrency int
	Now         func() time.Time
	Logger      *slog.Logger
}

// Driver runs ingest cycles. Run is not safe for concurrent use; callers
// serialize cycles.
type Driver struct {
	fetcher    *fetcher.Fetcher
	reducer    *dedup.Reducer
	reconciler *reconcile.Reconciler
	notifier   notifications.Service
	recency    time.Duration
	now        func() time.Time
	logger     *slog.Logger

	mu    sync.RWMutex
	state State
}

// New constructs a Driver from explicit dependencies.
func New(deps Dependencies) *Driver {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewService(&config.Config{})
	}
	if deps.Fetch.Logger == nil {
		deps.Fetch.Logger = deps.Logger
	}
	if deps.Fetch.Now == nil {
		deps.Fetch.Now = deps.Now
	}
	return &Driver{
		fetcher:    fetcher.New(deps.Source, deps.Fetch),
		reducer:    dedup.New(deps.Admitter, deps.Logger),
		reconciler: reconcile.New(deps.Store, deps.Concurrency, deps.Logger),
		notifier:   deps.Notifier,
		recency:    deps.Recency,
		now:        deps.Now,
		logger:     logging.NewComponentLogger(deps.Logger, "ingest"),
		state:      StateIdle,
	}
}

// NewFromConfig wires the AniList client, content policy and fetch tuning
// from configuration.
func NewFromConfig(cfg *config.Config, store catalog.Store, notifier notifications.Service, logger *slog.Logger) (*Driver, error) {
	client, err := anilist.New(cfg.AniList.BaseURL,
		anilist.WithTimeout(cfg.RequestTimeout()),
		anilist.WithUserAgent(cfg.AniList.UserAgent),
		anilist.WithRequestsPerMinute(cfg.AniList.RequestsPerMinute),
		anilist.WithLogger(logger),
	)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "build anilist client", "", err)
	}
	return New(Dependencies{
		Source:   client,
		Store:    store,
		Admitter: policy.New(cfg.Policy),
		Notifier: notifier,
		Fetch: fetcher.Options{
			PerPage:        cfg.AniList.PerPage,
			MaxRetries:     cfg.Ingest.MaxRetries,
			BackoffBase:    cfg.BackoffBase(),
			InterPageDelay: cfg.InterPageDelay(),
			MaxPages:       cfg.Ingest.MaxPages,
			Retriable:      anilist.IsRetriable,
			RetryAfter:     anilist.RetryAfter,
		},
		Recency:     cfg.RecencyWindow(),
		Concurrency: cfg.Ingest.StoreConcurrency,
		Logger:      logger,
	}), nil
}

// State returns the current lifecycle state.
func (d *Driver) State() State {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.state
}

func (d *Driver) setState(summary *Summary, next State, logger *slog.Logger) {
	d.mu.Lock()
	prev := d.state
	d.state = next
	d.mu.Unlock()
	if !CanTransition(prev, next) {
		logger.Warn("unexpected ingest state transition", logging.String("from", string(prev)), logging.String("to", string(next)))
	}
	summary.State = next
	summary.Path = append(summary.Path, next)
	logger.Debug("ingest state changed", logging.String("from", string(prev)), logging.String("to", string(next)))
}

// Run executes one cycle. The returned error is non-nil when the run ends
// FAILED or ctx is cancelled; the Summary is populated either way.
func (d *Driver) Run(ctx context.Context) (Summary, error) {
	started := d.now()
	summary := Summary{
		RunID:     uuid.NewString(),
		StartedAt: started,
		Path:      []State{StateIdle},
	}
	ctx = services.WithRunID(ctx, summary.RunID)
	ctx = services.WithCycle(ctx, "ingest")
	logger := logging.WithContext(ctx, d.logger)

	d.mu.Lock()
	d.state = StateIdle
	d.mu.Unlock()

	cutoff := started.Add(-d.recency)

	d.setState(&summary, StateFetching, logger)
	fetched, err := d.fetcher.Fetch(services.WithStage(ctx, "fetching"), cutoff)
	summary.Pages = fetched.Pages
	summary.Attempts = fetched.Attempts
	summary.Stop = string(fetched.Stop)
	summary.Fetched = len(fetched.Entries)
	summary.Rejected = fetched.Rejected
	if fetched.Failure != nil {
		summary.FetchError = fetched.Failure.Error()
	}
	if err != nil {
		return d.fail(ctx, &summary, started, err, logger)
	}
	if len(fetched.Entries) == 0 {
		cause := fetched.Failure
		if cause == nil {
			cause = services.Wrap(services.ErrUpstreamData, "fetching", "fetch schedule",
				fmt.Sprintf("no entries returned across %d page(s)", fetched.Pages), nil)
		}
		return d.fail(ctx, &summary, started, cause, logger)
	}

	d.setState(&summary, StateFiltering, logger)
	reduced := d.reducer.Reduce(fetched.Entries, cutoff)
	summary.Admitted = reduced.Admitted
	summary.Unique = len(reduced.Entries)
	summary.Drops = make(map[string]int, len(reduced.Drops))
	for reason, n := range reduced.Drops {
		summary.Drops[string(reason)] = n
	}
	summary.PolicyDrops = make(map[string]int, len(reduced.Policy))
	for reason, n := range reduced.Policy {
		summary.PolicyDrops[string(reason)] = n
	}

	d.setState(&summary, StateReconciling, logger)
	report, err := d.reconciler.Apply(services.WithStage(ctx, "reconciling"), reduced.Entries, d.now())
	summary.Skipped = len(report.Failures)
	if err != nil {
		return d.fail(ctx, &summary, started, err, logger)
	}
	summary.Created = report.Created
	summary.Advanced = report.Advanced
	summary.Refreshed = report.Refreshed

	d.setState(&summary, StateDone, logger)
	summary.Duration = d.now().Sub(started)
	logger.Info("ingest cycle complete",
		logging.String("state", string(summary.State)),
		logging.Int("pages", summary.Pages),
		logging.String("stop", summary.Stop),
		logging.Int("fetched", summary.Fetched),
		logging.Int("unique", summary.Unique),
		logging.Int("created", summary.Created),
		logging.Int("advanced", summary.Advanced),
		logging.Int("refreshed", summary.Refreshed),
		logging.Int("skipped", summary.Skipped),
		logging.Duration("duration", summary.Duration),
	)

	if len(report.Added) > 0 {
		if err := d.notifier.NotifyEpisodesAdded(ctx, report.Added); err != nil {
			logging.WarnWithContext(logger, "episode notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "catalog is updated; push notification was not delivered"),
			)
		}
	}
	return summary, nil
}

func (d *Driver) fail(ctx context.Context, summary *Summary, started time.Time, cause error, logger *slog.Logger) (Summary, error) {
	d.setState(summary, StateFailed, logger)
	summary.Duration = d.now().Sub(started)
	summary.Error = cause.Error()
	summary.ErrorKind = services.Kind(cause)
	logging.ErrorWithContext(logger, "ingest cycle failed", "ingest_failed",
		logging.Error(cause),
		logging.String(logging.FieldErrorKind, summary.ErrorKind),
		logging.Int("pages", summary.Pages),
		logging.Int("fetched", summary.Fetched),
		logging.String(logging.FieldImpact, "catalog unchanged this cycle"),
	)
	if ctx.Err() == nil {
		if err := d.notifier.NotifyRunFailed(ctx, "ingest", cause); err != nil {
			logger.Warn("failure notification not delivered", logging.Error(err))
		}
	}
	return *summary, cause
}
