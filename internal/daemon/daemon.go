package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"animehub/internal/config"
	"animehub/internal/ingest"
	"animehub/internal/logging"
	"animehub/internal/notifications"
	"animehub/internal/retention"
	"animehub/internal/services"
)

// IngestRunner runs one ingest cycle.
type IngestRunner interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

// SweepRunner runs one retention sweep.
type SweepRunner interface {
	Run(ctx context.Context, now time.Time, dryRun bool) (retention.Report, error)
}

// CycleStatus tracks the most recent run of one cycle kind.
type CycleStatus struct {
	Runs          int
	Failures      int
	LastRunID     string
	LastStart     time.Time
	LastFinish    time.Time
	LastError     string
	LastErrorKind string
	// LastFatal is set when the last run failed as a whole rather than
	// skipping individual records.
	LastFatal bool
	Detail    string
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LockFilePath string
	Ingest       CycleStatus
	Sweep        CycleStatus
}

// Options controls daemon cadence.
type Options struct {
	IngestInterval time.Duration
	SweepInterval  time.Duration
	SweepOnStart   bool
	LockPath       string
	Now            func() time.Time
}

// OptionsFromConfig maps the [schedule] section.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		IngestInterval: cfg.IngestInterval(),
		SweepInterval:  cfg.SweepInterval(),
		SweepOnStart:   cfg.Schedule.SweepOnStart,
		LockPath:       cfg.LockPath(),
	}
}

// Daemon schedules ingest and sweep cycles.
type Daemon struct {
	opts     Options
	ingest   IngestRunner
	sweep    SweepRunner
	notifier notifications.Service
	logger   *slog.Logger
	closers  []func() error

	lock    *flock.Flock
	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	// cycleMu serializes ingest and sweep.
	cycleMu sync.Mutex

	statusMu sync.RWMutex
	status   Status
}

// New constructs a daemon. closers run on Close, typically the store.
func New(opts Options, ingestRunner IngestRunner, sweeper SweepRunner, notifier notifications.Service, logger *slog.Logger, closers ...func() error) (*Daemon, error) {
	if ingestRunner == nil || sweeper == nil {
		return nil, errors.New("daemon requires ingest and sweep runners")
	}
	if opts.IngestInterval <= 0 || opts.SweepInterval <= 0 {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "daemon", "intervals must be positive", nil)
	}
	if opts.LockPath == "" {
		return nil, services.Wrap(services.ErrConfiguration, "startup", "daemon", "lock path required", nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if notifier == nil {
		notifier = notifications.NewService(&config.Config{})
	}
	return &Daemon{
		opts:     opts,
		ingest:   ingestRunner,
		sweep:    sweeper,
		notifier: notifier,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		closers:  closers,
		status:   Status{LockFilePath: opts.LockPath},
	}, nil
}

// Start acquires the lock and launches the schedulers. An ingest cycle runs
// immediately; a sweep runs immediately only when SweepOnStart is set.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	lock, err := AcquireLock(d.opts.LockPath)
	if err != nil {
		return err
	}
	d.lock = lock

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.running.Store(true)
	d.setRunning(true)

	d.wg.Add(2)
	go d.loop(runCtx, "ingest", d.opts.IngestInterval, true, d.runIngest)
	go d.loop(runCtx, "sweep", d.opts.SweepInterval, d.opts.SweepOnStart, d.runSweep)

	d.logger.Info("animehub daemon started",
		logging.String("lock", d.opts.LockPath),
		logging.Duration("ingest_interval", d.opts.IngestInterval),
		logging.Duration("sweep_interval", d.opts.SweepInterval),
	)
	return nil
}

// Stop cancels the schedulers, waits for an in-flight cycle, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if d.lock != nil {
		if err := d.lock.Unlock(); err != nil {
			d.logger.Warn("failed to release daemon lock", logging.Error(err))
		}
		d.lock = nil
	}
	d.running.Store(false)
	d.setRunning(false)
	d.logger.Info("animehub daemon stopped")
}

// Close stops the daemon and releases held resources.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	for _, closer := range d.closers {
		if err := closer(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status returns a snapshot of daemon state.
func (d *Daemon) Status() Status {
	d.statusMu.RLock()
	defer d.statusMu.RUnlock()
	return d.status
}

// TestNotification sends a test push through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) error {
	return d.notifier.TestNotification(ctx)
}

func (d *Daemon) loop(ctx context.Context, kind string, interval time.Duration, immediate bool, run func(context.Context)) {
	defer d.wg.Done()
	if immediate {
		run(ctx)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			run(ctx)
		}
	}
}

func (d *Daemon) runIngest(ctx context.Context) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	start := d.opts.Now()
	summary, err := d.ingest.Run(ctx)
	detail := fmt.Sprintf("state=%s created=%d advanced=%d refreshed=%d", summary.State, summary.Created, summary.Advanced, summary.Refreshed)
	d.record(func(s *Status) *CycleStatus { return &s.Ingest }, summary.RunID, start, detail, err)
}

func (d *Daemon) runSweep(ctx context.Context) {
	d.cycleMu.Lock()
	defer d.cycleMu.Unlock()
	if ctx.Err() != nil {
		return
	}
	start := d.opts.Now()
	report, err := d.sweep.Run(ctx, start, false)
	detail := fmt.Sprintf("scanned=%d kept=%d deleted=%d failed=%d", report.Scanned, report.Kept, report.Deleted, report.Failed)
	d.record(func(s *Status) *CycleStatus { return &s.Sweep }, report.RunID, start, detail, err)
	if err != nil {
		if services.IsFatal(err) {
			logging.ErrorWithContext(d.logger, "sweep failed", "sweep_failed",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
			)
		} else {
			logging.WarnWithContext(d.logger, "sweep skipped", "sweep_skipped",
				logging.Error(err),
				logging.String(logging.FieldErrorKind, services.Kind(err)),
				logging.String(logging.FieldImpact, "catalog untouched; sweep retried next interval"),
			)
		}
		if ctx.Err() == nil {
			if notifyErr := d.notifier.NotifyRunFailed(ctx, "sweep", err); notifyErr != nil {
				d.logger.Warn("failure notification not delivered", logging.Error(notifyErr))
			}
		}
	}
}

func (d *Daemon) record(pick func(*Status) *CycleStatus, runID string, start time.Time, detail string, err error) {
	d.statusMu.Lock()
	defer d.statusMu.Unlock()
	cycle := pick(&d.status)
	cycle.Runs++
	cycle.LastRunID = runID
	cycle.LastStart = start
	cycle.LastFinish = d.opts.Now()
	cycle.Detail = detail
	cycle.LastError = ""
	cycle.LastErrorKind = ""
	cycle.LastFatal = false
	if err != nil {
		cycle.Failures++
		cycle.LastError = err.Error()
		cycle.LastErrorKind = services.Kind(err)
		cycle.LastFatal = services.IsFatal(err)
	}
}

func (d *Daemon) setRunning(running bool) {
	d.statusMu.Lock()
	d.status.Running = running
	d.statusMu.Unlock()
}
