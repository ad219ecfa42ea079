package daemon_test

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"animehub/internal/daemon"
	"animehub/internal/ingest"
	"animehub/internal/retention"
	"animehub/internal/services"
)

type fakeIngest struct {
	calls   atomic.Int32
	active  *atomic.Int32
	overlap atomic.Bool
}

func (f *fakeIngest) Run(context.Context) (ingest.Summary, error) {
	f.calls.Add(1)
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	f.active.Add(-1)
	return ingest.Summary{RunID: "ingest-run", State: ingest.StateDone, Created: 1}, nil
}

type fakeSweep struct {
	calls   atomic.Int32
	active  *atomic.Int32
	overlap atomic.Bool
	err     error
}

func (f *fakeSweep) Run(context.Context, time.Time, bool) (retention.Report, error) {
	f.calls.Add(1)
	if f.active.Add(1) > 1 {
		f.overlap.Store(true)
	}
	time.Sleep(2 * time.Millisecond)
	f.active.Add(-1)
	return retention.Report{RunID: "sweep-run", Scanned: 3, Deleted: 1}, f.err
}

func newDaemon(t *testing.T, sweepErr error) (*daemon.Daemon, *fakeIngest, *fakeSweep, string) {
	t.Helper()
	active := &atomic.Int32{}
	in := &fakeIngest{active: active}
	sw := &fakeSweep{active: active, err: sweepErr}
	lockPath := filepath.Join(t.TempDir(), "animehub.lock")
	d, err := daemon.New(daemon.Options{
		IngestInterval: 5 * time.Millisecond,
		SweepInterval:  7 * time.Millisecond,
		SweepOnStart:   true,
		LockPath:       lockPath,
	}, in, sw, nil, nil)
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return d, in, sw, lockPath
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestDaemonStartStop(t *testing.T) {
	d, in, sw, _ := newDaemon(t, nil)
	ctx := context.Background()

	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if !d.Status().Running {
		t.Fatal("expected daemon to report running")
	}
	if err := d.Start(ctx); err == nil {
		t.Fatal("expected second start to fail")
	}

	waitFor(t, func() bool { return in.calls.Load() >= 2 && sw.calls.Load() >= 2 })
	d.Stop()

	status := d.Status()
	if status.Running {
		t.Fatal("expected daemon to be stopped")
	}
	if status.Ingest.LastRunID != "ingest-run" || status.Ingest.Runs < 2 {
		t.Fatalf("unexpected ingest status %+v", status.Ingest)
	}
	if status.Sweep.LastRunID != "sweep-run" || status.Sweep.Failures != 0 {
		t.Fatalf("unexpected sweep status %+v", status.Sweep)
	}
	if in.overlap.Load() || sw.overlap.Load() {
		t.Fatal("ingest and sweep overlapped")
	}
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	d, _, _, lockPath := newDaemon(t, nil)
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	if _, err := daemon.AcquireLock(lockPath); !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected lock contention, got %v", err)
	}
}

func TestDaemonRecordsSweepFailure(t *testing.T) {
	d, _, sw, _ := newDaemon(t, errors.New("scan failed"))
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	waitFor(t, func() bool { return sw.calls.Load() >= 1 })
	d.Stop()
	status := d.Status()
	if status.Sweep.Failures == 0 || status.Sweep.LastError == "" {
		t.Fatalf("expected sweep failure recorded, got %+v", status.Sweep)
	}
	if status.Sweep.LastFatal || status.Sweep.LastErrorKind != "unknown" {
		t.Fatalf("plain error should be non-fatal and unclassified, got %+v", status.Sweep)
	}
}

func TestDaemonClassifiesCycleFailures(t *testing.T) {
	cases := []struct {
		name  string
		err   error
		kind  string
		fatal bool
	}{
		{"scan", services.Wrap(services.ErrStoreRead, "sweeping", "scan catalog", "", errors.New("locked")), "store_read", false},
		{"config", services.Wrap(services.ErrConfiguration, "sweeping", "open", "", nil), "configuration", true},
	}
	for _, tc := range cases {
		d, _, sw, _ := newDaemon(t, tc.err)
		if err := d.Start(context.Background()); err != nil {
			t.Fatalf("%s: Start: %v", tc.name, err)
		}
		waitFor(t, func() bool { return sw.calls.Load() >= 1 })
		d.Stop()
		status := d.Status()
		if status.Sweep.LastErrorKind != tc.kind || status.Sweep.LastFatal != tc.fatal {
			t.Fatalf("%s: got kind=%q fatal=%v, want kind=%q fatal=%v",
				tc.name, status.Sweep.LastErrorKind, status.Sweep.LastFatal, tc.kind, tc.fatal)
		}
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	active := &atomic.Int32{}
	_, err := daemon.New(daemon.Options{LockPath: "x"}, &fakeIngest{active: active}, &fakeSweep{active: active}, nil, nil)
	if err == nil {
		t.Fatal("expected error for zero intervals")
	}
}

func TestCloseRunsClosers(t *testing.T) {
	var once sync.Once
	closed := false
	active := &atomic.Int32{}
	d, err := daemon.New(daemon.Options{
		IngestInterval: time.Hour,
		SweepInterval:  time.Hour,
		LockPath:       filepath.Join(t.TempDir(), "lock"),
	}, &fakeIngest{active: active}, &fakeSweep{active: active}, nil, nil, func() error {
		once.Do(func() { closed = true })
		return nil
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := d.Close(); err != nil || !closed {
		t.Fatalf("expected closer to run, err=%v closed=%v", err, closed)
	}
}
