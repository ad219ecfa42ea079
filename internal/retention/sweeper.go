package retention

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"animehub/internal/catalog"
	"animehub/internal/config"
	"animehub/internal/logging"
	"animehub/internal/services"
)

// Verdict is the plan outcome for one record.
type Verdict struct {
	SecondaryID string
	Title       string
	Status      catalog.Status
	Keep        bool
	Reason      KeepReason
	Denylisted  bool
}

// Plan is the keep/delete decision for a full scan.
type Plan struct {
	Verdicts []Verdict
}

// Deletions returns the ids marked for deletion, sorted.
func (p Plan) Deletions() []string {
	var ids []string
	for _, v := range p.Verdicts {
		if !v.Keep {
			ids = append(ids, v.SecondaryID)
		}
	}
	sort.Strings(ids)
	return ids
}

// Report summarizes one sweep.
type Report struct {
	RunID      string
	Scanned    int
	Kept       int
	Deleted    int
	Denylisted int
	Failed     int
	DryRun     bool
	KeptBy     map[KeepReason]int
	Duration   time.Duration
	Plan       Plan
}

// Sweeper plans and applies retention against a store.
type Sweeper struct {
	store    catalog.Store
	windows  Windows
	denylist map[string]struct{}
	logger   *slog.Logger
}

// New constructs a Sweeper.
func New(store catalog.Store, windows Windows, denylist []string, logger *slog.Logger) *Sweeper {
	set := make(map[string]struct{}, len(denylist))
	for _, id := range denylist {
		if id = strings.TrimSpace(id); id != "" {
			set[id] = struct{}{}
		}
	}
	return &Sweeper{
		store:    store,
		windows:  windows,
		denylist: set,
		logger:   logging.NewComponentLogger(logger, "retention"),
	}
}

// NewFromConfig builds a Sweeper using the configured windows and denylist.
func NewFromConfig(store catalog.Store, cfg *config.Config, logger *slog.Logger) *Sweeper {
	return New(store, Windows{
		Recency:        cfg.RecencyWindow(),
		NewSeriesGrace: cfg.NewSeriesGrace(),
		RefreshGrace:   cfg.RefreshGrace(),
	}, cfg.Retention.DenylistIDs, logger)
}

// denied matches the denylist against either the secondary id or the
// AniList series id.
func (s *Sweeper) denied(record catalog.Record) bool {
	if _, ok := s.denylist[record.SecondaryID]; ok {
		return true
	}
	if record.SeriesID <= 0 {
		return false
	}
	_, ok := s.denylist[strconv.Itoa(record.SeriesID)]
	return ok
}

// Plan decides every record without touching the store.
func (s *Sweeper) Plan(records []catalog.Record, now time.Time) Plan {
	plan := Plan{Verdicts: make([]Verdict, 0, len(records))}
	for _, record := range records {
		v := Verdict{
			SecondaryID: record.SecondaryID,
			Title:       record.Title(),
			Status:      record.Status,
		}
		if s.denied(record) {
			v.Denylisted = true
		} else if reason := Evaluate(record, now, s.windows); reason != "" {
			v.Keep = true
			v.Reason = reason
		}
		plan.Verdicts = append(plan.Verdicts, v)
	}
	return plan
}

// Run scans the store, plans, and deletes expired records. Per-record delete
// failures are counted and logged; only a failed scan returns an error.
func (s *Sweeper) Run(ctx context.Context, now time.Time, dryRun bool) (Report, error) {
	start := time.Now()
	runID := uuid.NewString()
	ctx = services.WithRunID(ctx, runID)
	ctx = services.WithCycle(ctx, "sweep")
	logger := logging.WithContext(ctx, s.logger)

	report := Report{RunID: runID, DryRun: dryRun, KeptBy: make(map[KeepReason]int)}
	records, err := s.store.Scan(ctx)
	if err != nil {
		return report, services.Wrap(services.ErrStoreRead, "sweeping", "scan catalog", "", err)
	}
	report.Scanned = len(records)
	report.Plan = s.Plan(records, now)

	for _, v := range report.Plan.Verdicts {
		if v.Keep {
			report.Kept++
			report.KeptBy[v.Reason]++
			logger.Debug("retention decision",
				logging.Args(append(logging.DecisionAttrs("retention", "keep", string(v.Reason)),
					logging.Series(v.SecondaryID))...)...)
			continue
		}
		if v.Denylisted {
			report.Denylisted++
		}
		reason := "no recency signal"
		if v.Denylisted {
			reason = "denylisted"
		}
		logger.Debug("retention decision",
			logging.Args(append(logging.DecisionAttrs("retention", "delete", reason),
				logging.Series(v.SecondaryID))...)...)
		if dryRun {
			continue
		}
		if err := s.store.Delete(ctx, v.SecondaryID); err != nil {
			report.Failed++
			logging.WarnWithContext(logger, "record delete failed", "retention_delete_failed",
				logging.Series(v.SecondaryID),
				logging.Error(err),
				logging.String(logging.FieldImpact, "record is retried on the next sweep"),
			)
			continue
		}
		report.Deleted++
	}
	report.Duration = time.Since(start)

	logger.Info("sweep complete",
		logging.Int("scanned", report.Scanned),
		logging.Int("kept", report.Kept),
		logging.Int("deleted", report.Deleted),
		logging.Int("denylisted", report.Denylisted),
		logging.Int("failed", report.Failed),
		logging.Bool("dry_run", dryRun),
		logging.Duration("duration", report.Duration),
	)
	return report, nil
}
