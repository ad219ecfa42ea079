package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"

	"animehub/internal/catalog"
	"animehub/internal/logging"
	"animehub/internal/services"
)

// StopReason explains why pagination ended.
type StopReason string

const (
	StopExhausted StopReason = "exhausted"
	StopWindow    StopReason = "window"
	StopMaxPages  StopReason = "max_pages"
	StopFailure   StopReason = "failure"
)

// Options tunes a Fetcher. Zero values fall back to safe defaults.
type Options struct {
	PerPage        int
	MaxRetries     int
	BackoffBase    time.Duration
	InterPageDelay time.Duration
	MaxPages       int
	// Retriable decides whether a page error deserves another attempt.
	// When nil every error except context cancellation is retried.
	Retriable func(error) bool
	// RetryAfter extracts a server-requested wait from a page error. When it
	// returns more than the linear backoff, the retry waits that long instead.
	RetryAfter func(error) time.Duration
	Now        func() time.Time
	Logger    *slog.Logger
}

// Result is the outcome of one pagination walk.
type Result struct {
	Entries  []catalog.Entry
	Pages    int
	Attempts int
	Rejected int
	Stop     StopReason
	// Failure is set when a page exhausted its retries.
	Failure     error
	FailedPage  int
	OldestAired time.Time
}

// Fetcher drives a PageSource.
type Fetcher struct {
	source PageSource
	opts   Options
	logger *slog.Logger
}

// New constructs a Fetcher.
func New(source PageSource, opts Options) *Fetcher {
	if opts.PerPage <= 0 {
		opts.PerPage = 50
	}
	if opts.MaxRetries <= 0 {
		opts.MaxRetries = 1
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 1
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Fetcher{
		source: source,
		opts:   opts,
		logger: logging.NewComponentLogger(opts.Logger, "fetcher"),
	}
}

// Fetch walks pages newest-first until a stop condition holds. The returned
// error is non-nil only when ctx is done; page failures are reported through
// Result.Failure.
func (f *Fetcher) Fetch(ctx context.Context, cutoff time.Time) (Result, error) {
	logger := logging.WithContext(ctx, f.logger)
	before := f.opts.Now()
	var result Result

	for page := 1; ; page++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if page > f.opts.MaxPages {
			result.Stop = StopMaxPages
			logging.WarnWithContext(logger, "page bound reached before the recency window closed", "fetch_page_bound",
				logging.Int("max_pages", f.opts.MaxPages),
				logging.String(logging.FieldImpact, "older in-window entries were not fetched"),
				logging.String(logging.FieldErrorHint, "raise ingest.max_pages"),
			)
			return result, nil
		}

		req := PageRequest{Page: page, PerPage: f.opts.PerPage, Before: before}
		got, attempts, err := f.fetchWithRetry(ctx, req, logger)
		result.Attempts += attempts
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return result, ctxErr
			}
			result.Stop = StopFailure
			result.FailedPage = page
			result.Failure = services.Wrap(services.ErrTransientFetch, "fetching", "fetch page",
				fmt.Sprintf("page %d failed after %d attempt(s)", page, attempts), err)
			logging.WarnWithContext(logger, "page fetch failed; continuing with partial results", "fetch_page_failed",
				logging.Int("page", page),
				logging.Int("attempts", attempts),
				logging.Error(err),
				logging.String(logging.FieldImpact, "entries on later pages are skipped this cycle"),
				logging.String(logging.FieldErrorHint, "check upstream availability and rate limits"),
			)
			return result, nil
		}

		result.Pages++
		result.Rejected += got.Rejected
		result.Entries = append(result.Entries, got.Entries...)
		oldest, ok := oldestAired(got.Entries)
		if ok {
			result.OldestAired = oldest
		}
		logger.Debug("page fetched",
			logging.Int("page", page),
			logging.Int("entries", len(got.Entries)),
			logging.Int("rejected", got.Rejected),
			logging.Bool("has_next_page", got.Info.HasNextPage),
			logging.Time("oldest_aired", oldest),
		)

		if ok && oldest.Before(cutoff) {
			result.Stop = StopWindow
			return result, nil
		}
		if !got.Info.HasNextPage {
			result.Stop = StopExhausted
			return result, nil
		}
		if err := pause(ctx, f.opts.InterPageDelay); err != nil {
			return result, fmt.Errorf("wait before page %d: %w", page+1, err)
		}
	}
}

// pause waits the full inter-page delay, measured from the end of the
// previous page. Retry backoff inside a page does not count toward it.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, req PageRequest, logger *slog.Logger) (Page, int, error) {
	var page Page
	attempts := 0
	base := f.opts.BackoffBase
	retriable := f.opts.Retriable
	retryAfter := f.opts.RetryAfter
	backoff := func(n uint, err error) time.Duration {
		d := time.Duration(n+1) * base
		if retryAfter != nil {
			d = max(d, retryAfter(err))
		}
		return d
	}

	err := retry.Do(
		func() error {
			attempts++
			got, err := f.source.FetchPage(ctx, req)
			if err != nil {
				return err
			}
			page = got
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(f.opts.MaxRetries)),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, _ *retry.Config) time.Duration {
			return backoff(n, err)
		}),
		retry.RetryIf(func(err error) bool {
			if errors.Is(err, context.Canceled) || ctx.Err() != nil {
				return false
			}
			if retriable == nil {
				return true
			}
			return retriable(err)
		}),
		retry.OnRetry(func(n uint, err error) {
			logger.Debug("page attempt failed; retrying",
				logging.Int("page", req.Page),
				logging.Int("attempt", int(n)+1),
				logging.Duration("backoff", backoff(n, err)),
				logging.Error(err),
			)
		}),
	)
	return page, attempts, err
}

func oldestAired(entries []catalog.Entry) (time.Time, bool) {
	if len(entries) == 0 {
		return time.Time{}, false
	}
	oldest := entries[0].AiredAt
	for _, e := range entries[1:] {
		if e.AiredAt.Before(oldest) {
			oldest = e.AiredAt
		}
	}
	return oldest, true
}
