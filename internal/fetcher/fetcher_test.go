package fetcher_test

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/fetcher"
	"animehub/internal/services"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// scriptedSource replays per-page responses and records every request.
type scriptedSource struct {
	mu       sync.Mutex
	pages    map[int]fetcher.Page
	failures map[int][]error
	requests []fetcher.PageRequest
}

func (s *scriptedSource) FetchPage(_ context.Context, req fetcher.PageRequest) (fetcher.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = append(s.requests, req)
	if queue := s.failures[req.Page]; len(queue) > 0 {
		s.failures[req.Page] = queue[1:]
		return fetcher.Page{}, queue[0]
	}
	page, ok := s.pages[req.Page]
	if !ok {
		return fetcher.Page{}, errors.New("unexpected page " + strconv.Itoa(req.Page))
	}
	return page, nil
}

func (s *scriptedSource) pagesRequested() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]int, 0, len(s.requests))
	for _, r := range s.requests {
		out = append(out, r.Page)
	}
	return out
}

func entryAged(id string, episode int, age time.Duration) catalog.Entry {
	return catalog.Entry{SecondaryID: id, Episode: episode, AiredAt: now.Add(-age), Status: catalog.StatusReleasing}
}

func page(n int, hasNext bool, entries ...catalog.Entry) fetcher.Page {
	return fetcher.Page{Entries: entries, Info: fetcher.PageInfo{HasNextPage: hasNext, CurrentPage: n}}
}

func newFetcher(source fetcher.PageSource, mutate func(*fetcher.Options)) *fetcher.Fetcher {
	opts := fetcher.Options{
		PerPage:     2,
		MaxRetries:  3,
		BackoffBase: time.Millisecond,
		MaxPages:    10,
		Now:         func() time.Time { return now },
	}
	if mutate != nil {
		mutate(&opts)
	}
	return fetcher.New(source, opts)
}

func TestFetchStopsWhenPageOlderThanCutoff(t *testing.T) {
	day := 24 * time.Hour
	source := &scriptedSource{pages: map[int]fetcher.Page{
		1: page(1, true, entryAged("1", 3, time.Hour), entryAged("2", 8, 2*day)),
		2: page(2, true, entryAged("3", 1, 6*day), entryAged("4", 2, 8*day)),
		3: page(3, true, entryAged("5", 1, 9*day)),
	}}

	result, err := newFetcher(source, nil).Fetch(context.Background(), now.Add(-7*day))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Stop != fetcher.StopWindow {
		t.Fatalf("expected window stop, got %q", result.Stop)
	}
	if got := source.pagesRequested(); len(got) != 2 {
		t.Fatalf("expected pages 1 and 2 only, got %v", got)
	}
	if len(result.Entries) != 4 || result.Pages != 2 {
		t.Fatalf("unexpected result: pages=%d entries=%d", result.Pages, len(result.Entries))
	}
}

func TestFetchNeverRequestsBeyondLastPage(t *testing.T) {
	source := &scriptedSource{pages: map[int]fetcher.Page{
		1: page(1, true, entryAged("1", 1, time.Hour)),
		2: page(2, false, entryAged("2", 1, 2*time.Hour)),
	}}

	result, err := newFetcher(source, nil).Fetch(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Stop != fetcher.StopExhausted {
		t.Fatalf("expected exhausted stop, got %q", result.Stop)
	}
	if got := source.pagesRequested(); len(got) != 2 || got[1] != 2 {
		t.Fatalf("unexpected page requests: %v", got)
	}
}

func TestFetchRequestsShareSnapshotBound(t *testing.T) {
	source := &scriptedSource{pages: map[int]fetcher.Page{
		1: page(1, true, entryAged("1", 1, time.Hour)),
		2: page(2, false),
	}}
	if _, err := newFetcher(source, nil).Fetch(context.Background(), now.Add(-time.Hour*48)); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	for _, req := range source.requests {
		if !req.Before.Equal(now) || req.PerPage != 2 {
			t.Fatalf("unexpected request %+v", req)
		}
	}
}

func TestFetchRetriesTransientErrors(t *testing.T) {
	source := &scriptedSource{
		pages:    map[int]fetcher.Page{1: page(1, false, entryAged("1", 1, time.Hour))},
		failures: map[int][]error{1: {errors.New("timeout"), errors.New("timeout")}},
	}

	result, err := newFetcher(source, nil).Fetch(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Failure != nil {
		t.Fatalf("expected success after retries, got %v", result.Failure)
	}
	if result.Attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", result.Attempts)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected one entry, got %d", len(result.Entries))
	}
}

func TestFetchExhaustedRetriesKeepsPartialResults(t *testing.T) {
	boom := errors.New("upstream 503")
	source := &scriptedSource{
		pages: map[int]fetcher.Page{
			1: page(1, true, entryAged("1", 4, time.Hour)),
		},
		failures: map[int][]error{2: {boom, boom, boom, boom}},
	}

	result, err := newFetcher(source, nil).Fetch(context.Background(), now.Add(-7*24*time.Hour))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Stop != fetcher.StopFailure || result.FailedPage != 2 {
		t.Fatalf("expected failure stop on page 2, got %q page %d", result.Stop, result.FailedPage)
	}
	if !errors.Is(result.Failure, services.ErrTransientFetch) || !errors.Is(result.Failure, boom) {
		t.Fatalf("expected transient fetch failure wrapping cause, got %v", result.Failure)
	}
	if len(result.Entries) != 1 {
		t.Fatalf("expected partial entries from page 1, got %d", len(result.Entries))
	}
	if result.Attempts != 1+3 {
		t.Fatalf("expected 4 attempts in total, got %d", result.Attempts)
	}
	if got := source.pagesRequested(); got[len(got)-1] != 2 {
		t.Fatalf("expected no requests after failed page, got %v", got)
	}
}

func TestFetchStopsRetryingPermanentErrors(t *testing.T) {
	permanent := errors.New("400 bad request")
	source := &scriptedSource{failures: map[int][]error{1: {permanent, permanent, permanent}}}

	result, err := newFetcher(source, func(o *fetcher.Options) {
		o.Retriable = func(err error) bool { return !errors.Is(err, permanent) }
	}).Fetch(context.Background(), now)
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Attempts != 1 {
		t.Fatalf("expected a single attempt, got %d", result.Attempts)
	}
	if result.Stop != fetcher.StopFailure || len(result.Entries) != 0 {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestFetchHonoursPageBound(t *testing.T) {
	source := &scriptedSource{pages: map[int]fetcher.Page{
		1: page(1, true, entryAged("1", 1, time.Minute)),
		2: page(2, true, entryAged("2", 1, 2*time.Minute)),
	}}

	result, err := newFetcher(source, func(o *fetcher.Options) { o.MaxPages = 2 }).
		Fetch(context.Background(), now.Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if result.Stop != fetcher.StopMaxPages || result.Pages != 2 {
		t.Fatalf("expected max_pages stop after 2 pages, got %q after %d", result.Stop, result.Pages)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	source := &scriptedSource{pages: map[int]fetcher.Page{1: page(1, false)}}
	if _, err := newFetcher(source, nil).Fetch(ctx, now); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context cancellation, got %v", err)
	}
}

// timedSource serves pages after a fixed latency and records when each
// request started and finished.
type timedSource struct {
	scriptedSource
	latency time.Duration
	starts  []time.Time
	ends    []time.Time
}

func (s *timedSource) FetchPage(ctx context.Context, req fetcher.PageRequest) (fetcher.Page, error) {
	started := time.Now()
	time.Sleep(s.latency)
	page, err := s.scriptedSource.FetchPage(ctx, req)
	s.mu.Lock()
	s.starts = append(s.starts, started)
	s.ends = append(s.ends, time.Now())
	s.mu.Unlock()
	return page, err
}

func TestFetchWaitsFullDelayAfterEachPage(t *testing.T) {
	source := &timedSource{
		latency: 40 * time.Millisecond,
		scriptedSource: scriptedSource{pages: map[int]fetcher.Page{
			1: page(1, true, entryAged("1", 1, time.Minute)),
			2: page(2, true, entryAged("2", 1, 2*time.Minute)),
			3: page(3, false, entryAged("3", 1, 3*time.Minute)),
		}},
	}
	delay := 60 * time.Millisecond
	if _, err := newFetcher(source, func(o *fetcher.Options) { o.InterPageDelay = delay }).
		Fetch(context.Background(), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(source.starts) != 3 {
		t.Fatalf("expected 3 requests, got %d", len(source.starts))
	}
	for i := 1; i < len(source.starts); i++ {
		if gap := source.starts[i].Sub(source.ends[i-1]); gap < delay {
			t.Fatalf("gap between page %d end and page %d start was %s, want at least %s", i, i+1, gap, delay)
		}
	}
}

func TestFetchDelayNotConsumedByRetries(t *testing.T) {
	source := &timedSource{
		scriptedSource: scriptedSource{
			pages: map[int]fetcher.Page{
				1: page(1, true, entryAged("1", 1, time.Minute)),
				2: page(2, false, entryAged("2", 1, 2*time.Minute)),
			},
			failures: map[int][]error{1: {errors.New("timeout")}},
		},
	}
	delay := 50 * time.Millisecond
	if _, err := newFetcher(source, func(o *fetcher.Options) {
		o.InterPageDelay = delay
		o.BackoffBase = 60 * time.Millisecond
	}).Fetch(context.Background(), now.Add(-time.Hour)); err != nil {
		t.Fatalf("Fetch returned error: %v", err)
	}
	if len(source.starts) != 3 {
		t.Fatalf("expected 3 requests (retry + 2 pages), got %d", len(source.starts))
	}
	if gap := source.starts[2].Sub(source.ends[1]); gap < delay {
		t.Fatalf("page 2 started %s after page 1 succeeded, want at least %s", gap, delay)
	}
}

func TestFetchRetryAfterFloorsBackoff(t *testing.T) {
	throttled := errors.New("throttled")
	source := &timedSource{
		scriptedSource: scriptedSource{
			pages:    map[int]fetcher.Page{1: page(1, false, entryAged("1", 1, time.Minute))},
			failures: map[int][]error{1: {throttled}},
		},
	}
	hint := 80 * time.Millisecond
	result, err := newFetcher(source, func(o *fetcher.Options) {
		o.RetryAfter = func(err error) time.Duration {
			if errors.Is(err, throttled) {
				return hint
			}
			return 0
		}
	}).Fetch(context.Background(), now.Add(-time.Hour))
	if err != nil || result.Failure != nil {
		t.Fatalf("expected success after retry, got err=%v failure=%v", err, result.Failure)
	}
	if gap := source.starts[1].Sub(source.ends[0]); gap < hint {
		t.Fatalf("retry started %s after the throttled attempt, want at least %s", gap, hint)
	}
}
