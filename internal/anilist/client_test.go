package anilist_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"animehub/internal/anilist"
	"animehub/internal/catalog"
	"animehub/internal/fetcher"
	"animehub/internal/services"
)

const samplePage = `{
  "data": {
    "Page": {
      "pageInfo": {"hasNextPage": true, "currentPage": 1},
      "airingSchedules": [
        {
          "id": 9001,
          "episode": 6,
          "airingAt": 1772366400,
          "media": {
            "id": 154587,
            "idMal": 52991,
            "title": {"romaji": "Sousou no Frieren", "english": "Frieren: Beyond Journey's End", "native": "葬送のフリーレン", "userPreferred": "Sousou no Frieren"},
            "coverImage": {"extraLarge": "https://img/xl.jpg", "large": "https://img/l.jpg", "color": "#d6e4a1"},
            "bannerImage": "https://img/banner.jpg",
            "genres": ["Adventure", "Drama", "Fantasy"],
            "tags": [{"name": "Elf", "isAdult": false, "rank": 94}],
            "isAdult": false,
            "type": "ANIME",
            "format": "TV",
            "countryOfOrigin": "JP",
            "status": "RELEASING",
            "startDate": {"year": 2026, "month": 1, "day": null},
            "episodes": 28,
            "duration": 24,
            "averageScore": 91,
            "popularity": 300000,
            "siteUrl": "https://anilist.co/anime/154587",
            "description": "An elf mage.<br>(Source: Crunchyroll)",
            "synonyms": ["Frieren"],
            "season": "WINTER",
            "seasonYear": 2026
          }
        },
        {"id": 9002, "episode": 3, "airingAt": 1772360000, "media": {"id": 1, "idMal": null, "type": "ANIME", "format": "ONA", "status": "RELEASING", "title": {"romaji": "No Mal"}, "startDate": {}}},
        {"id": 9003, "episode": 0, "airingAt": 1772350000, "media": {"id": 2, "idMal": 3, "status": "RELEASING", "title": {}, "startDate": {}}},
        {"id": 9004, "episode": 2, "airingAt": 1772340000, "media": null},
        {"id": 9005, "episode": 2, "airingAt": 1772330000, "media": {"id": 4, "idMal": 5, "status": "AIRING", "title": {}, "startDate": {}}}
      ]
    }
  }
}`

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := anilist.New("  "); err == nil {
		t.Fatal("expected error when base url missing")
	}
}

func TestFetchPageSuccess(t *testing.T) {
	before := time.Unix(1772400000, 0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if got := r.Header.Get("User-Agent"); got != "animehub/test" {
			t.Errorf("unexpected user agent %q", got)
		}
		var body struct {
			Query     string         `json:"query"`
			Variables map[string]any `json:"variables"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if !strings.Contains(body.Query, "airingSchedules(sort: TIME_DESC") {
			t.Errorf("query missing airingSchedules sort: %s", body.Query)
		}
		if body.Variables["page"] != float64(1) || body.Variables["perPage"] != float64(50) {
			t.Errorf("unexpected variables: %v", body.Variables)
		}
		if body.Variables["airingBefore"] != float64(before.Unix()) {
			t.Errorf("unexpected airingBefore: %v", body.Variables["airingBefore"])
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(samplePage))
	}))
	t.Cleanup(server.Close)

	client, err := anilist.New(server.URL, anilist.WithUserAgent("animehub/test"))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	page, err := client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 50, Before: before})
	if err != nil {
		t.Fatalf("FetchPage returned error: %v", err)
	}
	if !page.Info.HasNextPage || page.Info.CurrentPage != 1 {
		t.Fatalf("unexpected page info: %+v", page.Info)
	}
	if len(page.Entries) != 2 {
		t.Fatalf("expected two convertible entries, got %d", len(page.Entries))
	}
	if page.Rejected != 3 {
		t.Fatalf("expected three rejected items, got %d", page.Rejected)
	}

	frieren := page.Entries[0]
	if frieren.SecondaryID != "52991" || frieren.SeriesID != 154587 || frieren.Episode != 6 {
		t.Fatalf("unexpected identifiers: %+v", frieren)
	}
	if !frieren.AiredAt.Equal(time.Unix(1772366400, 0)) {
		t.Fatalf("unexpected aired at: %s", frieren.AiredAt)
	}
	if frieren.Status != catalog.StatusReleasing {
		t.Fatalf("unexpected status: %q", frieren.Status)
	}
	if frieren.Series.StartDate == nil || frieren.Series.StartDate.Day() != 1 || frieren.Series.StartDate.Month() != time.January {
		t.Fatalf("expected fuzzy start date resolved to Jan 1, got %v", frieren.Series.StartDate)
	}
	if frieren.Series.Description != "An elf mage.\n(Source: Crunchyroll)" {
		t.Fatalf("expected stripped description, got %q", frieren.Series.Description)
	}
	if len(frieren.Series.Tags) != 1 || frieren.Series.Tags[0].Rank != 94 {
		t.Fatalf("unexpected tags: %+v", frieren.Series.Tags)
	}
	if frieren.Series.Images.CoverColor != "#d6e4a1" {
		t.Fatalf("unexpected images: %+v", frieren.Series.Images)
	}

	if page.Entries[1].SecondaryID != "" {
		t.Fatalf("expected missing MAL id to stay empty, got %q", page.Entries[1].SecondaryID)
	}
}

func TestFetchPageHTTPErrorIsClassified(t *testing.T) {
	cases := []struct {
		status    int
		retriable bool
	}{
		{http.StatusTooManyRequests, true},
		{http.StatusBadGateway, true},
		{http.StatusRequestTimeout, true},
		{http.StatusBadRequest, false},
		{http.StatusNotFound, false},
	}
	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Retry-After", "30")
			w.WriteHeader(tc.status)
		}))
		client, err := anilist.New(server.URL)
		if err != nil {
			t.Fatalf("New returned error: %v", err)
		}
		_, err = client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 10})
		server.Close()
		var statusErr *anilist.StatusError
		if !errors.As(err, &statusErr) || statusErr.Code != tc.status {
			t.Fatalf("status %d: expected StatusError, got %v", tc.status, err)
		}
		if statusErr.RetryAfter != 30*time.Second {
			t.Fatalf("status %d: expected Retry-After parsed, got %s", tc.status, statusErr.RetryAfter)
		}
		if got := anilist.IsRetriable(err); got != tc.retriable {
			t.Fatalf("status %d: IsRetriable = %v, want %v", tc.status, got, tc.retriable)
		}
	}
}

func TestFetchPageDecodeErrorIsPermanent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": [`))
	}))
	t.Cleanup(server.Close)

	client, err := anilist.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 10})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !errors.Is(err, services.ErrUpstreamData) {
		t.Fatalf("expected upstream data marker, got %v", err)
	}
	if anilist.IsRetriable(err) {
		t.Fatal("decode errors must not be retried")
	}
}

func TestFetchPageGraphQLErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data": null, "errors": [{"message": "Too Many Requests.", "status": 429}]}`))
	}))
	t.Cleanup(server.Close)

	client, err := anilist.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 10})
	if !anilist.IsRetriable(err) {
		t.Fatalf("expected rate-limit graphql error to be retriable, got %v", err)
	}
}

func TestFetchPageTimeoutIsRetriable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(100 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	t.Cleanup(server.Close)

	client, err := anilist.New(server.URL, anilist.WithTimeout(10*time.Millisecond))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 10})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !anilist.IsRetriable(err) {
		t.Fatalf("expected timeout to be retriable, got %v", err)
	}
}

func TestIsRetriableCancellation(t *testing.T) {
	if anilist.IsRetriable(nil) {
		t.Fatal("nil error is not retriable")
	}
	if anilist.IsRetriable(context.Canceled) {
		t.Fatal("cancellation is not retriable")
	}
	if !anilist.IsRetriable(context.DeadlineExceeded) {
		t.Fatal("deadline exceeded is retriable")
	}
}

func TestRetryAfterFromRateLimitResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(server.Close)

	client, err := anilist.New(server.URL)
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	_, err = client.FetchPage(context.Background(), fetcher.PageRequest{Page: 1, PerPage: 10})
	if got := anilist.RetryAfter(err); got != 7*time.Second {
		t.Fatalf("expected 7s retry hint, got %s (err=%v)", got, err)
	}
	if got := anilist.RetryAfter(errors.New("plain")); got != 0 {
		t.Fatalf("expected no hint for plain errors, got %s", got)
	}
}

func TestRequestsPerMinuteSpacesRequests(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"data":{"Page":{"pageInfo":{"hasNextPage":false,"currentPage":1},"airingSchedules":[]}}}`))
	}))
	t.Cleanup(server.Close)

	// 600 per minute is one request every 100ms.
	client, err := anilist.New(server.URL, anilist.WithRequestsPerMinute(600))
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	start := time.Now()
	for i := range 3 {
		if _, err := client.FetchPage(context.Background(), fetcher.PageRequest{Page: i + 1, PerPage: 10}); err != nil {
			t.Fatalf("FetchPage %d: %v", i+1, err)
		}
	}
	if elapsed := time.Since(start); elapsed < 190*time.Millisecond {
		t.Fatalf("expected three requests to span two intervals, took %s", elapsed)
	}
}
