package testsupport

import (
	"context"
	"fmt"
	"sync"
	"time"

	"animehub/internal/catalog"
	"animehub/internal/fetcher"
)

// StaticSource serves pre-built pages in order. Page n of the request maps to
// Pages[n-1]; Err, when set, fails every request.
type StaticSource struct {
	mu       sync.Mutex
	Pages    []fetcher.Page
	Err      error
	Requests []fetcher.PageRequest
}

var _ fetcher.PageSource = (*StaticSource)(nil)

// NewStaticSource splits entries into pages of perPage, flagging every page
// but the last with HasNextPage.
func NewStaticSource(perPage int, entries ...catalog.Entry) *StaticSource {
	if perPage <= 0 {
		perPage = len(entries)
	}
	src := &StaticSource{}
	for start := 0; start < len(entries) || start == 0; start += perPage {
		end := min(start+perPage, len(entries))
		n := len(src.Pages) + 1
		src.Pages = append(src.Pages, fetcher.Page{
			Entries: append([]catalog.Entry(nil), entries[start:end]...),
			Info:    fetcher.PageInfo{HasNextPage: end < len(entries), CurrentPage: n},
		})
		if end >= len(entries) {
			break
		}
	}
	return src
}

func (s *StaticSource) FetchPage(_ context.Context, req fetcher.PageRequest) (fetcher.Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return fetcher.Page{}, s.Err
	}
	if req.Page < 1 || req.Page > len(s.Pages) {
		return fetcher.Page{}, fmt.Errorf("page %d out of range", req.Page)
	}
	return s.Pages[req.Page-1], nil
}

// RequestCount returns how many pages were requested.
func (s *StaticSource) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.Requests)
}

// NewEntry builds an admissible RELEASING entry for the given series.
func NewEntry(id string, episode int, airedAt time.Time) catalog.Entry {
	return catalog.Entry{
		SeriesID:    1000 + len(id),
		SecondaryID: id,
		Episode:     episode,
		AiredAt:     airedAt,
		Status:      catalog.StatusReleasing,
		Series: catalog.Series{
			Titles:          catalog.Titles{Romaji: "Series " + id, UserPreferred: "Series " + id},
			Genres:          []string{"Action"},
			Type:            "ANIME",
			Format:          "TV",
			CountryOfOrigin: "JP",
		},
	}
}

// NewRecord builds a stored record fixture.
func NewRecord(id string, episode int, status catalog.Status, airedAt, addedAt, refreshedAt time.Time) catalog.Record {
	return catalog.Record{
		SecondaryID:     id,
		SeriesID:        1000 + len(id),
		LatestEpisode:   episode,
		EpisodeAiredAt:  airedAt,
		EpisodeAddedAt:  addedAt,
		LastRefreshedAt: refreshedAt,
		Status:          status,
		Series:          catalog.Series{Titles: catalog.Titles{Romaji: "Series " + id}, Type: "ANIME", Format: "TV"},
		CreatedAt:       addedAt,
		UpdatedAt:       refreshedAt,
	}
}
