package fetcher

import (
	"context"
	"time"

	"animehub/internal/catalog"
)

// PageRequest identifies one page of the schedule. Before bounds airing times
// from above so every page of one walk sees the same snapshot.
type PageRequest struct {
	Page    int
	PerPage int
	Before  time.Time
}

// PageInfo is the pagination metadata returned with each page.
type PageInfo struct {
	HasNextPage bool
	CurrentPage int
}

// Page is one decoded page. Entries are ordered by airing time, newest first.
// Rejected counts items dropped during conversion.
type Page struct {
	Entries  []catalog.Entry
	Info     PageInfo
	Rejected int
}

// PageSource fetches a single schedule page.
type PageSource interface {
	FetchPage(ctx context.Context, req PageRequest) (Page, error)
}
