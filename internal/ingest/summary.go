package ingest

import "time"

// Summary reports one ingest cycle.
type Summary struct {
	RunID       string         `json:"run_id"`
	State       State          `json:"state"`
	Path        []State        `json:"path"`
	StartedAt   time.Time      `json:"started_at"`
	Duration    time.Duration  `json:"duration"`
	Pages       int            `json:"pages"`
	Attempts    int            `json:"attempts"`
	Stop        string         `json:"stop"`
	Fetched     int            `json:"fetched"`
	Rejected    int            `json:"rejected"`
	Admitted    int            `json:"admitted"`
	Unique      int            `json:"unique"`
	Created     int            `json:"created"`
	Advanced    int            `json:"advanced"`
	Refreshed   int            `json:"refreshed"`
	Skipped     int            `json:"skipped"`
	Drops       map[string]int `json:"drops,omitempty"`
	PolicyDrops map[string]int `json:"policy_drops,omitempty"`
	FetchError  string         `json:"fetch_error,omitempty"`
	Error       string         `json:"error,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
}

// Written is the number of records committed.
func (s Summary) Written() int {
	return s.Created + s.Advanced + s.Refreshed
}
