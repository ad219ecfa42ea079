// Package ingest runs one catalog cycle end to end.
//
// A Driver walks AniList pages through the fetcher, reduces the entries to
// one admissible entry per series, and reconciles them against the catalog
// store. The run moves through IDLE, FETCHING, FILTERING and RECONCILING to
// DONE. It ends FAILED only when no entries were fetched at all or when the
// batch commit fails; per-record problems are folded into the Summary.
package ingest
