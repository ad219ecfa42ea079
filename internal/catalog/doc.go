// Package catalog defines the anime schedule domain model shared by the
// ingestion pipeline, the retention sweeper, and the store backends.
//
// Entry is the transient upstream airing record, Series its metadata, and
// Record the persisted per-series row keyed by the MAL secondary id. Store is
// the persistence contract every backend implements.
package catalog
