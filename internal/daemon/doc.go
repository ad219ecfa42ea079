// Package daemon keeps the catalog current on a fixed cadence.
//
// It runs ingest cycles every schedule.ingest_interval minutes and retention
// sweeps every schedule.sweep_interval hours, never both at once. A flock on
// the data directory prevents a second daemon, or a one-shot CLI run, from
// touching the catalog concurrently.
package daemon
