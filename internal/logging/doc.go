// Package logging assembles structured slog loggers and formatting helpers used
// across animehub.
//
// It owns the configurable console/JSON handlers, rotates the on-disk log file
// through lumberjack, and exposes context-aware helpers so pipeline code can
// tag log lines with run IDs, cycle kinds, and stages. Decision helpers give
// policy rejections, reconcile transitions, and retention verdicts a uniform
// shape. The package also provides a no-op logger for tests and wiring code
// that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so new components emit
// data with the same shape and routing as the rest of the system.
package logging
