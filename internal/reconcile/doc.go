// Package reconcile diffs reduced schedule entries against the catalog and
// commits the resulting writes.
//
// Decide is the pure three-way transition: CREATE when no record exists,
// ADVANCE when the entry's episode is strictly newer, REFRESH otherwise.
// Every transition writes; only CREATE and ADVANCE stamp episode_added_at.
// Reconciler.Apply reads prior records in parallel, records per-series
// failures without aborting, and commits the successful writes as one
// atomic batch.
package reconcile
