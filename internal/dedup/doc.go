// Package dedup reduces a fetched schedule to the latest episode per series.
//
// Reduce drops entries that cannot be stored (no secondary id), fail the
// content policy, aired before the recency cutoff, or belong to a series that
// is not currently releasing. Among the survivors it keeps, per secondary id,
// the entry with the strictly greatest episode number; ties keep the entry
// seen first.
package dedup
