// Package retention expires catalog records once no recency signal keeps
// them alive.
//
// A record survives a sweep when any keep predicate matches; the first
// matching predicate is reported as the keep reason. Denylist entries match
// either the secondary id or the AniList series id, and a match is deleted
// before any predicate is consulted.
package retention
