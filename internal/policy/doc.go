// Package policy decides whether a series may enter the catalog.
//
// Admit evaluates an ordered list of named predicates (adult flag, blocked
// genres, blocked tags, media type, format allow-list, country allow-list)
// and reports the first one that fails. Evaluation is pure: the same series
// always yields the same decision.
package policy
