// Package sqlite persists catalog records in a single SQLite database using
// the pure-Go modernc driver.
//
// The schema is embedded and versioned; a database written by a different
// schema version is rejected rather than migrated. Writes retry briefly when
// SQLite reports the database as busy.
package sqlite
