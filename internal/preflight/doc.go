// Package preflight provides readiness checks for the paths and services
// animehub depends on.
//
// The status command renders every check. The daemon runs them once at
// startup and logs failures without refusing to start.
package preflight
