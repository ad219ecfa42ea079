// Package main hosts the animehub CLI entrypoint and command graph.
//
// The Cobra command tree keeps a local catalog of currently airing anime in
// sync with AniList. One-shot commands (ingest, sweep) take the same lock as
// the daemon so they never race a scheduled cycle. catalog list/show read the
// store directly.
package main
