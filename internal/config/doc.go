// Package config loads, normalizes, and validates animehub configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files strictly, and honours environment fallbacks
// such as ANIMEHUB_CONFIG, ANIMEHUB_DATABASE_URL, and NTFY_TOPIC. The Config type centralizes every
// knob the ingestion engine, retention sweeper, daemon, and CLI need: the
// recency window, retry bounds, content-policy lists, the stale-id denylist,
// and the store backend.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical policy values, and clear validation errors.
package config
