// Package notifications pushes catalog events to ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers never branch on whether notifications are enabled. Newly added
// episodes and failed cycles are the only events published; each can be
// switched off independently in config.toml.
package notifications
