// Package notifications pushes session outcomes to an ntfy topic.
//
// NewService returns a no-op implementation when no topic is configured, so
// callers publish unconditionally. Per-category toggles in the [notifications]
// config section silence highlight or error events individually.
package notifications
