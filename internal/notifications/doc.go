// Package notifications delivers pipeline events via ntfy.
//
// NewService returns a no-op implementation when no topic is configured, so
// pipeline code publishes unconditionally. Events are gated by the
// notifications.render and notifications.errors switches in config.toml.
package notifications
