// Package preflight provides readiness checks for the filesystem layout and
// external services cutroom depends on.
//
// The daemon runs RunAll at startup and logs failures; the CLI status command
// prints the same results next to the dependency table from CheckSystemDeps.
// Service checks are gated by configuration: an empty ntfy topic is skipped.
package preflight
