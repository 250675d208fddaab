// Package access gives the CLI one surface over the edit pipeline whether a
// daemon is running or not.
//
// OpenWithFallback prefers the daemon's IPC socket and falls back to opening
// the catalog directly. Both implementations go through the same per-video
// lease files, so a CLI render and a daemon edit still serialize.
package access
