// Package renderlock provides the per-video lease that keeps a render from
// overlapping any other work on the same video.
//
// A render holds the lease exclusively; single-edit applications hold it
// shared, so they may run alongside each other but never alongside a render.
// The lease combines an in-process RW mutex with a flock on
// <locks>/video-<id>.lock, so separate CLI invocations and the daemon observe
// the same exclusion.
package renderlock
