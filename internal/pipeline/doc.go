// Package pipeline drives edits and renders for catalog videos.
//
// SubmitEdit validates a request, records it in the processing state, and
// applies it once from the video's current artifact to a dedicated output
// under a shared per-video lease. The record always ends completed or failed.
// Single edits never change the video itself.
//
// Render takes the exclusive lease, loads every completed edit in creation
// order, moves the video to processing, and runs the edits through an
// artifact.Chain. Success points the video at the new artifact and marks it
// ready; any failure reverts it to uploaded so it can be rendered again from
// its previous artifact.
//
// The engine is an interface so tests can substitute a fake; production code
// passes a *transcode.Engine.
package pipeline
