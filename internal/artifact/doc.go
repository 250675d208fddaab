// Package artifact manages the media files produced while editing: where they
// live, how they are named, and how a sequence of transformations hands each
// intermediate to the next without leaking files or touching the original.
//
// Chain.Run applies steps in order. Each step reads the previous step's output
// and writes a fresh temp file; the previous intermediate is removed as soon
// as the next one exists, and the original is never removed. On failure the
// in-flight output and the last intermediate are removed too, so a clean
// failure leaves nothing behind. Only a crash mid-chain can orphan a temp file,
// which SweepStale reclaims.
package artifact
