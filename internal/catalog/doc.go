// Package catalog persists videos and their edit records in SQLite.
//
// The store owns two state machines. A video moves uploaded → processing →
// {ready, uploaded} and may re-enter processing from ready for a re-render;
// transitions are guarded in SQL so concurrent writers cannot skip a state.
// An edit is created in processing and moves exactly once to completed (with
// an output path) or failed. Records are never deleted here.
//
// Reads that feed a render order edits by creation time with the row id as a
// strictly monotonic tie-break, so load order is always stable.
package catalog
