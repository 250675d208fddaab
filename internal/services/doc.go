// Package services defines shared utilities consumed by the edit pipeline,
// the transcode adapter, and the daemon surfaces.
//
// Key responsibilities:
//   - Context helpers that stamp video IDs, edit IDs, stage names, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so callers can classify
//     failures (validation, not found, conflict, engine) with errors.Is, even
//     after an error has crossed the IPC boundary as plain text.
package services
