// Package metrics provides Prometheus instrumentation for the edit pipeline.
//
// Metrics live on a private registry owned by a Recorder rather than the
// global default, so the CLI and daemon can each hold one and tests can
// inspect values with prometheus/testutil. All metrics are prefixed with
// "cutroom_".
//
// Edit metrics:
//   - EditsTotal: counter of single-edit applications by type and outcome
//   - EditDuration: histogram of engine time per edit type
//
// Render metrics:
//   - RendersTotal: counter of renders by outcome
//   - RenderDuration: histogram of full render time
//   - RenderEdits: histogram of edits applied per render
//   - RendersInFlight: gauge of renders currently holding a lease
//
// Engine and housekeeping metrics:
//   - EngineInvocationsTotal: counter of engine calls by operation and outcome
//   - TempSweptTotal: counter of stale temp artifacts removed
//   - Videos: gauge of catalog videos by status
//
// When metrics.textfile_path is set, Flush writes the registry in the text
// exposition format for node_exporter's textfile collector.
package metrics
