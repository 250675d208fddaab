// Package transcode wraps the external ffmpeg/ffprobe binaries behind three
// primitives: Probe, Trim, and BurnSubtitle.
//
// Every edit primitive writes exactly one new file at its output path and
// never opens its input for writing. A failed or interrupted invocation
// removes whatever partial output the engine left behind. Probe never fails:
// metadata is advisory, so it degrades to conservative defaults instead.
//
// Binary locations and the per-invocation deadline come from Config, passed
// to New; the package keeps no process-wide state.
package transcode
