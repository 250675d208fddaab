// Package ffprobe runs ffprobe and decodes its JSON report.
//
// Result exposes the container and stream metadata the transcode engine
// records for imported videos: duration, size, bitrate, the primary video
// stream, and whether audio is present. Unparseable numeric fields read as 0.
package ffprobe
