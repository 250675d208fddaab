// Package config loads, normalizes, and validates cutroom configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// FFMPEG_PATH and FFPROBE_PATH. The Config type centralizes every knob the
// daemon, the CLI, and the edit pipeline need, including the explicit engine
// settings handed to the transcode adapter at construction time.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
