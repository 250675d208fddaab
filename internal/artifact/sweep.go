package artifact

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"cutroom/internal/logging"
)

// SweepResult contains the outcome of a stale artifact sweep.
type SweepResult struct {
	Removed []string
	Errors  []SweepError
}

// SweepError pairs a path with its removal error.
type SweepError struct {
	Path  string
	Error error
}

// SweepStale removes entries in dir older than maxAge. When patterns are
// given only names matching one of them are considered.
func SweepStale(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger, patterns ...string) SweepResult {
	return SweepStaleExcept(ctx, dir, maxAge, logger, nil, patterns...)
}

// SweepStaleExcept is SweepStale but never removes paths held by inFlight.
func SweepStaleExcept(ctx context.Context, dir string, maxAge time.Duration, logger *slog.Logger, inFlight *InFlight, patterns ...string) SweepResult {
	result := SweepResult{}

	dir = strings.TrimSpace(dir)
	if dir == "" {
		return result
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		if !os.IsNotExist(err) {
			result.Errors = append(result.Errors, SweepError{Path: dir, Error: err})
		}
		return result
	}

	cutoff := time.Now().Add(-maxAge)
	for _, entry := range entries {
		if ctx.Err() != nil {
			return result
		}
		if !matchesAny(entry.Name(), patterns) {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if inFlight.Held(path) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Error: err})
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.RemoveAll(path); err != nil {
			result.Errors = append(result.Errors, SweepError{Path: path, Error: err})
			if logger != nil {
				logger.Warn("failed to remove stale artifact",
					logging.String("path", path),
					logging.Error(err),
					logging.String(logging.FieldEventType, "artifact_sweep_failed"),
					logging.String(logging.FieldErrorHint, "check data_dir permissions"),
					logging.String(logging.FieldImpact, "disk space not reclaimed"),
				)
			}
			continue
		}
		result.Removed = append(result.Removed, path)
		if logger != nil {
			logger.Info("removed stale artifact",
				logging.String("path", path),
				logging.Duration("age", time.Since(info.ModTime())),
				logging.String(logging.FieldEventType, "artifact_sweep"),
			)
		}
	}
	return result
}

func matchesAny(name string, patterns []string) bool {
	if len(patterns) == 0 {
		return true
	}
	for _, pattern := range patterns {
		if ok, err := filepath.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
