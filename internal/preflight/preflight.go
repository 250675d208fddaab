package preflight

import (
	"context"
	"path/filepath"
	"strings"

	"cutroom/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string `json:"name"`
	Passed bool   `json:"passed"`
	Detail string `json:"detail"`
}

// RunAll executes all applicable preflight checks for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Originals directory", cfg.OriginalsDir()),
		CheckDirectoryAccess("Processed directory", cfg.ProcessedDir()),
		CheckDirectoryAccess("Temp directory", cfg.TempDir()),
		CheckDirectoryAccess("Locks directory", cfg.LocksDir()),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
	}

	if textfile := strings.TrimSpace(cfg.Metrics.TextfilePath); textfile != "" {
		results = append(results, CheckDirectoryAccess("Metrics directory", filepath.Dir(textfile)))
	}

	if strings.TrimSpace(cfg.Notifications.NtfyTopic) != "" {
		results = append(results, CheckNtfy(ctx, cfg.Notifications.NtfyTopic))
	}

	return results
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
