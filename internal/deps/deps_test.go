package deps

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"cutroom/internal/config"
)

func TestCheckBinaries(t *testing.T) {
	binDir := t.TempDir()
	present := filepath.Join(binDir, "present")
	script := []byte("#!/bin/sh\nexit 0\n")
	if err := os.WriteFile(present, script, 0o755); err != nil {
		t.Fatalf("write stub: %v", err)
	}
	reqs := []Requirement{
		{Name: "Present", Command: present},
		{Name: "Missing", Command: "clearly-not-present-binary"},
		{Name: "Blank", Command: "  "},
	}

	results := CheckBinaries(reqs)
	if len(results) != len(reqs) {
		t.Fatalf("expected %d results, got %d", len(reqs), len(results))
	}
	if !results[0].Available || results[0].Detail != present {
		t.Fatalf("expected first requirement resolved to its path, got %#v", results[0])
	}
	if results[1].Available || results[1].Detail == "" {
		t.Fatalf("expected missing binary to be unavailable with detail, got %#v", results[1])
	}
	if results[1].Command != "clearly-not-present-binary" {
		t.Fatalf("unexpected command recorded: %s", results[1].Command)
	}
	if results[2].Detail != "command not configured" {
		t.Fatalf("unexpected detail for blank command: %q", results[2].Detail)
	}
}

func TestEngineRequirementsAndMissingRequired(t *testing.T) {
	cfg := config.Default()
	cfg.Engine.EnginePath = "clearly-not-present-ffmpeg"
	cfg.Engine.ProbePath = "clearly-not-present-ffprobe"

	statuses := CheckBinaries(EngineRequirements(&cfg))
	missing := MissingRequired(statuses)
	if len(missing) != 1 || missing[0].Name != "FFmpeg" {
		t.Fatalf("only ffmpeg should be required, got %#v", missing)
	}
}

func TestCheckSubtitleFilter(t *testing.T) {
	withLibass := []byte(" Filters:\n ... scale             V->V       Scale the input video size\n ... subtitles         V->V       Render text subtitles onto input video using the libass library.\n")
	withoutLibass := []byte(" ... scale             V->V       Scale the input video size\n")

	tests := []struct {
		name      string
		out       []byte
		err       error
		available bool
	}{
		{"present", withLibass, nil, true},
		{"absent", withoutLibass, nil, false},
		{"error", nil, errors.New("exec failed"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lister := func(context.Context, string) ([]byte, error) { return tt.out, tt.err }
			got := checkSubtitleFilter(context.Background(), "ffmpeg", lister)
			if got.Available != tt.available {
				t.Fatalf("Available = %v, want %v (%#v)", got.Available, tt.available, got)
			}
			if !tt.available && got.Detail == "" {
				t.Fatal("expected a detail message")
			}
		})
	}
}
