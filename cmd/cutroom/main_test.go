package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/daemon"
	"cutroom/internal/ipc"
	"cutroom/internal/logging"
	"cutroom/internal/pipeline"
	"cutroom/internal/services"
	"cutroom/internal/testsupport"
)

type cliTestEnv struct {
	cfg        *config.Config
	configPath string
	source     string
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	cfg := testsupport.NewConfig(t, testsupport.WithStubbedBinaries())
	base := testsupport.BaseDir(cfg)
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)

	configPath := filepath.Join(homeDir, ".config", "cutroom", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, cfg)

	source := filepath.Join(base, "incoming", "Beach Day.mp4")
	testsupport.WriteFile(t, source, 4096)

	return &cliTestEnv{cfg: cfg, configPath: configPath, source: source}
}

func (e *cliTestEnv) startDaemon(t *testing.T) {
	t.Helper()
	logger := logging.NewNop()
	p, err := pipeline.Open(e.cfg, logger)
	if err != nil {
		t.Fatalf("pipeline.Open: %v", err)
	}
	d, err := daemon.New(e.cfg, p, logger, daemon.WithSweepInterval(0))
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	if err := d.Start(ctx); err != nil {
		cancel()
		t.Fatalf("daemon.Start: %v", err)
	}
	srv, err := ipc.NewServer(ctx, e.cfg.Paths.SocketPath, d, logger)
	if err != nil {
		cancel()
		d.Close()
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping daemon-backed CLI test: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(func() {
		cancel()
		srv.Close()
		d.Close()
	})
	time.Sleep(50 * time.Millisecond)
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	flags := []string{"--log-level", "error"}
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	content := fmt.Sprintf(
		"[paths]\ndata_dir = %q\nlog_dir = %q\nsocket_path = %q\n\n[cleanup]\nsweep_on_start = false\n",
		cfg.Paths.DataDir,
		cfg.Paths.LogDir,
		cfg.Paths.SocketPath,
	)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

func runEditLifecycle(t *testing.T, env *cliTestEnv) {
	t.Helper()

	out, _, err := runCLI(t, []string{"import", env.source, "--title", "Beach Day"}, env.configPath)
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	requireContains(t, out, "Imported video #1")

	out, _, err = runCLI(t, []string{"trim", "1", "--start", "0.5", "--end", "2"}, env.configPath)
	if err != nil {
		t.Fatalf("trim: %v", err)
	}
	requireContains(t, out, "Edit #1 (trim 0.500s-2.000s) completed")

	out, _, err = runCLI(t, []string{"subtitle", "1", "--start", "0", "--end", "1", "--text", "Surf's up"}, env.configPath)
	if err != nil {
		t.Fatalf("subtitle: %v", err)
	}
	requireContains(t, out, "Edit #2 (subtitle")

	_, _, err = runCLI(t, []string{"trim", "1", "--start", "3", "--end", "1"}, env.configPath)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for reversed range, got %v", err)
	}

	out, _, err = runCLI(t, []string{"render", "1"}, env.configPath)
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	requireContains(t, out, "Rendered video #1")

	out, _, err = runCLI(t, []string{"list", "--status", "ready"}, env.configPath)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	requireContains(t, out, "Beach Day")
	requireContains(t, out, "Ready")

	out, _, err = runCLI(t, []string{"show", "1", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("show: %v", err)
	}
	var detail pipeline.VideoDetail
	if err := json.Unmarshal([]byte(out), &detail); err != nil {
		t.Fatalf("decode show output: %v\n%s", err, out)
	}
	if detail.Video.Status != catalog.VideoReady || len(detail.Edits) != 2 {
		t.Fatalf("unexpected detail: status=%s edits=%d", detail.Video.Status, len(detail.Edits))
	}

	dest := filepath.Join(t.TempDir(), "beach.mp4")
	out, _, err = runCLI(t, []string{"export", "1", dest}, env.configPath)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	requireContains(t, out, dest)
	if _, err := os.Stat(dest); err != nil {
		t.Fatalf("expected exported file: %v", err)
	}
}

func TestCLIDirectLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	runEditLifecycle(t, env)

	out, _, err := runCLI(t, []string{"status", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	var status daemon.Status
	if err := json.Unmarshal([]byte(out), &status); err != nil {
		t.Fatalf("decode status: %v\n%s", err, out)
	}
	if status.Running {
		t.Fatal("expected daemon not running")
	}
	if status.Stats.Edits[catalog.EditCompleted] != 2 {
		t.Fatalf("expected 2 completed edits, got %+v", status.Stats.Edits)
	}
}

func TestCLIDaemonLifecycle(t *testing.T) {
	env := setupCLITestEnv(t)
	env.startDaemon(t)
	runEditLifecycle(t, env)

	out, _, err := runCLI(t, []string{"status"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	requireContains(t, out, "Running (pid")
	requireContains(t, out, "== Catalog ==")
}

func TestCLIErrors(t *testing.T) {
	env := setupCLITestEnv(t)

	if _, _, err := runCLI(t, []string{"show", "abc"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for non-numeric id, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"show", "42"}, env.configPath); !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"list", "--status", "archived"}, env.configPath); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error for unknown status, got %v", err)
	}

	if _, _, err := runCLI(t, []string{"import", env.source}, env.configPath); err != nil {
		t.Fatalf("import: %v", err)
	}
	if _, _, err := runCLI(t, []string{"render", "1"}, env.configPath); !errors.Is(err, services.ErrNoCompletedEdits) {
		t.Fatalf("expected no completed edits, got %v", err)
	}
	if _, _, err := runCLI(t, []string{"export", "1", t.TempDir()}, env.configPath); !errors.Is(err, services.ErrConflict) {
		t.Fatalf("expected conflict exporting unrendered video, got %v", err)
	}
	out, _, err := runCLI(t, []string{"export", "1", t.TempDir(), "--original"}, env.configPath)
	if err != nil {
		t.Fatalf("export --original: %v", err)
	}
	requireContains(t, out, "Exported video #1")
}

func TestCLIMaintenance(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"sweep"}, env.configPath)
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	requireContains(t, out, "Removed 0 stale artifact(s)")

	out, _, err = runCLI(t, []string{"recover"}, env.configPath)
	if err != nil {
		t.Fatalf("recover: %v", err)
	}
	requireContains(t, out, "Reset 0 video(s) and 0 edit(s)")
}

func TestConfigCommands(t *testing.T) {
	env := setupCLITestEnv(t)

	target := filepath.Join(t.TempDir(), "cutroom.toml")
	out, _, err := runCLI(t, []string{"config", "init", "--path", target}, "")
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, target)
	if _, _, err := runCLI(t, []string{"config", "init", "--path", target}, ""); err == nil {
		t.Fatal("expected second init without --overwrite to fail")
	}

	out, _, err = runCLI(t, []string{"config", "show"}, env.configPath)
	if err != nil {
		t.Fatalf("config show: %v", err)
	}
	requireContains(t, out, env.cfg.Paths.DataDir)
	requireContains(t, out, "range_policy")

	out, _, err = runCLI(t, []string{"config", "validate"}, env.configPath)
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Configuration valid")
}

func TestFormatHelpers(t *testing.T) {
	tests := []struct {
		name string
		got  string
		want string
	}{
		{"seconds", formatSeconds(3723.5), "1:02:03.500"},
		{"unknown seconds", formatSeconds(0), "-"},
		{"bytes", formatBytes(512), "512 B"},
		{"kibibytes", formatBytes(1536), "1.5 KiB"},
		{"status", statusLabel("processing"), "Processing"},
		{"truncate", truncate("abcdefghij", 6), "abc..."},
		{"ids", joinIDs([]int64{3, 12}), "3, 12"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %q, want %q", tt.got, tt.want)
			}
		})
	}
}

func TestRunExitCodes(t *testing.T) {
	env := setupCLITestEnv(t)

	if code := run([]string{"--config", env.configPath, "list"}); code != 0 {
		t.Fatalf("list exit code = %d, want 0", code)
	}
	if code := run([]string{"--config", env.configPath, "show", "abc"}); code != 2 {
		t.Fatalf("invalid id exit code = %d, want 2", code)
	}
	if code := run([]string{"--config", env.configPath, "show", "42"}); code != 1 {
		t.Fatalf("missing video exit code = %d, want 1", code)
	}
}

func TestRenderTablePadsShortRows(t *testing.T) {
	out := renderTable([]column{numericCol("ID"), col("Title"), col("Status")}, [][]string{{"7", "Holiday Clip"}})
	requireContains(t, out, "Holiday Clip")
	requireContains(t, out, "Status")
	if renderTable(nil, [][]string{{"x"}}) != "" {
		t.Fatal("expected empty output without columns")
	}
}

func TestReportPlainOutput(t *testing.T) {
	var buf bytes.Buffer
	r := newReport(&buf)
	r.section("Dependencies")
	r.line("ffmpeg", levelOK, "/usr/bin/ffmpeg")
	r.line("ffprobe", levelError, "")
	r.section("Catalog")

	out := buf.String()
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("expected no color codes for a buffer, got %q", out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK] /usr/bin/ffmpeg")
	requireContains(t, out, "ffprobe:")
	requireContains(t, out, "[ERROR]")
	requireContains(t, out, "\n\n== Catalog ==")
}
