package testsupport

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cutroom/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.SocketPath = filepath.Join(base, "cutroom.sock")
	cfgVal.Cleanup.SweepOnStart = false
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithRangePolicy overrides editing.range_policy on the test config.
func WithRangePolicy(policy string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Editing.RangePolicy = policy
	}
}

// WithMetricsTextfile points metrics output at a file under the temp root.
func WithMetricsTextfile() ConfigOption {
	return func(b *configBuilder) {
		dir := filepath.Join(b.baseDir, "metrics")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			b.t.Fatalf("create metrics dir: %v", err)
		}
		b.cfg.Metrics.TextfilePath = filepath.Join(dir, "cutroom.prom")
	}
}

// WithStubbedBinaries writes stub executables for the provided names and
// prepends them to PATH. If names is empty, ffmpeg and ffprobe are stubbed.
// The ffmpeg stub copies its -i input to its final argument and appends its
// arguments to BaseDir/bin/ffmpeg.calls; every other stub exits 0.
func WithStubbedBinaries(names ...string) ConfigOption {
	return func(b *configBuilder) {
		if len(names) == 0 {
			names = []string{"ffmpeg", "ffprobe"}
		}
		binDir := filepath.Join(b.baseDir, "bin")
		if err := os.MkdirAll(binDir, 0o755); err != nil {
			b.t.Fatalf("mkdir bin dir: %v", err)
		}
		for _, name := range names {
			script := []byte("#!/bin/sh\nexit 0\n")
			if name == "ffmpeg" {
				script = []byte(ffmpegStub(filepath.Join(binDir, "ffmpeg.calls")))
			}
			target := filepath.Join(binDir, name)
			if err := os.WriteFile(target, script, 0o755); err != nil {
				b.t.Fatalf("write stub %s: %v", name, err)
			}
		}

		b.t.Setenv("PATH", binDir+string(os.PathListSeparator)+os.Getenv("PATH"))
		b.t.Setenv("FFMPEG_PATH", "")
		b.t.Setenv("FFPROBE_PATH", "")
	}
}

func ffmpegStub(callLog string) string {
	return `#!/bin/sh
echo "$*" >> '` + callLog + `'
in=""
prev=""
out=""
for arg in "$@"; do
  if [ "$prev" = "-i" ]; then in="$arg"; fi
  prev="$arg"
  out="$arg"
done
if [ -z "$in" ] || [ ! -f "$in" ]; then
  echo "stub: missing input" >&2
  exit 1
fi
cat "$in" > "$out"
`
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

// EngineCalls returns the argument lines recorded by the ffmpeg stub.
func EngineCalls(t testing.TB, cfg *config.Config) []string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(BaseDir(cfg), "bin", "ffmpeg.calls"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		t.Fatalf("read engine calls: %v", err)
	}
	var calls []string
	for _, line := range strings.Split(string(data), "\n") {
		if line != "" {
			calls = append(calls, line)
		}
	}
	return calls
}
