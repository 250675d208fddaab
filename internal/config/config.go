package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	DataDir    string `toml:"data_dir"`
	LogDir     string `toml:"log_dir"`
	SocketPath string `toml:"socket_path"`
}

// Engine contains the transcode engine binaries and invocation limits.
type Engine struct {
	EnginePath               string `toml:"engine_path"`
	ProbePath                string `toml:"probe_path"`
	InvocationTimeoutSeconds int    `toml:"invocation_timeout_seconds"`
}

// Editing contains policy knobs applied when edits are submitted.
type Editing struct {
	// RangePolicy decides what happens when an edit ends past the known video
	// duration: "passthrough", "reject", or "clamp".
	RangePolicy string `toml:"range_policy"`
}

// Cleanup contains configuration for the temporary artifact sweep.
type Cleanup struct {
	TempMaxAgeMinutes int  `toml:"temp_max_age_minutes"`
	SweepOnStart      bool `toml:"sweep_on_start"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Render         bool   `toml:"render"`
	Errors         bool   `toml:"errors"`
}

// Metrics contains configuration for Prometheus textfile output.
type Metrics struct {
	TextfilePath string `toml:"textfile_path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for cutroom.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and socket locations
//   - Engine: ffmpeg/ffprobe binaries and invocation timeout
//   - Editing: submission-time range policy
//   - Cleanup: temp artifact sweep
//   - Notifications: ntfy push notification settings
//   - Metrics: Prometheus textfile export
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Engine        Engine        `toml:"engine"`
	Editing       Editing       `toml:"editing"`
	Cleanup       Cleanup       `toml:"cleanup"`
	Notifications Notifications `toml:"notifications"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("cutroom.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data layout and log directory.
func (c *Config) EnsureDirectories() error {
	dirs := []string{
		c.Paths.DataDir,
		c.OriginalsDir(),
		c.ProcessedDir(),
		c.TempDir(),
		c.LocksDir(),
		c.Paths.LogDir,
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OriginalsDir holds imported uploads.
func (c *Config) OriginalsDir() string {
	return filepath.Join(c.Paths.DataDir, "originals")
}

// ProcessedDir holds single-edit outputs and final renders.
func (c *Config) ProcessedDir() string {
	return filepath.Join(c.Paths.DataDir, "processed")
}

// TempDir holds intermediate render artifacts.
func (c *Config) TempDir() string {
	return filepath.Join(c.Paths.DataDir, "tmp")
}

// LocksDir holds per-video lease files.
func (c *Config) LocksDir() string {
	return filepath.Join(c.Paths.DataDir, "locks")
}

// DatabasePath returns the catalog database location.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "cutroom.db")
}

// DaemonLockPath returns the single-instance lock used by cutroomd.
func (c *Config) DaemonLockPath() string {
	return filepath.Join(c.Paths.DataDir, "cutroomd.lock")
}

// InvocationTimeout converts the configured engine timeout. Zero disables the deadline.
func (c *Config) InvocationTimeout() time.Duration {
	if c.Engine.InvocationTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.Engine.InvocationTimeoutSeconds) * time.Second
}

// TempMaxAge converts the configured sweep threshold.
func (c *Config) TempMaxAge() time.Duration {
	return time.Duration(c.Cleanup.TempMaxAgeMinutes) * time.Minute
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
