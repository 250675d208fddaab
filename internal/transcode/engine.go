package transcode

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"cutroom/internal/logging"
	"cutroom/internal/media/ffprobe"
	"cutroom/internal/services"
)

// Config carries the engine binaries and invocation deadline.
type Config struct {
	EnginePath string
	ProbePath  string
	// InvocationTimeout bounds each engine call. Zero disables the deadline.
	InvocationTimeout time.Duration
}

// Engine runs edit primitives through ffmpeg.
type Engine struct {
	cfg      Config
	logger   *slog.Logger
	run      commandRunner
	inspect  inspectFunc
	lookPath func(string) (string, error)
}

type inspectFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Option customizes an Engine.
type Option func(*Engine)

// WithCommandRunner replaces the subprocess runner, mainly for tests.
func WithCommandRunner(r commandRunner) Option {
	return func(e *Engine) {
		if r != nil {
			e.run = r
		}
	}
}

// WithInspector replaces the ffprobe call used by Probe.
func WithInspector(fn func(ctx context.Context, binary, path string) (ffprobe.Result, error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.inspect = fn
		}
	}
}

// WithLookPath replaces binary resolution used by Available.
func WithLookPath(fn func(string) (string, error)) Option {
	return func(e *Engine) {
		if fn != nil {
			e.lookPath = fn
		}
	}
}

// New constructs an Engine. Blank binary names fall back to ffmpeg and ffprobe.
func New(cfg Config, logger *slog.Logger, opts ...Option) *Engine {
	cfg.EnginePath = strings.TrimSpace(cfg.EnginePath)
	if cfg.EnginePath == "" {
		cfg.EnginePath = "ffmpeg"
	}
	cfg.ProbePath = strings.TrimSpace(cfg.ProbePath)
	if cfg.ProbePath == "" {
		cfg.ProbePath = "ffprobe"
	}
	if cfg.InvocationTimeout < 0 {
		cfg.InvocationTimeout = 0
	}
	e := &Engine{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "transcode"),
		run:      defaultCommandRunner,
		inspect:  ffprobe.Inspect,
		lookPath: exec.LookPath,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Config returns the engine configuration in effect.
func (e *Engine) Config() Config {
	return e.cfg
}

// Available reports services.ErrEngineUnavailable when the engine binary
// cannot be resolved.
func (e *Engine) Available() error {
	if _, err := e.lookPath(e.cfg.EnginePath); err != nil {
		return services.Wrap(
			services.ErrEngineUnavailable,
			"transcode",
			"resolve engine",
			fmt.Sprintf("binary %q not found", e.cfg.EnginePath),
			err,
		)
	}
	return nil
}

// Trim cuts [start, end) from input into output.
func (e *Engine) Trim(ctx context.Context, input, output string, start, end float64) (string, error) {
	if start < 0 || start >= end {
		return "", services.Wrap(services.ErrValidation, "transcode", "trim",
			fmt.Sprintf("invalid range: start %.3fs must be before end %.3fs", start, end), nil)
	}
	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "error",
		"-ss", formatSeconds(start),
		"-i", input,
		"-t", formatSeconds(end - start),
		output,
	}
	if err := e.invoke(ctx, "trim", input, output, args); err != nil {
		return "", err
	}
	return output, nil
}

// BurnSubtitle renders cues onto the video frames of input, writing output.
// The cue file is written next to output and removed on every path.
func (e *Engine) BurnSubtitle(ctx context.Context, input, output string, cues []Cue) (string, error) {
	if err := e.Available(); err != nil {
		return "", err
	}
	if len(cues) == 0 {
		return "", services.Wrap(services.ErrValidation, "transcode", "burn subtitle", "at least one cue is required", nil)
	}
	for _, cue := range cues {
		if err := cue.Validate(); err != nil {
			return "", err
		}
	}
	if err := e.checkPaths("burn subtitle", input, output); err != nil {
		return "", err
	}

	srtPath := cuePath(output)
	if err := WriteSRT(srtPath, cues); err != nil {
		return "", services.Wrap(services.ErrTranscode, "transcode", "burn subtitle", "write cue file", err)
	}
	defer func() {
		if err := os.Remove(srtPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			logging.WarnWithContext(e.logger, "subtitle cue file cleanup failed", "srt_cleanup_failed",
				logging.String("srt_path", srtPath),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "remove the file manually"),
				logging.String(logging.FieldImpact, "stray .srt file remains next to the output"),
			)
		}
	}()

	args := []string{
		"-y", "-nostdin", "-hide_banner", "-loglevel", "error",
		"-i", input,
		"-vf", "subtitles=" + escapeFilterPath(srtPath),
		"-c:a", "copy",
		output,
	}
	if err := e.invoke(ctx, "burn subtitle", input, output, args); err != nil {
		return "", err
	}
	return output, nil
}

func (e *Engine) checkPaths(operation, input, output string) error {
	if strings.TrimSpace(input) == "" || strings.TrimSpace(output) == "" {
		return services.Wrap(services.ErrValidation, "transcode", operation, "input and output paths are required", nil)
	}
	if samePath(input, output) {
		return services.Wrap(services.ErrValidation, "transcode", operation,
			fmt.Sprintf("output %q would overwrite the input", output), nil)
	}
	info, err := os.Stat(input)
	if err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", operation, "input not readable", err)
	}
	if info.IsDir() {
		return services.Wrap(services.ErrTranscode, "transcode", operation, fmt.Sprintf("input %q is a directory", input), nil)
	}
	return nil
}

func (e *Engine) invoke(ctx context.Context, operation, input, output string, args []string) error {
	if err := e.Available(); err != nil {
		return err
	}
	if err := e.checkPaths(operation, input, output); err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return services.Wrap(services.ErrTranscode, "transcode", operation, "create output directory", err)
	}

	runCtx := ctx
	if e.cfg.InvocationTimeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, e.cfg.InvocationTimeout)
		defer cancel()
	}

	logger := logging.WithContext(ctx, e.logger)
	logger.Debug("engine invocation starting",
		logging.String("operation", operation),
		logging.String("input", input),
		logging.String("output", output),
		logging.String("args", strings.Join(args, " ")),
	)
	started := time.Now()

	runErr := e.run(runCtx, e.cfg.EnginePath, args...)
	if runErr == nil {
		if info, err := os.Stat(output); err != nil || info.Size() == 0 {
			removePartial(output)
			return services.Wrap(services.ErrTranscode, "transcode", operation, "engine produced no output", err)
		}
		logger.Debug("engine invocation finished",
			logging.String("operation", operation),
			logging.Duration("elapsed", time.Since(started)),
		)
		return nil
	}

	removePartial(output)
	switch {
	case errors.Is(runCtx.Err(), context.DeadlineExceeded) && ctx.Err() == nil:
		return services.Wrap(services.ErrTranscode, "transcode", operation,
			fmt.Sprintf("engine exceeded %s deadline", e.cfg.InvocationTimeout),
			fmt.Errorf("%w: %w", services.ErrTimeout, runErr))
	case ctx.Err() != nil:
		return services.Wrap(services.ErrTranscode, "transcode", operation, "engine invocation interrupted", ctx.Err())
	default:
		return services.Wrap(services.ErrTranscode, "transcode", operation, "engine exited with error", runErr)
	}
}

func removePartial(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = os.RemoveAll(path)
	}
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

func formatSeconds(value float64) string {
	return strconv.FormatFloat(value, 'f', 3, 64)
}
