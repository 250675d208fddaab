package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/deps"
	"cutroom/internal/logging"
	"cutroom/internal/pipeline"
	"cutroom/internal/preflight"
)

// DefaultSweepInterval is how often a running daemon sweeps stale temp files.
const DefaultSweepInterval = 15 * time.Minute

// Daemon coordinates background housekeeping and enforces single-instance execution.
type Daemon struct {
	cfg      *config.Config
	pipeline *pipeline.Pipeline
	logger   *slog.Logger
	logPath  string

	lockPath      string
	lock          *flock.Flock
	sweepInterval time.Duration

	mu        sync.Mutex
	running   atomic.Bool
	startedAt time.Time
	cancel    context.CancelFunc
	wg        sync.WaitGroup
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool               `json:"running"`
	PID          int                `json:"pid"`
	StartedAt    time.Time          `json:"started_at,omitzero"`
	LockPath     string             `json:"lock_path"`
	DBPath       string             `json:"db_path"`
	LogPath      string             `json:"log_path,omitempty"`
	Stats        catalog.Stats      `json:"stats"`
	Dependencies []deps.Status      `json:"dependencies"`
	Preflight    []preflight.Result `json:"preflight"`
}

// Option customizes a Daemon.
type Option func(*Daemon)

// WithSweepInterval overrides the periodic sweep interval. Zero disables it.
func WithSweepInterval(interval time.Duration) Option {
	return func(d *Daemon) {
		d.sweepInterval = interval
	}
}

// WithLogPath records the active log file so retention skips it.
func WithLogPath(path string) Option {
	return func(d *Daemon) {
		d.logPath = path
	}
}

// New constructs a daemon around an open pipeline.
func New(cfg *config.Config, p *pipeline.Pipeline, logger *slog.Logger, opts ...Option) (*Daemon, error) {
	if cfg == nil || p == nil {
		return nil, errors.New("daemon requires config and pipeline")
	}
	lockPath := cfg.DaemonLockPath()
	d := &Daemon{
		cfg:           cfg,
		pipeline:      p,
		logger:        logging.NewComponentLogger(logger, "daemon"),
		lockPath:      lockPath,
		lock:          flock.New(lockPath),
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Pipeline exposes the wrapped pipeline.
func (d *Daemon) Pipeline() *pipeline.Pipeline {
	return d.pipeline
}

// Start acquires the daemon lock, repairs interrupted work, and begins housekeeping.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another cutroom daemon instance is already running")
	}

	if _, err := d.pipeline.Recover(ctx); err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("recover interrupted work: %w", err)
	}
	if d.cfg.Cleanup.SweepOnStart {
		d.sweep(ctx)
	}
	logging.CleanupOldLogs(d.logger, d.cfg.Logging.RetentionDays,
		logging.RetentionTarget{Dir: d.cfg.Paths.LogDir, Pattern: "cutroomd-*.log", Exclude: []string{d.logPath}},
	)
	if _, err := d.pipeline.Stats(ctx); err != nil {
		logging.WarnWithContext(d.logger, "catalog stats unavailable", "stats_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run cutroom status to inspect the catalog database"),
			logging.String(logging.FieldImpact, "video status gauges stay stale until the next refresh"),
		)
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	d.startedAt = time.Now()
	if d.sweepInterval > 0 {
		d.wg.Add(1)
		go d.sweepLoop(runCtx)
	}

	d.running.Store(true)
	d.logger.Info("cutroom daemon started",
		logging.String(logging.FieldEventType, "daemon_started"),
		logging.String("lock", d.lockPath),
		logging.Duration("sweep_interval", d.sweepInterval),
	)
	return nil
}

// Stop stops background housekeeping and releases the daemon lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		logging.WarnWithContext(d.logger, "failed to release daemon lock", "daemon_lock_release_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "remove the lock file if no daemon is running"),
			logging.String(logging.FieldImpact, "the next start may report another instance"),
		)
	}
	d.running.Store(false)
	d.startedAt = time.Time{}
	d.logger.Info("cutroom daemon stopped", logging.String(logging.FieldEventType, "daemon_stopped"))
}

// Close stops the daemon and releases the pipeline.
func (d *Daemon) Close() error {
	d.Stop()
	return d.pipeline.Close()
}

// Running reports whether Start has succeeded and Stop has not yet run.
func (d *Daemon) Running() bool {
	return d.running.Load()
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	startedAt := d.startedAt
	d.mu.Unlock()

	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		StartedAt:    startedAt,
		LockPath:     d.lockPath,
		DBPath:       d.cfg.DatabasePath(),
		LogPath:      d.logPath,
		Dependencies: preflight.CheckSystemDeps(ctx, d.cfg),
		Preflight:    preflight.RunAll(ctx, d.cfg),
	}
	if stats, err := d.pipeline.Stats(ctx); err == nil {
		status.Stats = stats
	} else {
		d.logger.Debug("status stats unavailable", logging.Error(err))
	}
	return status
}

func (d *Daemon) sweepLoop(ctx context.Context) {
	defer d.wg.Done()
	ticker := time.NewTicker(d.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			d.sweep(ctx)
		}
	}
}

func (d *Daemon) sweep(ctx context.Context) {
	result := d.pipeline.Sweep(ctx)
	if len(result.Removed) == 0 && len(result.Errors) == 0 {
		return
	}
	d.logger.Info("temp sweep finished",
		logging.String(logging.FieldEventType, "temp_sweep_finished"),
		logging.Int("removed", len(result.Removed)),
		logging.Int("errors", len(result.Errors)),
	)
}
