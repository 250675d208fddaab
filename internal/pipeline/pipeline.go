package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"cutroom/internal/artifact"
	"cutroom/internal/catalog"
	"cutroom/internal/config"
	"cutroom/internal/logging"
	"cutroom/internal/metrics"
	"cutroom/internal/notifications"
	"cutroom/internal/renderlock"
	"cutroom/internal/transcode"
)

// Engine is the transcode surface the pipeline depends on.
type Engine interface {
	Available() error
	Probe(ctx context.Context, path string) transcode.MediaInfo
	Trim(ctx context.Context, input, output string, start, end float64) (string, error)
	BurnSubtitle(ctx context.Context, input, output string, cues []transcode.Cue) (string, error)
}

// Pipeline coordinates the catalog, the engine, and artifact storage.
type Pipeline struct {
	cfg      *config.Config
	store    *catalog.Store
	engine   Engine
	storage  artifact.Storage
	paths    artifact.Paths
	chain    *artifact.Chain
	locks    *renderlock.Locker
	metrics  *metrics.Recorder
	notifier notifications.Service
	logger   *slog.Logger

	ownsStore bool
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithStorage replaces the local filesystem storage.
func WithStorage(storage artifact.Storage) Option {
	return func(p *Pipeline) {
		if storage != nil {
			p.storage = storage
		}
	}
}

// WithMetrics attaches a metrics recorder.
func WithMetrics(recorder *metrics.Recorder) Option {
	return func(p *Pipeline) {
		p.metrics = recorder
	}
}

// WithTextfileMetrics attaches a recorder that flushes to
// metrics.textfile_path. A second process flushing its own counters to the
// same file would overwrite the first, so one long-lived owner should use it.
func WithTextfileMetrics(cfg *config.Config) Option {
	return func(p *Pipeline) {
		if cfg != nil {
			p.metrics = metrics.New(cfg.Metrics.TextfilePath)
		}
	}
}

// WithNotifier replaces the configured notification service.
func WithNotifier(notifier notifications.Service) Option {
	return func(p *Pipeline) {
		if notifier != nil {
			p.notifier = notifier
		}
	}
}

// WithLocker replaces the per-video lease manager.
func WithLocker(locker *renderlock.Locker) Option {
	return func(p *Pipeline) {
		if locker != nil {
			p.locks = locker
		}
	}
}

// New assembles a Pipeline around an open store and engine.
func New(cfg *config.Config, store *catalog.Store, engine Engine, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil || store == nil || engine == nil {
		return nil, errors.New("pipeline requires config, store, and engine")
	}
	p := &Pipeline{
		cfg:      cfg,
		store:    store,
		engine:   engine,
		storage:  artifact.LocalStorage{},
		paths:    artifact.NewPaths(cfg),
		locks:    renderlock.New(cfg.LocksDir()),
		notifier: notifications.NewService(cfg),
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.chain = artifact.NewChain(p.paths, p.storage, logger)
	return p, nil
}

// Open builds a Pipeline from configuration: it opens the catalog, constructs
// the ffmpeg engine, and attaches in-memory metrics. Only the daemon writes
// metrics.textfile_path; it passes WithTextfileMetrics. Close releases the
// catalog.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Pipeline, error) {
	if cfg == nil {
		return nil, errors.New("pipeline requires config")
	}
	store, err := catalog.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	engine := transcode.New(transcode.Config{
		EnginePath:        cfg.Engine.EnginePath,
		ProbePath:         cfg.Engine.ProbePath,
		InvocationTimeout: cfg.InvocationTimeout(),
	}, logger)

	opts = append([]Option{WithMetrics(metrics.New(""))}, opts...)
	p, err := New(cfg, store, engine, logger, opts...)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	p.ownsStore = true
	return p, nil
}

// Close releases the catalog when the Pipeline opened it.
func (p *Pipeline) Close() error {
	if p == nil || !p.ownsStore {
		return nil
	}
	return p.store.Close()
}

// Store exposes the catalog.
func (p *Pipeline) Store() *catalog.Store {
	return p.store
}

// Engine exposes the transcode engine.
func (p *Pipeline) Engine() Engine {
	return p.engine
}

// Metrics exposes the recorder, which may be nil.
func (p *Pipeline) Metrics() *metrics.Recorder {
	return p.metrics
}
