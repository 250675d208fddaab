package metrics

import (
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Recorder owns a registry and the pipeline's metrics. A nil Recorder
// discards all observations.
type Recorder struct {
	registry *prometheus.Registry
	textfile string

	EditsTotal             *prometheus.CounterVec
	EditDuration           *prometheus.HistogramVec
	RendersTotal           *prometheus.CounterVec
	RenderDuration         prometheus.Histogram
	RenderEdits            prometheus.Histogram
	RendersInFlight        prometheus.Gauge
	EngineInvocationsTotal *prometheus.CounterVec
	TempSweptTotal         prometheus.Counter
	Videos                 *prometheus.GaugeVec
}

// New registers the pipeline metrics on a fresh registry. textfilePath may be
// empty to disable Flush.
func New(textfilePath string) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		textfile: strings.TrimSpace(textfilePath),

		EditsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cutroom_edits_total",
				Help: "Total number of single-edit applications",
			},
			[]string{"type", "status"},
		),
		EditDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cutroom_edit_duration_seconds",
				Help:    "Single-edit application duration in seconds",
				Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
			},
			[]string{"type"},
		),
		RendersTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cutroom_renders_total",
				Help: "Total number of renders",
			},
			[]string{"status"},
		),
		RenderDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cutroom_render_duration_seconds",
				Help:    "Render duration in seconds",
				Buckets: []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800, 3600},
			},
		),
		RenderEdits: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cutroom_render_edits",
				Help:    "Number of edits applied per render",
				Buckets: []float64{1, 2, 3, 5, 8, 13, 21},
			},
		),
		RendersInFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "cutroom_renders_in_flight",
				Help: "Number of renders currently running",
			},
		),
		EngineInvocationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cutroom_engine_invocations_total",
				Help: "Total number of transcode engine invocations",
			},
			[]string{"operation", "status"},
		),
		TempSweptTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "cutroom_temp_swept_total",
				Help: "Total number of stale temp artifacts removed",
			},
		),
		Videos: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "cutroom_videos",
				Help: "Number of catalog videos by status",
			},
			[]string{"status"},
		),
	}
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// ObserveEdit records a finished single-edit application.
func (r *Recorder) ObserveEdit(kind string, err error, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.EditsTotal.WithLabelValues(kind, outcome(err)).Inc()
	r.EditDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// StartRender marks a render in flight. The returned func records its outcome.
func (r *Recorder) StartRender() func(err error, edits int) {
	if r == nil {
		return func(error, int) {}
	}
	started := time.Now()
	r.RendersInFlight.Inc()
	return func(err error, edits int) {
		r.RendersInFlight.Dec()
		r.RendersTotal.WithLabelValues(outcome(err)).Inc()
		r.RenderDuration.Observe(time.Since(started).Seconds())
		if err == nil {
			r.RenderEdits.Observe(float64(edits))
		}
	}
}

// ObserveEngine records one engine invocation.
func (r *Recorder) ObserveEngine(operation string, err error) {
	if r == nil {
		return
	}
	r.EngineInvocationsTotal.WithLabelValues(operation, outcome(err)).Inc()
}

// AddSwept counts removed temp artifacts.
func (r *Recorder) AddSwept(n int) {
	if r == nil || n <= 0 {
		return
	}
	r.TempSweptTotal.Add(float64(n))
}

// SetVideoCounts replaces the per-status video gauge.
func (r *Recorder) SetVideoCounts(counts map[string]int) {
	if r == nil {
		return
	}
	r.Videos.Reset()
	for status, n := range counts {
		r.Videos.WithLabelValues(status).Set(float64(n))
	}
}

// Flush writes the registry to the configured textfile. It is a no-op when no
// path is configured.
func (r *Recorder) Flush() error {
	if r == nil || r.textfile == "" {
		return nil
	}
	return prometheus.WriteToTextfile(r.textfile, r.registry)
}

func outcome(err error) string {
	if err != nil {
		return StatusFailure
	}
	return StatusSuccess
}
