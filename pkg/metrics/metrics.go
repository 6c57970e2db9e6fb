// Package metrics exports runtime statistics of rask roots and schedulers
// to Prometheus.
//
// A Collector implements both scheduler.Recorder and vdom.Recorder:
//
//	c := metrics.New(metrics.WithNamespace("app"))
//	sched := scheduler.New(loop, scheduler.WithRecorder(c))
//	root, err := vdom.Render(app, container, vdom.WithRecorder(c))
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/vango-dev/rask/pkg/reconcile"
)

// Config configures a Collector.
type Config struct {
	// Namespace is the metrics namespace (default: "rask").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is where metrics are registered.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures a Collector.
type Option func(*Config)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) Option {
	return func(c *Config) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) Option {
	return func(c *Config) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) Option {
	return func(c *Config) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) Option {
	return func(c *Config) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "rask",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Collector records scheduler and component runtime statistics.
type Collector struct {
	registry prometheus.Registerer

	flushPasses   *prometheus.CounterVec
	flushTasks    *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	taskFailures  *prometheus.CounterVec

	renders        *prometheus.CounterVec
	renderDuration *prometheus.HistogramVec
	renderErrors   *prometheus.CounterVec
	reconciles     *prometheus.CounterVec
	patchOps       prometheus.Counter
	resyncs        prometheus.Counter
	resyncMoves    *prometheus.CounterVec
	instances      prometheus.Gauge
	cleanupErrors  prometheus.Counter
}

// New creates a Collector and registers its metrics. It panics if the
// metrics are already registered with the registry.
func New(opts ...Option) *Collector {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counterOpts := func(name, help string) prometheus.CounterOpts {
		return prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}
	}
	histogramOpts := func(name, help string) prometheus.HistogramOpts {
		return prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}
	}

	return &Collector{
		registry: config.Registry,

		flushPasses: factory.NewCounterVec(
			counterOpts("flush_passes_total", "Scheduler flush passes that ran at least one task"),
			[]string{"kind"}),
		flushTasks: factory.NewCounterVec(
			counterOpts("flush_tasks_total", "Tasks run by scheduler flush passes"),
			[]string{"kind"}),
		flushDuration: factory.NewHistogramVec(
			histogramOpts("flush_duration_seconds", "Scheduler flush pass duration in seconds"),
			[]string{"kind"}),
		taskFailures: factory.NewCounterVec(
			counterOpts("task_failures_total", "Scheduled tasks that panicked"),
			[]string{"kind"}),

		renders: factory.NewCounterVec(
			counterOpts("renders_total", "Component renders"),
			[]string{"component"}),
		renderDuration: factory.NewHistogramVec(
			histogramOpts("render_duration_seconds", "Component render duration in seconds"),
			[]string{"component"}),
		renderErrors: factory.NewCounterVec(
			counterOpts("render_errors_total", "Component setup or render failures"),
			[]string{"component", "handled"}),
		reconciles: factory.NewCounterVec(
			counterOpts("reconciliations_total", "Child list reconciliations that changed the live tree"),
			[]string{"reason"}),
		patchOps: factory.NewCounter(
			counterOpts("patch_ops_total", "Targeted live tree operations applied")),
		resyncs: factory.NewCounter(
			counterOpts("resyncs_total", "Full container resyncs")),
		resyncMoves: factory.NewCounterVec(
			counterOpts("resync_nodes_total", "Live nodes touched by resyncs"),
			[]string{"action"}),
		instances: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "instances",
			Help:        "Mounted component instances",
			ConstLabels: config.ConstLabels,
		}),
		cleanupErrors: factory.NewCounter(
			counterOpts("cleanup_failures_total", "Cleanup callbacks that panicked")),
	}
}

// FlushPass implements scheduler.Recorder.
func (c *Collector) FlushPass(kind string, tasks int, elapsed time.Duration) {
	c.flushPasses.WithLabelValues(kind).Inc()
	c.flushTasks.WithLabelValues(kind).Add(float64(tasks))
	c.flushDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// TaskFailed implements scheduler.Recorder.
func (c *Collector) TaskFailed(kind string) {
	c.taskFailures.WithLabelValues(kind).Inc()
}

// Render implements vdom.Recorder.
func (c *Collector) Render(component string, elapsed time.Duration) {
	c.renders.WithLabelValues(component).Inc()
	c.renderDuration.WithLabelValues(component).Observe(elapsed.Seconds())
}

// RenderError implements vdom.Recorder.
func (c *Collector) RenderError(component string, handled bool) {
	label := "false"
	if handled {
		label = "true"
	}
	c.renderErrors.WithLabelValues(component, label).Inc()
}

// Reconcile implements vdom.Recorder.
func (c *Collector) Reconcile(reason string, ops int) {
	c.reconciles.WithLabelValues(reason).Inc()
	c.patchOps.Add(float64(ops))
}

// Resync implements vdom.Recorder.
func (c *Collector) Resync(st reconcile.Stats) {
	c.resyncs.Inc()
	c.resyncMoves.WithLabelValues("kept").Add(float64(st.Kept))
	c.resyncMoves.WithLabelValues("inserted").Add(float64(st.Inserted))
	c.resyncMoves.WithLabelValues("moved").Add(float64(st.Moved))
	c.resyncMoves.WithLabelValues("trimmed").Add(float64(st.Trimmed))
}

// InstanceMounted implements vdom.Recorder.
func (c *Collector) InstanceMounted(string) { c.instances.Inc() }

// InstanceUnmounted implements vdom.Recorder.
func (c *Collector) InstanceUnmounted(string) { c.instances.Dec() }

// CleanupFailed implements vdom.Recorder.
func (c *Collector) CleanupFailed() { c.cleanupErrors.Inc() }

// Handler serves the collector's registry in the Prometheus text format.
// Registries that cannot be gathered fall back to the default gatherer.
func (c *Collector) Handler() http.Handler {
	if g, ok := c.registry.(prometheus.Gatherer); ok {
		return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
	}
	return promhttp.Handler()
}
