// Package metrics exposes Prometheus collectors for render passes, DOM
// mutations and message dispatch.
//
// Metrics collected (default namespace "trellis"):
//   - trellis_renders_total: Counter of render passes by status
//   - trellis_render_duration_seconds: Histogram of render pass duration
//   - trellis_dom_mutations_total: Counter of DOM primitives by op
//   - trellis_lookup_failures_total: Counter of unresolved locators by op
//   - trellis_dispatch_total: Counter of delivered messages by status
//   - trellis_registry_components: Gauge of registered component instances
//   - trellis_registry_swept_total: Counter of instances removed by sweeps
//
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Config configures the collectors.
type Config struct {
	// Namespace is the metrics namespace (default: "trellis").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for render duration.
	// Default: prometheus.DefBuckets
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// Option configures the collectors.
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

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) Option {
	return func(c *Config) {
		c.Registry = registry
	}
}

func defaultConfig() Config {
	return Config{
		Namespace: "trellis",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the collectors.
type Metrics struct {
	rendersTotal       *prometheus.CounterVec
	renderDuration     prometheus.Histogram
	domMutations       *prometheus.CounterVec
	lookupFailures     *prometheus.CounterVec
	dispatchTotal      *prometheus.CounterVec
	registryComponents prometheus.Gauge
	registrySwept      prometheus.Counter
}

// New registers the collectors and returns them. Registering twice with
// the same registry panics, as promauto does.
func New(opts ...Option) *Metrics {
	config := defaultConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	return &Metrics{
		rendersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "renders_total",
			Help:        "Total number of render passes",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		domMutations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dom_mutations_total",
			Help:        "Total number of DOM primitives applied",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		lookupFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "lookup_failures_total",
			Help:        "Total number of locators that did not resolve",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		dispatchTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "dispatch_total",
			Help:        "Total number of messages delivered to components",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		registryComponents: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registry_components",
			Help:        "Number of registered component instances",
			ConstLabels: config.ConstLabels,
		}),

		registrySwept: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "registry_swept_total",
			Help:        "Total number of component instances removed after leaving the tree",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// Status labels.
const (
	StatusOK       = "ok"
	StatusError    = "error"
	StatusPanic    = "panic"
	StatusNotFound = "not_found"
)

// ObserveRender records a finished render pass.
func (m *Metrics) ObserveRender(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.rendersTotal.WithLabelValues(status).Inc()
	m.renderDuration.Observe(d.Seconds())
}

// RecordMutation records one applied DOM primitive.
func (m *Metrics) RecordMutation(op string) {
	if m == nil {
		return
	}
	m.domMutations.WithLabelValues(op).Inc()
}

// RecordLookupFailure records a locator that did not resolve.
func (m *Metrics) RecordLookupFailure(op string) {
	if m == nil {
		return
	}
	m.lookupFailures.WithLabelValues(op).Inc()
}

// RecordDispatch records one delivered message.
func (m *Metrics) RecordDispatch(status string) {
	if m == nil {
		return
	}
	m.dispatchTotal.WithLabelValues(status).Inc()
}

// SetComponents sets the registry size.
func (m *Metrics) SetComponents(n int) {
	if m == nil {
		return
	}
	m.registryComponents.Set(float64(n))
}

// RecordSwept records instances removed by a registry sweep.
func (m *Metrics) RecordSwept(n int) {
	if m == nil || n == 0 {
		return
	}
	m.registrySwept.Add(float64(n))
}
