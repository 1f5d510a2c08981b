// Package telemetry instruments render passes with Prometheus metrics and
// OpenTelemetry traces.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "vtree").
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

// MetricsOption configures the Prometheus metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "vtree",
		Buckets:   []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors. All recording methods are safe
// on a nil *Metrics, which records nothing.
type Metrics struct {
	rendersTotal   *prometheus.CounterVec
	renderDuration prometheus.Histogram
	mutationsTotal *prometheus.CounterVec
	eventsTotal    *prometheus.CounterVec
	activeSessions prometheus.Gauge
	framesSent     prometheus.Counter
}

// NewMetrics registers the collectors with the configured registry.
//
// Metrics collected:
//   - vtree_renders_total: Counter of render passes by result
//   - vtree_render_duration_seconds: Histogram of render pass duration
//   - vtree_host_mutations_total: Counter of host mutations by operation
//   - vtree_events_total: Counter of dispatched client events by status
//   - vtree_active_sessions: Gauge of live sessions
//   - vtree_frames_sent_total: Counter of frames sent to clients
//
// Registering twice with the same registry panics, as with promauto.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
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
		}, []string{"result"}),

		renderDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "render_duration_seconds",
			Help:        "Render pass duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		mutationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "host_mutations_total",
			Help:        "Total number of host mutations applied",
			ConstLabels: config.ConstLabels,
		}, []string{"op"}),

		eventsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "events_total",
			Help:        "Total number of client events dispatched",
			ConstLabels: config.ConstLabels,
		}, []string{"status"}),

		activeSessions: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "active_sessions",
			Help:        "Number of live sessions",
			ConstLabels: config.ConstLabels,
		}),

		framesSent: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "frames_sent_total",
			Help:        "Total number of frames sent to clients",
			ConstLabels: config.ConstLabels,
		}),
	}
}

// ObserveRender records one render pass.
func (m *Metrics) ObserveRender(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.renderDuration.Observe(d.Seconds())
	m.rendersTotal.WithLabelValues(result(err)).Inc()
}

// AddMutation records one host mutation.
func (m *Metrics) AddMutation(op string) {
	if m == nil {
		return
	}
	m.mutationsTotal.WithLabelValues(op).Inc()
}

// ObserveEvent records one dispatched client event.
func (m *Metrics) ObserveEvent(err error) {
	if m == nil {
		return
	}
	m.eventsTotal.WithLabelValues(result(err)).Inc()
}

// SessionOpened records a new session.
func (m *Metrics) SessionOpened() {
	if m != nil {
		m.activeSessions.Inc()
	}
}

// SessionClosed records a session ending.
func (m *Metrics) SessionClosed() {
	if m != nil {
		m.activeSessions.Dec()
	}
}

// FrameSent records a frame written to a client.
func (m *Metrics) FrameSent() {
	if m != nil {
		m.framesSent.Inc()
	}
}

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
