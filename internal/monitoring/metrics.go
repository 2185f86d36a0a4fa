// Package monitoring exposes build and dev-server metrics to Prometheus and
// runs health checks for the dev server.
package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "mtb").
	Namespace string

	// Buckets are the histogram buckets for build duration.
	Buckets []float64

	// Registry receives the collectors. Default: a fresh registry that also
	// carries the Go runtime and process collectors.
	Registry *prometheus.Registry
}

// MetricsOption configures the metrics.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithBuckets sets the build duration histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry *prometheus.Registry) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

// Metrics holds the mtb collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	registry *prometheus.Registry

	buildsTotal     *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	pagesTotal      *prometheus.CounterVec
	components      prometheus.Gauge
	assetsCopied    prometheus.Counter
	watcherEvents   *prometheus.CounterVec
	wsClients       prometheus.Gauge
	reloadBroadcast prometheus.Counter
}

// NewMetrics creates and registers the collectors.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := MetricsConfig{
		Namespace: "mtb",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
	}
	for _, opt := range opts {
		opt(&config)
	}

	if config.Registry == nil {
		config.Registry = prometheus.NewRegistry()
		config.Registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		registry: config.Registry,

		buildsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "builds_total",
			Help:      "Total number of site builds by result",
		}, []string{"status"}),

		buildDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: config.Namespace,
			Name:      "build_duration_seconds",
			Help:      "Duration of full site builds in seconds",
			Buckets:   config.Buckets,
		}),

		pagesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "pages_compiled_total",
			Help:      "Total number of page compilations by result",
		}, []string{"status"}),

		components: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "components_registered",
			Help:      "Number of components registered by the last build",
		}),

		assetsCopied: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "assets_copied_total",
			Help:      "Total number of asset files copied to the output directory",
		}),

		watcherEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "watcher_events_total",
			Help:      "File system events seen by the watcher by operation",
		}, []string{"op"}),

		wsClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: config.Namespace,
			Name:      "websocket_clients",
			Help:      "Connected live reload clients",
		}),

		reloadBroadcast: factory.NewCounter(prometheus.CounterOpts{
			Namespace: config.Namespace,
			Name:      "reload_broadcasts_total",
			Help:      "Reload messages broadcast to browsers",
		}),
	}
}

func status(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// BuildFinished records one build.
func (m *Metrics) BuildFinished(duration time.Duration, success bool) {
	if m == nil {
		return
	}
	m.buildsTotal.WithLabelValues(status(success)).Inc()
	m.buildDuration.Observe(duration.Seconds())
}

// PageCompiled records one page compilation.
func (m *Metrics) PageCompiled(success bool) {
	if m == nil {
		return
	}
	m.pagesTotal.WithLabelValues(status(success)).Inc()
}

// SetComponents records the registry size after a scan.
func (m *Metrics) SetComponents(n int) {
	if m == nil {
		return
	}
	m.components.Set(float64(n))
}

// AssetsCopied adds n copied asset files.
func (m *Metrics) AssetsCopied(n int) {
	if m == nil {
		return
	}
	m.assetsCopied.Add(float64(n))
}

// WatcherEvent records a file system event.
func (m *Metrics) WatcherEvent(op string) {
	if m == nil {
		return
	}
	m.watcherEvents.WithLabelValues(op).Inc()
}

// ClientConnected adjusts the live reload client gauge.
func (m *Metrics) ClientConnected(connected bool) {
	if m == nil {
		return
	}
	if connected {
		m.wsClients.Inc()
	} else {
		m.wsClients.Dec()
	}
}

// ReloadBroadcast records a reload message sent to every client.
func (m *Metrics) ReloadBroadcast() {
	if m == nil {
		return
	}
	m.reloadBroadcast.Inc()
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
