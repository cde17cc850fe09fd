package middleware

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vango-dev/opinions/pkg/action"
)

// MetricsConfig configures the Prometheus metrics.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "opinions").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for durations.
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
		Namespace: "opinions",
		Buckets:   prometheus.DefBuckets,
		Registry:  prometheus.DefaultRegisterer,
	}
}

// Metrics holds the Prometheus collectors. Create one per registry.
type Metrics struct {
	actionsStarted *prometheus.CounterVec
	actionsSettled *prometheus.CounterVec
	actionDuration *prometheus.HistogramVec
	actionsDropped *prometheus.CounterVec
	validations    *prometheus.CounterVec
	httpRequests   *prometheus.CounterVec
	httpDuration   *prometheus.HistogramVec
	watchers       prometheus.Gauge
	wsErrors       *prometheus.CounterVec
}

// NewMetrics registers the collectors with the configured registry.
// It panics if they are already registered there.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}
	factory := promauto.With(config.Registry)

	counter := func(name, help string, labels ...string) *prometheus.CounterVec {
		return factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
		}, labels)
	}
	histogram := func(name, help string, labels ...string) *prometheus.HistogramVec {
		return factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        name,
			Help:        help,
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}, labels)
	}

	return &Metrics{
		actionsStarted: counter("actions_started_total", "Total number of action invocations started", "action"),
		actionsSettled: counter("actions_settled_total", "Total number of action invocations settled", "action", "status"),
		actionDuration: histogram("action_duration_seconds", "Time from trigger to result write-back in seconds", "action"),
		actionsDropped: counter("actions_dropped_total", "Total number of triggers dropped while pending", "action"),
		validations:    counter("validations_total", "Total number of results recorded without invocation", "action", "status"),
		httpRequests:   counter("http_requests_total", "Total number of HTTP requests", "route", "method", "code"),
		httpDuration:   histogram("http_request_duration_seconds", "HTTP request duration in seconds", "route", "method"),
		watchers: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "watchers",
			Help:        "Number of connected websocket watchers",
			ConstLabels: config.ConstLabels,
		}),
		wsErrors: counter("websocket_errors_total", "Total websocket errors by type", "type"),
	}
}

func status(ok bool) string {
	if ok {
		return "success"
	}
	return "error"
}

// ActionStarted implements action.Observer.
func (m *Metrics) ActionStarted(name string) {
	m.actionsStarted.WithLabelValues(name).Inc()
}

// ActionSettled implements action.Observer.
func (m *Metrics) ActionSettled(name string, ok bool, elapsed time.Duration) {
	m.actionsSettled.WithLabelValues(name, status(ok)).Inc()
	m.actionDuration.WithLabelValues(name).Observe(elapsed.Seconds())
}

// ActionDropped implements action.Observer.
func (m *Metrics) ActionDropped(name string) {
	m.actionsDropped.WithLabelValues(name).Inc()
}

// ActionCompleted implements action.Observer.
func (m *Metrics) ActionCompleted(name string, ok bool) {
	m.validations.WithLabelValues(name, status(ok)).Inc()
}

// HTTP returns middleware recording request counts and durations. The route
// label is the chi route pattern, so it must wrap a chi router.
func (m *Metrics) HTTP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		route := routePattern(r)
		code := ww.Status()
		if code == 0 {
			code = http.StatusOK
		}
		m.httpDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(route, r.Method, strconv.Itoa(code)).Inc()
	})
}

// routePattern returns the matched chi pattern, or "unmatched" to keep
// label cardinality bounded.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return "unmatched"
}

// WatcherConnected records a websocket watcher joining.
func (m *Metrics) WatcherConnected() {
	m.watchers.Inc()
}

// WatcherDisconnected records a websocket watcher leaving.
func (m *Metrics) WatcherDisconnected() {
	m.watchers.Dec()
}

// RecordWebSocketError records a websocket error by category.
func (m *Metrics) RecordWebSocketError(err error) {
	m.wsErrors.WithLabelValues(categorizeError(err)).Inc()
}

// categorizeError returns a category for the error.
// This prevents high-cardinality labels from error messages.
func categorizeError(err error) string {
	if err == nil {
		return "none"
	}
	errStr := strings.ToLower(err.Error())
	switch {
	case strings.Contains(errStr, "timeout"):
		return "timeout"
	case strings.Contains(errStr, "close"):
		return "closed"
	case strings.Contains(errStr, "broken pipe"), strings.Contains(errStr, "reset by peer"):
		return "disconnect"
	case strings.Contains(errStr, "websocket"):
		return "websocket"
	default:
		return "internal"
	}
}

var _ action.Observer = (*Metrics)(nil)
