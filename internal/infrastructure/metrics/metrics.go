package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "docflow"

// Metrics holds the service's Prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	transitionsTotal   *prometheus.CounterVec
	documentsCreated   prometheus.Counter
	notificationsTotal *prometheus.CounterVec
	artifactsRendered  *prometheus.CounterVec
}

// New creates and registers all collectors
func New() *Metrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
		},
	)
	transitionsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "transitions_total",
			Help:      "Workflow transitions attempted, by action and outcome.",
		},
		[]string{"action", "outcome"},
	)
	documentsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "workflow",
			Name:      "documents_created_total",
			Help:      "Documents created.",
		},
	)
	notificationsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "notification",
			Name:      "deliveries_total",
			Help:      "Notification deliveries by status.",
		},
		[]string{"status"},
	)
	artifactsRendered := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "artifact",
			Name:      "renders_total",
			Help:      "Artifact renders by outcome.",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		requestTotal,
		requestDuration,
		requestInFlight,
		transitionsTotal,
		documentsCreated,
		notificationsTotal,
		artifactsRendered,
	)

	return &Metrics{
		registry:           registry,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		transitionsTotal:   transitionsTotal,
		documentsCreated:   documentsCreated,
		notificationsTotal: notificationsTotal,
		artifactsRendered:  artifactsRendered,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry for tests and extra collectors
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// GinMiddleware records request count, latency and in-flight requests.
// The route template is used as the path label to keep cardinality bounded.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

// RecordTransition counts a workflow action by outcome label
func (m *Metrics) RecordTransition(action, outcome string) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.transitionsTotal.WithLabelValues(action, outcome).Inc()
}

// RecordDocumentCreated counts a created document
func (m *Metrics) RecordDocumentCreated() {
	m.documentsCreated.Inc()
}

// RecordNotification counts a notification delivery attempt
func (m *Metrics) RecordNotification(delivered bool) {
	status := "sent"
	if !delivered {
		status = "failed"
	}
	m.notificationsTotal.WithLabelValues(status).Inc()
}

// RecordArtifactRender counts an artifact render by outcome label
func (m *Metrics) RecordArtifactRender(outcome string) {
	m.artifactsRendered.WithLabelValues(outcome).Inc()
}
