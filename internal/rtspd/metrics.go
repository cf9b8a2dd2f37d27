package rtspd

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricsNamespace = "rtspd"

// Metrics holds the Prometheus collectors exported on /metrics
type Metrics struct {
	registry *prometheus.Registry

	connectionsTotal  prometheus.Counter
	connectionsActive prometheus.Gauge
	requestsTotal     *prometheus.CounterVec
	sessionsTotal     prometheus.Counter
	sessionsActive    prometheus.Gauge
	stateTransitions  *prometheus.CounterVec
	httpRequestsTotal *prometheus.CounterVec
}

// NewMetrics registers all collectors on a private registry
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		registry: registry,
		connectionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "connections_total",
			Help:      "Total number of accepted RTSP connections",
		}),
		connectionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "connections_active",
			Help:      "Number of RTSP connections currently being handled",
		}),
		requestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "requests_total",
			Help:      "Total number of RTSP requests answered, by method and status",
		}, []string{"method", "status"}),
		sessionsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "sessions_total",
			Help:      "Total number of RTSP sessions created by SETUP",
		}),
		sessionsActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "sessions_active",
			Help:      "Number of RTSP sessions not yet torn down",
		}),
		stateTransitions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "rtsp",
			Name:      "state_transitions_total",
			Help:      "RTSP session state machine transitions",
		}, []string{"from", "to"}),
		httpRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests, by status code and method",
		}, []string{"code", "method"}),
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// InstrumentHandler counts requests served by h
func (m *Metrics) InstrumentHandler(h http.Handler) http.Handler {
	return promhttp.InstrumentHandlerCounter(m.httpRequestsTotal, h)
}

func (m *Metrics) connectionOpened() {
	m.connectionsTotal.Inc()
	m.connectionsActive.Inc()
}

func (m *Metrics) connectionClosed() {
	m.connectionsActive.Dec()
}

func (m *Metrics) requestHandled(method string, statusCode int) {
	m.requestsTotal.WithLabelValues(method, strconv.Itoa(statusCode)).Inc()
}

func (m *Metrics) sessionCreated() {
	m.sessionsTotal.Inc()
	m.sessionsActive.Inc()
}

func (m *Metrics) sessionTerminated() {
	m.sessionsActive.Dec()
}

func (m *Metrics) stateChanged(from, to string) {
	m.stateTransitions.WithLabelValues(from, to).Inc()
}
