package gateway

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const metricPrefix = "gateway_"

// metrics holds the Prometheus instruments for the ingress surface.
// A private registry keeps the /metrics output limited to what the
// gateway itself exports plus the standard process collectors.
type metrics struct {
	registry *prometheus.Registry

	requests       *prometheus.CounterVec
	requestLatency *prometheus.HistogramVec
	authorizations *prometheus.CounterVec
}

func newMetrics() *metrics {
	m := &metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "http_requests_total",
				Help: "Total ingress requests by endpoint and status",
			},
			[]string{"endpoint", "status"},
		),
		requestLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    metricPrefix + "http_request_duration_seconds",
				Help:    "Ingress request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		authorizations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: metricPrefix + "authorizations_total",
				Help: "Device directory lookup outcomes",
			},
			[]string{"outcome"},
		),
	}

	m.registry.MustRegister(
		m.requests,
		m.requestLatency,
		m.authorizations,
	)

	return m
}

// observeRequest records a completed request.
func (m *metrics) observeRequest(endpoint string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(endpoint, strconv.Itoa(status)).Inc()
	m.requestLatency.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// observeAuthorization records a directory lookup outcome.
func (m *metrics) observeAuthorization(outcome string) {
	m.authorizations.WithLabelValues(outcome).Inc()
}

// handler serves the registry in the Prometheus exposition format.
func (m *metrics) handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
