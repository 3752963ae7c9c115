// Package metrics counts API traffic and processed items for a wmsync run.
//
// wmsync is a batch tool, so nothing is served over HTTP. Instead the counters
// are written once at the end of a run to a node-exporter textfile collector
// path (see WriteTextfile).
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "wmsync"

// Metrics holds the counters for one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	requestsTotal  *prometheus.CounterVec
	retriesTotal   *prometheus.CounterVec
	itemsProcessed *prometheus.CounterVec
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.requestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests sent, by API client and response code (\"error\" for transport failures).",
		},
		[]string{"client", "code"},
	)
	m.retriesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "retries_total",
			Help:      "HTTP requests retried after a 429, 5xx or transport failure.",
		},
		[]string{"client"},
	)
	m.itemsProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_processed_total",
			Help:      "Items that passed through a processing stage.",
		},
		[]string{"stage"},
	)

	m.registry.MustRegister(m.requestsTotal, m.retriesTotal, m.itemsProcessed)
	return m
}

// ObserveRequest counts one request. A code of 0 means the request never got a response.
func (m *Metrics) ObserveRequest(client string, code int) {
	if m == nil {
		return
	}
	label := "error"
	if code > 0 {
		label = strconv.Itoa(code)
	}
	m.requestsTotal.WithLabelValues(client, label).Inc()
}

// ObserveRetry counts one retry.
func (m *Metrics) ObserveRetry(client string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(client).Inc()
}

// AddItems adds n items to a stage counter.
func (m *Metrics) AddItems(stage string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.itemsProcessed.WithLabelValues(stage).Add(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// WriteTextfile writes all counters in the Prometheus text format to path.
// The write is atomic (temp file plus rename), which the textfile collector expects.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
