package restclient

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics records attempt outcomes to Prometheus collectors. All methods are
// safe for concurrent use. A nil *Metrics disables recording.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec
	inFlight        prometheus.Gauge
}

// NewMetrics registers collectors on the default registerer under the given
// namespace. Call at most once per namespace per process.
func NewMetrics(namespace string) *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer, namespace)
}

// NewMetricsWith registers collectors on reg under the given namespace.
func NewMetricsWith(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "requests_total",
				Help:      "Total number of request attempts by method and outcome.",
			},
			[]string{"method", "status"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "request_duration_seconds",
				Help:      "Latency distribution of request attempts.",
				Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "retries_total",
				Help:      "Total number of retried attempts by method.",
			},
			[]string{"method"},
		),
		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "requests_in_flight",
				Help:      "Number of attempts currently executing.",
			},
		),
	}
}

// RecordAttempt records one settled attempt. The status label is the numeric
// HTTP status, or the failure category for attempts that produced none.
func (m *Metrics) RecordAttempt(method, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.requestsTotal.WithLabelValues(method, status).Inc()
	m.requestDuration.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordRetry records that an attempt failed with budget remaining.
func (m *Metrics) RecordRetry(method string) {
	if m == nil {
		return
	}
	m.retriesTotal.WithLabelValues(method).Inc()
}

// AttemptStarted marks an attempt as in flight.
func (m *Metrics) AttemptStarted() {
	if m == nil {
		return
	}
	m.inFlight.Inc()
}

// AttemptDone marks an in-flight attempt as finished.
func (m *Metrics) AttemptDone() {
	if m == nil {
		return
	}
	m.inFlight.Dec()
}
