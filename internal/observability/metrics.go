package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	registry         *prometheus.Registry
	requests         *prometheus.CounterVec
	requestDurations *prometheus.HistogramVec
	errors           *prometheus.CounterVec
	actions          *prometheus.CounterVec
	actionDurations  *prometheus.HistogramVec
	droppedEvents    prometheus.Counter
}

// NewMetrics registers collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route, method and status",
		}, []string{"route", "method", "status"}),
		requestDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		errors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "http",
			Name:      "errors_total",
			Help:      "Error responses by route, method and error code",
		}, []string{"route", "method", "code"}),
		actions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "lifecycle",
			Name:      "actions_total",
			Help:      "Lifecycle operations by action and result",
		}, []string{"action", "result"}),
		actionDurations: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "complaints",
			Subsystem: "lifecycle",
			Name:      "action_duration_seconds",
			Help:      "Lifecycle operation latency including the transaction",
			Buckets:   prometheus.DefBuckets,
		}, []string{"action"}),
		droppedEvents: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "complaints",
			Subsystem: "events",
			Name:      "dropped_total",
			Help:      "Domain events dropped because the dispatch queue was full",
		}),
	}
}

// Registry exposes the registry for the /metrics handler.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RecordRequest increments counters for requests.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.requestDurations.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError increments error counters.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.errors.WithLabelValues(route, method, code).Inc()
}

// RecordAction counts one lifecycle operation. result is "ok" or an error code.
func (m *Metrics) RecordAction(action, result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.actions.WithLabelValues(action, result).Inc()
	m.actionDurations.WithLabelValues(action).Observe(duration.Seconds())
}

// RecordDroppedEvent counts an event the dispatcher could not enqueue.
func (m *Metrics) RecordDroppedEvent() {
	if m == nil {
		return
	}
	m.droppedEvents.Inc()
}
