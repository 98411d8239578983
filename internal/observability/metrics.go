// Package observability provides Prometheus metrics for the application.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "ultradl"

// Metrics holds all application metrics. A nil *Metrics is valid and records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	// Action metrics
	ActionsTotal      *prometheus.CounterVec
	ActionsInProgress prometheus.Gauge
	ActionsRejected   prometheus.Counter
	ItemsSaved        *prometheus.CounterVec

	// Transfer metrics
	TransfersTotal   *prometheus.CounterVec
	TransferBytes    *prometheus.CounterVec
	TransferDuration *prometheus.HistogramVec
	Progress         prometheus.Gauge

	// Analytics metrics
	AnalyticsEvents *prometheus.CounterVec

	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Proxy metrics
	ProxyRequestsTotal *prometheus.CounterVec
	ProxyFailures      *prometheus.CounterVec
}

// New creates all application metrics and registers them with reg.
// Tests pass a fresh prometheus.NewRegistry().
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	metrics := &Metrics{
		gatherer: reg,

		// Action metrics
		ActionsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "total",
			Help:      "Total number of user actions by outcome",
		}, []string{"action", "outcome"}),
		ActionsInProgress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "in_progress",
			Help:      "Number of actions currently in flight",
		}),
		ActionsRejected: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "actions",
			Name:      "rejected_busy_total",
			Help:      "Total number of actions rejected because another one was in flight",
		}),
		ItemsSaved: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "saver",
			Name:      "items_saved_total",
			Help:      "Total number of files saved by kind",
		}, []string{"kind"}),

		// Transfer metrics
		TransfersTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "total",
			Help:      "Total number of byte transfers by service and outcome",
		}, []string{"service", "outcome"}),
		TransferBytes: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "bytes_total",
			Help:      "Total bytes received by service",
		}, []string{"service"}),
		TransferDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "duration_seconds",
			Help:      "Histogram of transfer duration in seconds",
			Buckets:   []float64{0.1, 0.5, 1, 5, 10, 30, 60, 120, 300, 600},
		}, []string{"service"}),
		Progress: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "transfer",
			Name:      "progress_percent",
			Help:      "Progress of the in-flight transfer, 0-100",
		}),

		// Analytics metrics
		AnalyticsEvents: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analytics",
			Name:      "events_total",
			Help:      "Total number of analytics events by name",
		}, []string{"event"}),

		// HTTP metrics
		HTTPRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of outbound HTTP requests",
		}, []string{"method", "host", "status"}),
		HTTPRequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Histogram of time to response headers in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "host"}),

		// Proxy metrics
		ProxyRequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "requests_total",
			Help:      "Total number of requests routed through proxies",
		}, []string{"proxy"}),
		ProxyFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "proxy",
			Name:      "failures_total",
			Help:      "Total number of failed proxy health checks",
		}, []string{"proxy"}),
	}

	return metrics
}

// Handler returns the Prometheus HTTP handler for these metrics.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// ActionTimer marks an action as started and returns a func that records its outcome.
func (m *Metrics) ActionTimer(action string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}

	m.ActionsInProgress.Inc()

	return func(outcome string) {
		m.ActionsInProgress.Dec()
		m.ActionsTotal.WithLabelValues(action, outcome).Inc()
	}
}

// RecordActionRejected counts an action refused by the busy guard.
func (m *Metrics) RecordActionRejected() {
	if m == nil {
		return
	}

	m.ActionsRejected.Inc()
}

// RecordSaved counts a saved file.
func (m *Metrics) RecordSaved(kind string) {
	if m == nil {
		return
	}

	m.ItemsSaved.WithLabelValues(kind).Inc()
}

// RecordTransfer records a finished transfer.
func (m *Metrics) RecordTransfer(service, outcome string, bytes int64, duration time.Duration) {
	if m == nil {
		return
	}

	m.TransfersTotal.WithLabelValues(service, outcome).Inc()
	m.TransferBytes.WithLabelValues(service).Add(float64(bytes))
	m.TransferDuration.WithLabelValues(service).Observe(duration.Seconds())
}

// SetProgress mirrors the progress state.
func (m *Metrics) SetProgress(percent int) {
	if m == nil {
		return
	}

	m.Progress.Set(float64(percent))
}

// RecordEvent counts an analytics event.
func (m *Metrics) RecordEvent(event string) {
	if m == nil {
		return
	}

	m.AnalyticsEvents.WithLabelValues(event).Inc()
}

// RecordHTTPRequest records outbound HTTP request metrics. status 0 means no response.
func (m *Metrics) RecordHTTPRequest(method, host string, status int, duration time.Duration) {
	if m == nil {
		return
	}

	statusStr := strconv.Itoa(status)
	m.HTTPRequestsTotal.WithLabelValues(method, host, statusStr).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, host).Observe(duration.Seconds())
}

// RecordProxyRequest records a proxy request.
func (m *Metrics) RecordProxyRequest(proxy string) {
	if m == nil {
		return
	}

	m.ProxyRequestsTotal.WithLabelValues(proxy).Inc()
}

// RecordProxyFailure records a proxy failure.
func (m *Metrics) RecordProxyFailure(proxy string) {
	if m == nil {
		return
	}

	m.ProxyFailures.WithLabelValues(proxy).Inc()
}
