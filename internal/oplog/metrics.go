package oplog

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/MarkoPoloResearchLab/pixelcredits/pkg/credits"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	metricsNamespace = "pixelcredits"
	labelOperation   = "operation"
	labelStatus      = "status"
	labelMethod      = "method"
	labelRoute       = "route"
)

// Metrics owns a private registry with operation counters and HTTP collectors.
type Metrics struct {
	registry      *prometheus.Registry
	operations    *prometheus.CounterVec
	creditsMoved  *prometheus.CounterVec
	httpRequests  *prometheus.CounterVec
	httpDurations *prometheus.HistogramVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	metrics := &Metrics{
		registry: registry,
		operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "credits",
				Name:      "operations_total",
				Help:      "Credits operations by name and outcome.",
			},
			[]string{labelOperation, labelStatus},
		),
		creditsMoved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "credits",
				Name:      "amount_total",
				Help:      "Absolute credit amounts moved by successful operations.",
			},
			[]string{labelOperation},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "HTTP requests handled.",
			},
			[]string{labelMethod, labelRoute, labelStatus},
		),
		httpDurations: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "Duration of HTTP requests.",
				Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{labelMethod, labelRoute},
		),
	}
	registry.MustRegister(
		metrics.operations,
		metrics.creditsMoved,
		metrics.httpRequests,
		metrics.httpDurations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return metrics
}

// LogOperation implements credits.OperationLogger.
func (metrics *Metrics) LogOperation(_ context.Context, entry credits.OperationLog) {
	metrics.operations.WithLabelValues(entry.Operation, entry.Status).Inc()
	if entry.Error != nil || entry.Amount == 0 {
		return
	}
	amount := entry.Amount
	if amount < 0 {
		amount = -amount
	}
	metrics.creditsMoved.WithLabelValues(entry.Operation).Add(float64(amount))
}

// ObserveHTTP records one finished HTTP request.
func (metrics *Metrics) ObserveHTTP(method string, route string, status int, elapsed time.Duration) {
	metrics.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	metrics.httpDurations.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (metrics *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(metrics.registry, promhttp.HandlerOpts{Registry: metrics.registry})
}

// Registry exposes the underlying registry for tests and extra collectors.
func (metrics *Metrics) Registry() *prometheus.Registry {
	return metrics.registry
}
