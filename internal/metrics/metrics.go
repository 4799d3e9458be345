// Package metrics declares the Prometheus collectors exposed at /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const prefix = "tiendas"

var (
	// HTTP
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
	TenantMissingTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: prefix + "_tenant_header_missing_total",
			Help: "Requests rejected for lacking the x-tenant-id header",
		},
	)

	// Cache
	CacheLookupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_cache_lookups_total",
			Help: "Cache lookups by result (hit, miss, skipped, error)",
		},
		[]string{"result"},
	)
	CacheBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_cache_breaker_state",
			Help: "Cache circuit breaker state (0 closed, 1 open, 2 half-open)",
		},
	)

	// Domain
	OrdersTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_orders_total",
			Help: "Order operations by outcome",
		},
		[]string{"outcome"},
	)
	TenantConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: prefix + "_tenant_connections",
			Help: "Logical tenant connections currently cached",
		},
	)

	// Worker
	JobsProcessedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: prefix + "_jobs_processed_total",
			Help: "Background jobs by type and result",
		},
		[]string{"type", "result"},
	)
	JobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    prefix + "_job_duration_seconds",
			Help:    "Duration of background jobs in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"type"},
	)
)

// ObserveRequest records one finished HTTP request.
func ObserveRequest(method, path, status string, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(elapsed.Seconds())
}

func RecordCacheLookup(result string) {
	CacheLookupsTotal.WithLabelValues(result).Inc()
}

func RecordOrder(outcome string) {
	OrdersTotal.WithLabelValues(outcome).Inc()
}

// TrackJob returns a func that records the job's duration and result.
func TrackJob(jobType string) func(err error) {
	start := time.Now()
	return func(err error) {
		JobDuration.WithLabelValues(jobType).Observe(time.Since(start).Seconds())
		result := "ok"
		if err != nil {
			result = "error"
		}
		JobsProcessedTotal.WithLabelValues(jobType, result).Inc()
	}
}
