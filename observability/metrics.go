package observability

import (
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RPCMetrics tracks JSON-RPC traffic served by ubid.
type RPCMetrics struct {
	requests   *prometheus.CounterVec
	errors     *prometheus.CounterVec
	rejections *prometheus.CounterVec
	latency    *prometheus.HistogramVec
	throttles  *prometheus.CounterVec
}

var (
	rpcMetricsOnce sync.Once
	rpcRegistry    *RPCMetrics
)

// RPC returns the lazily-registered JSON-RPC metrics.
func RPC() *RPCMetrics {
	rpcMetricsOnce.Do(func() {
		rpcRegistry = &RPCMetrics{
			requests: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ubi",
				Subsystem: "rpc",
				Name:      "requests_total",
				Help:      "JSON-RPC requests by method and outcome.",
			}, []string{"method", "outcome"}),
			errors: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ubi",
				Subsystem: "rpc",
				Name:      "errors_total",
				Help:      "JSON-RPC errors by method and JSON-RPC error code.",
			}, []string{"method", "code"}),
			rejections: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ubi",
				Subsystem: "rpc",
				Name:      "rejections_total",
				Help:      "Ledger rule rejections by method and error kind.",
			}, []string{"method", "kind"}),
			latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
				Namespace: "ubi",
				Subsystem: "rpc",
				Name:      "request_duration_seconds",
				Help:      "Latency distribution for JSON-RPC handlers.",
				Buckets:   prometheus.DefBuckets,
			}, []string{"method"}),
			throttles: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "ubi",
				Subsystem: "rpc",
				Name:      "throttles_total",
				Help:      "Requests rejected by throttling, by reason.",
			}, []string{"reason"}),
		}
		prometheus.MustRegister(
			rpcRegistry.requests,
			rpcRegistry.errors,
			rpcRegistry.rejections,
			rpcRegistry.latency,
			rpcRegistry.throttles,
		)
	})
	return rpcRegistry
}

// Observe records a served request. code is the JSON-RPC error code, zero on
// success; kind names the ledger rejection when there was one.
func (m *RPCMetrics) Observe(method string, code int, kind string, duration time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "unknown"
	}
	outcome := "success"
	if code != 0 {
		outcome = "error"
		m.errors.WithLabelValues(method, strconv.Itoa(code)).Inc()
	}
	if kind != "" {
		m.rejections.WithLabelValues(method, kind).Inc()
	}
	m.requests.WithLabelValues(method, outcome).Inc()
	m.latency.WithLabelValues(method).Observe(duration.Seconds())
}

// RecordThrottle counts a throttled request. Reasons should be stable strings
// such as "rate_limit".
func (m *RPCMetrics) RecordThrottle(reason string) {
	if m == nil {
		return
	}
	if reason == "" {
		reason = "unspecified"
	}
	m.throttles.WithLabelValues(reason).Inc()
}
