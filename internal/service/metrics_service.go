package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/users-web/internal/models"
)

const metricsNamespace = "users_web"

// MetricsService owns the Prometheus registry for inbound requests, calls to
// the User API and the session store.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	apiDuration     *prometheus.HistogramVec
	apiTotal        *prometheus.CounterVec
	sessionLookups  *prometheus.CounterVec
	rateLimited     prometheus.Counter
	exports         *prometheus.CounterVec

	requestCount  uint64
	apiCallCount  uint64
	apiFailCount  uint64
	apiDurationNs uint64
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of inbound HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "http_requests_total",
		Help:      "Total number of inbound HTTP requests",
	}, []string{"method", "path", "status"})

	apiDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: metricsNamespace,
		Name:      "api_request_duration_seconds",
		Help:      "Duration of calls to the User API in seconds",
		Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
	}, []string{"operation"})

	apiTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "api_requests_total",
		Help:      "Calls to the User API by operation and outcome",
	}, []string{"operation", "outcome"})

	sessionLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "session_lookups_total",
		Help:      "Session store lookups by result",
	}, []string{"result"})

	rateLimited := prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter",
	})

	exports := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: metricsNamespace,
		Name:      "exports_total",
		Help:      "User list exports by format",
	}, []string{"format"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: metricsNamespace,
		Name:      "goroutines",
		Help:      "Current number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, apiDuration, apiTotal, sessionLookups, rateLimited, exports, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		apiDuration:     apiDuration,
		apiTotal:        apiTotal,
		sessionLookups:  sessionLookups,
		rateLimited:     rateLimited,
		exports:         exports,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry exposes the underlying registry for tests and extra collectors.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records one inbound request.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
}

// ObserveAPICall records one outbound call to the User API.
func (m *MetricsService) ObserveAPICall(operation, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.apiDuration.WithLabelValues(operation).Observe(duration.Seconds())
	m.apiTotal.WithLabelValues(operation, outcome).Inc()
	atomic.AddUint64(&m.apiCallCount, 1)
	atomic.AddUint64(&m.apiDurationNs, uint64(duration.Nanoseconds()))
	if outcome != "ok" && outcome != "not_found" {
		atomic.AddUint64(&m.apiFailCount, 1)
	}
}

// RecordSessionLookup counts session loads that found or missed a session.
func (m *MetricsService) RecordSessionLookup(found bool) {
	if m == nil {
		return
	}
	result := "miss"
	if found {
		result = "hit"
	}
	m.sessionLookups.WithLabelValues(result).Inc()
}

// RecordRateLimited counts a throttled request.
func (m *MetricsService) RecordRateLimited() {
	if m == nil {
		return
	}
	m.rateLimited.Inc()
}

// RecordExport counts a rendered export.
func (m *MetricsService) RecordExport(format string) {
	if m == nil {
		return
	}
	m.exports.WithLabelValues(format).Inc()
}

// Snapshot summarises the counters for the readiness payload.
func (m *MetricsService) Snapshot() models.MetricsSnapshot {
	if m == nil {
		return models.MetricsSnapshot{GeneratedAt: time.Now().UTC()}
	}
	calls := atomic.LoadUint64(&m.apiCallCount)
	var avgMs float64
	if calls > 0 {
		avgMs = float64(atomic.LoadUint64(&m.apiDurationNs)) / float64(calls) / float64(time.Millisecond)
	}
	return models.MetricsSnapshot{
		RequestsTotal:         atomic.LoadUint64(&m.requestCount),
		APICallsTotal:         calls,
		APIFailuresTotal:      atomic.LoadUint64(&m.apiFailCount),
		AverageAPICallLatency: avgMs,
		Goroutines:            runtime.NumGoroutine(),
		GeneratedAt:           time.Now().UTC(),
	}
}
