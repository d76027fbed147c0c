package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type ConsoleMetrics struct {
	registry *prometheus.Registry
	service  string

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge

	backendCallsTotal   *prometheus.CounterVec
	backendCallDuration *prometheus.HistogramVec
	breakerTransitions  *prometheus.CounterVec
	workspacesActive    prometheus.Gauge
	workspacesEvicted   prometheus.Counter
	uploadsTotal        *prometheus.CounterVec
	rateLimitedTotal    prometheus.Counter
}

func NewConsoleMetrics(service string) *ConsoleMetrics {
	registry := prometheus.NewRegistry()
	constLabels := prometheus.Labels{"service": service}

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "console",
			Subsystem:   "http",
			Name:        "in_flight_requests",
			Help:        "Number of in-flight HTTP requests.",
			ConstLabels: constLabels,
		},
	)
	backendCallsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "backend",
			Name:      "calls_total",
			Help:      "Total backend API calls by operation and outcome.",
		},
		[]string{"service", "operation", "outcome"},
	)
	backendCallDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "backend",
			Name:      "call_duration_seconds",
			Help:      "Backend API call duration in seconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"service", "operation"},
	)
	breakerTransitions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "backend",
			Name:      "breaker_transitions_total",
			Help:      "Circuit breaker state transitions by operation.",
		},
		[]string{"service", "operation", "to"},
	)
	workspacesActive := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace:   "console",
			Subsystem:   "workspace",
			Name:        "active",
			Help:        "Number of live browser workspaces.",
			ConstLabels: constLabels,
		},
	)
	workspacesEvicted := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "console",
			Subsystem:   "workspace",
			Name:        "evicted_total",
			Help:        "Total idle workspaces evicted.",
			ConstLabels: constLabels,
		},
	)
	uploadsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "upload",
			Name:      "requests_total",
			Help:      "Total admin uploads by source and status.",
		},
		[]string{"service", "source", "status"},
	)
	rateLimitedTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "console",
			Subsystem:   "http",
			Name:        "rate_limited_total",
			Help:        "Total requests rejected by the rate limiter.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		backendCallsTotal,
		backendCallDuration,
		breakerTransitions,
		workspacesActive,
		workspacesEvicted,
		uploadsTotal,
		rateLimitedTotal,
	)

	return &ConsoleMetrics{
		registry:            registry,
		service:             service,
		requestTotal:        requestTotal,
		requestDuration:     requestDuration,
		requestInFlight:     requestInFlight,
		backendCallsTotal:   backendCallsTotal,
		backendCallDuration: backendCallDuration,
		breakerTransitions:  breakerTransitions,
		workspacesActive:    workspacesActive,
		workspacesEvicted:   workspacesEvicted,
		uploadsTotal:        uploadsTotal,
		rateLimitedTotal:    rateLimitedTotal,
	}
}

func (m *ConsoleMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ConsoleMetrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		path := normalizePath(r.URL.Path)
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		m.requestTotal.WithLabelValues(
			m.service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(m.service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

// normalizePath folds identifiers out of console routes to keep label
// cardinality bounded.
func normalizePath(path string) string {
	switch {
	case strings.HasPrefix(path, "/static/"):
		return "/static/{file}"
	case strings.HasPrefix(path, "/sessions/"):
		return "/sessions/{id}" + actionSuffix(strings.TrimPrefix(path, "/sessions/"))
	case strings.HasPrefix(path, "/admin/feedbacks/"):
		return "/admin/feedbacks/{id}" + actionSuffix(strings.TrimPrefix(path, "/admin/feedbacks/"))
	case strings.HasPrefix(path, "/admin/documents/group/"):
		return "/admin/documents/group/{group}"
	case strings.HasPrefix(path, "/admin/documents/"):
		return "/admin/documents/{id}" + actionSuffix(strings.TrimPrefix(path, "/admin/documents/"))
	default:
		return path
	}
}

func actionSuffix(rest string) string {
	if idx := strings.Index(rest, "/"); idx >= 0 {
		return rest[idx:]
	}
	return ""
}

func (m *ConsoleMetrics) ObserveBackendCall(operation, outcome string, duration time.Duration) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.backendCallsTotal.WithLabelValues(m.service, operation, outcome).Inc()
	m.backendCallDuration.WithLabelValues(m.service, operation).Observe(duration.Seconds())
}

func (m *ConsoleMetrics) RecordBreakerTransition(operation, from, to string) {
	m.breakerTransitions.WithLabelValues(m.service, operation, to).Inc()
}

func (m *ConsoleMetrics) SetWorkspaces(n int) {
	m.workspacesActive.Set(float64(n))
}

func (m *ConsoleMetrics) RecordEvictions(n int) {
	if n <= 0 {
		return
	}
	m.workspacesEvicted.Add(float64(n))
}

func (m *ConsoleMetrics) RecordUpload(source string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.uploadsTotal.WithLabelValues(m.service, source, status).Inc()
}

func (m *ConsoleMetrics) RecordRateLimited() {
	m.rateLimitedTotal.Inc()
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
