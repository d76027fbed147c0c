package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ActivityMetrics instruments the activity tail process.
type ActivityMetrics struct {
	registry *prometheus.Registry

	eventsTotal *prometheus.CounterVec
	eventLag    *prometheus.HistogramVec
}

func NewActivityMetrics(service string) *ActivityMetrics {
	registry := prometheus.NewRegistry()

	eventsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "console",
			Subsystem: "activity",
			Name:      "events_total",
			Help:      "Total activity events received by kind and status.",
		},
		[]string{"service", "kind", "status"},
	)
	eventLag := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "console",
			Subsystem: "activity",
			Name:      "event_lag_seconds",
			Help:      "Delay between an admin action and its receipt.",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"service"},
	)

	registry.MustRegister(eventsTotal, eventLag)

	return &ActivityMetrics{
		registry:    registry,
		eventsTotal: eventsTotal,
		eventLag:    eventLag,
	}
}

func (m *ActivityMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *ActivityMetrics) ObserveEvent(service, kind string, err error) {
	if kind == "" {
		kind = "unknown"
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.eventsTotal.WithLabelValues(service, kind, status).Inc()
}

func (m *ActivityMetrics) ObserveLag(service string, lag time.Duration) {
	if lag < 0 {
		return
	}
	m.eventLag.WithLabelValues(service).Observe(lag.Seconds())
}
