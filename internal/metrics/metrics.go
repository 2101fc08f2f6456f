// Package metrics provides Prometheus metrics for the event collector.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	eventsIngestedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comscore_events_ingested_total",
			Help: "Total connector notifications accepted, by method",
		},
		[]string{"method"},
	)

	eventsRejectedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "comscore_events_rejected_total",
			Help: "Total connector notifications rejected, by reason",
		},
		[]string{"reason"},
	)

	sessionsOpenedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "comscore_sessions_opened_total",
			Help: "Total playback sessions opened",
		},
	)

	ingestDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "comscore_ingest_duration_seconds",
			Help:    "Time spent persisting one notification",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Register registers all collector metrics on the given registry
func Register(registry *prometheus.Registry) {
	registry.MustRegister(
		eventsIngestedTotal,
		eventsRejectedTotal,
		sessionsOpenedTotal,
		ingestDurationSeconds,
	)
}

// Handler returns an HTTP handler serving the given registry
func Handler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// EventIngested records one accepted notification
func EventIngested(method string) {
	eventsIngestedTotal.WithLabelValues(method).Inc()
}

// EventRejected records one rejected notification
func EventRejected(reason string) {
	eventsRejectedTotal.WithLabelValues(reason).Inc()
}

// SessionOpened records one newly opened playback session
func SessionOpened() {
	sessionsOpenedTotal.Inc()
}

// ObserveIngestDuration records how long one ingest took
func ObserveIngestDuration(seconds float64) {
	ingestDurationSeconds.Observe(seconds)
}
