// Package metrics holds the Prometheus collectors of the form service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result labels for FormMutations.
const (
	ResultApplied = "applied"
	ResultNoop    = "noop"
	ResultInvalid = "invalid"
)

var (
	// FormMutations counts tree rewrites by operation and outcome.
	FormMutations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "form_mutations_total",
		Help: "Question tree mutations by operation and result",
	}, []string{"operation", "result"})

	// PersistFailures counts store writes that failed and were dropped.
	PersistFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "form_persist_failures_total",
		Help: "Failed writes of the question tree to the store",
	})

	// PersistDuration tracks store write latency.
	PersistDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "form_persist_duration_seconds",
		Help:    "Time spent writing the question tree to the store",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	// QuestionCount reports the number of questions in the working forest.
	QuestionCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "form_questions",
		Help: "Questions in the working form, children included",
	})

	// DragSessions counts WebSocket drag connections currently open.
	DragSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "form_drag_sessions",
		Help: "Open drag-and-drop WebSocket connections",
	})

	// HTTPDuration tracks request latency by route pattern and status.
	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "form_http_request_duration_seconds",
		Help:    "HTTP request latency by method, route and status",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)
