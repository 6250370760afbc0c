// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EvaluationsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_evaluations_completed_total",
			Help: "Total number of (job, user) pair evaluations completed",
		},
		[]string{"job_class"},
	)

	EvaluationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_evaluations_failed_total",
			Help: "Total number of evaluations that errored",
		},
		[]string{"error_code"},
	)

	EvaluationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "match_evaluation_duration_seconds",
			Help: "Duration of a full job evaluation in seconds",
		},
		[]string{"job_class"},
	)

	ClassifierFallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "classifier_heuristic_fallbacks_total",
			Help: "Total number of classifications served by the heuristic fallback",
		},
		[]string{"entity"},
	)

	CapsuleViolations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "capsule_validation_violations_total",
			Help: "Total number of capsule texts replaced or flagged by the validator",
		},
		[]string{"section", "code"},
	)

	NotificationsSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "qualification_notifications_sent_total",
			Help: "Total number of qualification notifications delivered",
		},
		[]string{"channel"},
	)
)
