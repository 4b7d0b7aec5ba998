// Package metrics exposes Prometheus instruments for the matching engine.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	CandidatesScored = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_candidates_scored_total",
			Help: "Total number of candidates scored",
		},
	)

	CandidatesEligible = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "match_candidates_eligible_total",
			Help: "Total number of scored candidates above the compatibility threshold",
		},
	)

	ScoringDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_scoring_duration_seconds",
			Help:    "Time spent scoring one candidate pool",
			Buckets: prometheus.DefBuckets,
		},
	)

	MatchRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_requests_total",
			Help: "Match requests by outcome",
		},
		[]string{"result"},
	)

	MatchTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_transitions_total",
			Help: "Applied match status transitions",
		},
		[]string{"from", "to"},
	)

	FeedbackSubmissions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_feedback_submissions_total",
			Help: "Feedback submissions by outcome",
		},
		[]string{"result"},
	)

	RealizedScores = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "match_realized_score",
			Help:    "Realized compatibility written after both participants rated a match",
			Buckets: prometheus.LinearBuckets(0.2, 0.1, 9),
		},
	)

	JobsProcessed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_worker_jobs_total",
			Help: "Jobs processed by the worker",
		},
		[]string{"job_type", "result"},
	)

	NotificationsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_notifications_failed_total",
			Help: "Notifications that could not be handed to the notification service",
		},
		[]string{"event"},
	)

	ProfileCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "match_profile_cache_lookups_total",
			Help: "User profile cache lookups",
		},
		[]string{"result"},
	)
)

// Handler serves the default registry
func Handler() http.Handler {
	return promhttp.Handler()
}
