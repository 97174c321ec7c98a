// Package metrics holds the prometheus collectors shared by scoutly components.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	SessionTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_session_transitions_total",
			Help: "Submission session step transitions",
		},
		[]string{"from", "action", "to"},
	)

	SessionBlocked = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_session_blocked_total",
			Help: "Session actions rejected by a step guard",
		},
		[]string{"step", "action"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "scoutly_sessions_active",
			Help: "Number of open submission sessions",
		},
	)

	SubmissionCommits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_submission_commits_total",
			Help: "Submission commits by outcome",
		},
		[]string{"outcome"},
	)

	SubmissionCommitDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "scoutly_submission_commit_duration_seconds",
			Help:    "Duration of the upload-then-insert commit",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"outcome"},
	)

	OrphanedUploads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_orphaned_uploads_total",
			Help: "Uploads left without a submission row",
		},
		[]string{"compensated"},
	)

	DashboardLoads = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_dashboard_loads_total",
			Help: "Dashboard page computations by page and outcome",
		},
		[]string{"page", "outcome"},
	)

	IdentityOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scoutly_identity_operations_total",
			Help: "Identity provider calls by operation and outcome",
		},
		[]string{"operation", "outcome"},
	)
)
