// internal/common/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Job worker metrics.
var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)
)

// Conversation metrics.
var (
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_chat_messages_total",
			Help: "Inbound chat messages by the state that consumed them",
		},
		[]string{"state"},
	)

	StateTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_state_transitions_total",
			Help: "Committed session state transitions",
		},
		[]string{"from", "to"},
	)

	Rejections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_rejections_total",
			Help: "Sessions ended by a decision rule",
		},
		[]string{"kind"}, // fraud | eligibility | affordability | attempts | document
	)

	EffectDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loan_effect_duration_seconds",
			Help:    "Latency of external collaborator calls made outside the session lock",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12),
		},
		[]string{"effect", "outcome"},
	)

	RejectedInputs = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_rejected_inputs_total",
			Help: "Chat inputs re-prompted because they did not parse or failed a format check",
		},
		[]string{"state", "code"},
	)

	StaleEffects = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loan_stale_effects_total",
			Help: "Effect results discarded because the session changed meanwhile",
		},
		[]string{"effect"},
	)
)
