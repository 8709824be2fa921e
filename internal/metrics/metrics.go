package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BatchRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfc_batch_runs_total",
			Help: "Total number of commission batch runs by policy and outcome",
		},
		[]string{"policy", "outcome"},
	)

	BatchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "hfc_batch_duration_seconds",
			Help:    "Duration of commission batch runs in seconds",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 14), // 50ms to ~7m
		},
		[]string{"policy"},
	)

	ParticipantsPaid = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hfc_batch_participants_paid",
			Help: "Participants credited by the most recent batch",
		},
	)

	CommitFailuresTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hfc_batch_commit_failures_total",
			Help: "Per-participant batch commits that failed after retries",
		},
	)

	CommissionAmountTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfc_commission_amount_total",
			Help: "Committed commission amount by commission type",
		},
		[]string{"type"},
	)

	PlacementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfc_placements_total",
			Help: "Network placements by leg position",
		},
		[]string{"position"},
	)

	ResetRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfc_reset_runs_total",
			Help: "System reset attempts by outcome",
		},
		[]string{"outcome"},
	)

	PayoutTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hfc_payout_transitions_total",
			Help: "Payout status changes by resulting status",
		},
		[]string{"status"},
	)
)
