package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoginsTotal tracks login attempts by outcome
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intmax_logins_total",
			Help: "Total number of login attempts",
		},
		[]string{"result"},
	)

	// BroadcastsTotal tracks transaction pipeline runs by kind and outcome
	BroadcastsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intmax_broadcasts_total",
			Help: "Total number of transaction pipeline runs",
		},
		[]string{"kind", "result"},
	)

	// BroadcastStageLatency tracks the duration of each pipeline stage
	BroadcastStageLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "intmax_broadcast_stage_seconds",
			Help:    "Transaction pipeline stage latency in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"stage"},
	)

	// DepositsTotal tracks deposits by token type and final status
	DepositsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intmax_deposits_total",
			Help: "Total number of deposits submitted",
		},
		[]string{"token_type", "status"},
	)

	// ResyncRunsTotal tracks background resync runs by outcome
	ResyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intmax_resync_runs_total",
			Help: "Total number of background resync runs",
		},
		[]string{"result"},
	)

	// LastResyncTimestamp is the unix time of the last successful resync
	LastResyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intmax_last_resync_timestamp_seconds",
			Help: "Unix time of the last successful resync",
		},
	)

	// BuildersValid tracks how many probed block builders passed the fee cap
	BuildersValid = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intmax_block_builders_valid",
			Help: "Number of block builders accepted by the last probe",
		},
	)

	// ClaimableWithdrawals tracks withdrawals waiting to be claimed
	ClaimableWithdrawals = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intmax_claimable_withdrawals",
			Help: "Number of withdrawals claimable on the liquidity contract",
		},
	)

	// CollaboratorErrorsTotal tracks failed calls per remote service
	CollaboratorErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "intmax_collaborator_errors_total",
			Help: "Total number of failed calls to remote services",
		},
		[]string{"service"},
	)

	// DBConnectionPoolUsage tracks the percentage of used connections in the pool
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "intmax_db_connection_pool_usage_percent",
			Help: "Percentage of used database connections",
		},
	)
)
