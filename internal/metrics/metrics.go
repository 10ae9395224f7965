package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SyncRunsTotal counts finished sync runs by type and terminal status
	SyncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_sync_runs_total",
			Help: "Total number of sync runs",
		},
		[]string{"sync_type", "status"},
	)

	// SyncRunDuration tracks how long a sync run takes end to end
	SyncRunDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_sync_run_duration_seconds",
			Help:    "Sync run duration in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600, 1800},
		},
		[]string{"sync_type"},
	)

	// SyncRecordsTotal counts per-record outcomes (created, updated, unchanged, failed)
	SyncRecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_sync_records_total",
			Help: "Total number of records processed by sync runs",
		},
		[]string{"sync_type", "action"},
	)

	// SyncInProgress is 1 while a run of the given type holds the sync lock
	SyncInProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_sync_in_progress",
			Help: "Whether a sync run is currently executing",
		},
		[]string{"sync_type"},
	)

	// GroupsGrantedTotal counts local group memberships added by mapping rules
	GroupsGrantedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "bridge_groups_granted_total",
			Help: "Total number of group memberships granted by mappings",
		},
	)

	// WHMCSRequestsTotal counts remote API calls by action and outcome
	WHMCSRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_whmcs_requests_total",
			Help: "Total number of WHMCS API requests",
		},
		[]string{"action", "outcome"},
	)

	// WHMCSRequestDuration tracks remote API latency
	WHMCSRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bridge_whmcs_request_duration_seconds",
			Help:    "WHMCS API request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)

	// CircuitBreakerState is 0 closed, 1 half-open, 2 open
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "bridge_circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)

	// CircuitBreakerTransitions counts breaker state changes
	CircuitBreakerTransitions = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_circuit_breaker_transitions_total",
			Help: "Total number of circuit breaker state transitions",
		},
		[]string{"name", "from", "to"},
	)

	// LoginsTotal counts login-time authentications by outcome
	LoginsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bridge_logins_total",
			Help: "Total number of remote-validated logins",
		},
		[]string{"outcome"},
	)
)
