package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Fault metrics
	FaultsRecorded = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_faults_recorded_total",
			Help: "Total number of fault records written",
		},
	)

	FaultRecords = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "vigil_fault_records",
			Help: "Fault records currently present on storage (the crash budget consumed)",
		},
	)

	PurgedRecords = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_fault_records_purged_total",
			Help: "Total number of fault records deleted by age-based purge",
		},
	)

	// Connectivity metrics
	ConnectPolls = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_connect_polls_total",
			Help: "Total association status polls across all connect attempts",
		},
	)

	ConnectSessions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_connect_sessions_total",
			Help: "Total connectivity sessions by outcome",
		},
		[]string{"outcome"},
	)

	// Supervisor metrics
	Restarts = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "vigil_restarts_requested_total",
			Help: "Total hard restarts requested by the supervisor",
		},
	)

	Escalations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_escalations_total",
			Help: "Total remote escalations by outcome",
		},
		[]string{"outcome"},
	)

	SupervisorState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "vigil_supervisor_state",
			Help: "Current supervisor state (1 for the active state, 0 otherwise)",
		},
		[]string{"state"},
	)

	MaintenanceRuns = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "vigil_maintenance_runs_total",
			Help: "Total maintenance task runs by task and outcome",
		},
		[]string{"task", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(
		FaultsRecorded,
		FaultRecords,
		PurgedRecords,
		ConnectPolls,
		ConnectSessions,
		Restarts,
		Escalations,
		SupervisorState,
		MaintenanceRuns,
	)
}

// SetSupervisorState marks state as active and clears all others.
func SetSupervisorState(state string) {
	SupervisorState.Reset()
	SupervisorState.WithLabelValues(state).Set(1)
}

// Handler returns the HTTP handler serving the metrics endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Serve exposes /metrics and /health on addr. It blocks; callers run it in
// a goroutine.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.Handle("/health", HealthHandler())
	return http.ListenAndServe(addr, mux)
}
