// Package metrics exposes Prometheus collectors for the supervisor: fault
// records written and purged, connectivity polls and session outcomes,
// restarts, escalations, and the current supervisor state. Metrics are
// optional; the run command only serves them when an address is configured.
package metrics
