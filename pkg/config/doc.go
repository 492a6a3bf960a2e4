// Package config loads the daemon's yaml configuration with defaults for
// every tunable: retry bounds, the crash budget, record retention, the
// degraded-signal shape, and maintenance intervals.
package config
