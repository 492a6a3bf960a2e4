// Package notify delivers the exhausted-crash-budget escalation: a single
// JSON POST carrying the device identifier and the captured fault detail.
package notify
