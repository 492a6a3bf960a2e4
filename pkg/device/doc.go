// Package device wraps the hard-restart primitive. A restart terminates the
// process entirely; it is the supervisor's concurrency boundary and its
// default answer to any recoverable fault.
package device
