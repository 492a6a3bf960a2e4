// Package gate provides the interval gate: a stateless predicate that
// throttles periodic maintenance work (OTA checks, log purges) by comparing
// elapsed time against a caller-supplied threshold.
package gate
