// Package guard decides whether the supervisor should keep rebooting after
// a fault or give up and escalate. It converts an unbounded
// crash→restart→crash cycle into a bounded one by treating the persisted
// fault record count as the retry budget.
package guard
