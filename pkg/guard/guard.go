package guard

import "fmt"

// DefaultMaxResets is the crash budget: how many fault-triggered restarts
// are tolerated before the supervisor stops rebooting and escalates.
const DefaultMaxResets = 3

// Counter reports how many fault records are on durable storage. The fault
// log store satisfies this.
type Counter interface {
	Count() (int, error)
}

// ShouldGiveUp reports whether the crash budget is exhausted: true iff the
// persisted fault count exceeds maxResets. The verdict is derived solely
// from durable storage; an in-process counter would reset on every restart
// and the bounded-reboot safety property would be lost.
func ShouldGiveUp(c Counter, maxResets int) (bool, error) {
	if maxResets <= 0 {
		maxResets = DefaultMaxResets
	}
	n, err := c.Count()
	if err != nil {
		return false, fmt.Errorf("count fault records: %w", err)
	}
	return n > maxResets, nil
}
