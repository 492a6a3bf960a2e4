package gate

import "time"

// ElapsedExceeds reports whether more than interval has passed between last
// and now. The caller owns the last timestamp and must advance it itself
// after acting on a true result.
//
// A clock stepped backward by time sync makes now-last negative; that reads
// as "not elapsed yet" rather than a failure, which is the safe answer for
// throttling maintenance work.
func ElapsedExceeds(now, last time.Time, interval time.Duration) bool {
	return now.Sub(last) > interval
}
