package clock

import "time"

// Clock supplies the current wall-clock time in the device's local zone.
// The system clock may be stepped backward by an external time-sync
// collaborator; callers must tolerate non-monotonic readings.
type Clock interface {
	Now() time.Time
}

// Func adapts a plain function to the Clock interface.
type Func func() time.Time

// Now returns the current time from the wrapped function.
func (f Func) Now() time.Time { return f() }

// System is a Clock backed by the host clock in its local zone.
var System Clock = Func(time.Now)

// FixedOffset returns a Clock that reports host time translated into a
// fixed UTC offset, for devices whose local zone is configured as a plain
// offset rather than a zoneinfo name.
func FixedOffset(name string, offsetSeconds int) Clock {
	zone := time.FixedZone(name, offsetSeconds)
	return Func(func() time.Time {
		return time.Now().In(zone)
	})
}
