/*
Package state provides BoltDB-backed persistence for supervisor metadata.

The store holds two buckets:

	timers    task name -> last-run timestamp (JSON)
	counters  "boots"   -> boot count

Timer values feed the interval gate so maintenance throttling (OTA checks,
purges) survives restarts; the boot counter is purely diagnostic. Fault
records are not stored here: their file-per-record layout is an external
contract consumed by operator tooling.
*/
package state
