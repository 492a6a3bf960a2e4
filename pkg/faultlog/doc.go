/*
Package faultlog persists one plain-text record per intercepted fault on the
device's storage volume.

The record count doubles as the crash counter consumed by the crash-loop
guard: in-memory counters do not survive the very restarts the guard is
meant to bound, so durable storage is the retry budget. Records are named
from the local capture time with a fixed suffix:

	<year>-<month>-<day>-<hour>-<minute>-<second>-traceback.log

Count and Purge match records purely by that suffix. Records are never
mutated after the initial write; they leave the volume only through the
age-based purge or the operator's clear command.

Age for purging is true elapsed hours since the record's mtime. The
original firmware wrapped the age at 24 hours by computing it modulo one
day, which made a 50-hour-old record look 2 hours old and pinned stale
records past their retention window; that wrap is not reproduced here.
*/
package faultlog
