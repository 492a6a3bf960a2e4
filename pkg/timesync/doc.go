// Package timesync keeps the device clock honest against a reference
// source. The wire protocol lives behind the Syncer interface; the bundled
// implementation reads the Date header of an HTTP endpoint, since any host
// the device already talks to doubles as a coarse time reference.
//
// A failed sync is reported as an error so the caller can treat an
// untrustworthy clock as a fault. Timestamp-named fault records and the
// interval gate both depend on the clock being roughly right.
package timesync
