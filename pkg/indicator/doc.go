// Package indicator models the device's single on-board signal output,
// used for connectivity status and the degraded-signal state.
package indicator
