// Package clock abstracts the device's wall clock so supervisor components
// can be tested against synthetic time and so calendar/DST policy stays in
// an external, swappable collaborator.
package clock
