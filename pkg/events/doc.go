// Package events provides a small pub/sub broker for supervisor events:
// fault captures, connectivity transitions, restarts, escalations, and
// supervisor state changes. The run command subscribes and mirrors events
// to the structured log; other consumers may attach without coupling the
// core components to them.
package events
