// SPDX-License-Identifier: MIT
/*
Package graph constructs and manages the live signal path: capture
device -> stream processor -> result sink. One Graph corresponds to
one capture session and walks a strict lifecycle:

	Uninitialized -> Ready -> Running <-> Suspended -> TornDown

Frames reach the processor only while Running, and TornDown is
terminal. All lifecycle transitions happen in the controlling context,
serialized by the graph's own mutex.
*/
package graph

import "errors"

// State is the graph lifecycle state.
type State int32

const (
	Uninitialized State = iota
	Ready
	Running
	Suspended
	TornDown
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Uninitialized:
		return "Uninitialized"
	case Ready:
		return "Ready"
	case Running:
		return "Running"
	case Suspended:
		return "Suspended"
	case TornDown:
		return "TornDown"
	default:
		return "Unknown"
	}
}

var (
	// ErrDeviceUnavailable marks a capture device or permission
	// failure. Fatal to graph construction; not retried.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrInvalidState marks an illegal lifecycle transition, e.g.
	// starting a torn-down graph. A programming error, not retried.
	ErrInvalidState = errors.New("invalid graph state")
)
