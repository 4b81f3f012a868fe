// Package backend defines the acquisition backend capability: the component
// that actually retrieves pack artifacts and reports progress and readiness.
// The controller only ever talks to the Backend interface, so acquisition
// transports (plain HTTP, platform resource pools, test fakes) are
// interchangeable.
package backend

// Progress is a snapshot of acquisition progress in bytes.
type Progress struct {
	Completed int64
	Total     int64 // 0 = unknown
}

// Fraction returns Completed/Total clamped to [0,1]. An unknown total
// yields 0.
func (p Progress) Fraction() float64 {
	if p.Total <= 0 {
		return 0
	}
	f := float64(p.Completed) / float64(p.Total)
	if f < 0 {
		return 0
	}
	if f > 1 {
		return 1
	}
	return f
}

// ProgressEvent is pushed whenever acquisition advances. Consumers only need
// the latest snapshot; intermediate events may be coalesced or dropped.
type ProgressEvent struct {
	Progress Progress
}

// ReadyEvent is pushed at most once per acquisition, when every source has
// been fetched into the install root.
type ReadyEvent struct {
	InstallRoot string
}

// FailedEvent is pushed when acquisition fails. Reason is surfaced verbatim.
type FailedEvent struct {
	Reason string
}

// Backend performs asset retrieval for one pack family.
//
// BeginAcquisition is idempotent while an acquisition is in flight. Events
// delivers push notifications in order on a single channel; after a
// ReadyEvent or FailedEvent no further events follow until a new acquisition
// begins. ReleaseLease must tolerate being called when no lease is held.
type Backend interface {
	// CheckLocalUsable reports whether usable artifacts already exist
	// locally. Failures during the check count as "not present".
	CheckLocalUsable() bool

	// BeginAcquisition starts (or resumes) retrieval with the given hints,
	// both in [0,1].
	BeginAcquisition(priority, preserve float64) error

	// Progress returns the current snapshot (pollable).
	Progress() Progress

	// Events returns the push notification channel for the current
	// acquisition.
	Events() <-chan any

	// InstallRoot returns the directory holding acquired, not-yet-validated
	// artifacts.
	InstallRoot() (string, error)

	// ReleaseLease releases the acquisition reservation.
	ReleaseLease() error

	// Cancel aborts an in-flight acquisition and discards partial state
	// (subject to the preserve hint).
	Cancel()
}
