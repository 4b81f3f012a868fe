// Package events defines the messages the provisioning flow pushes to its
// consumers (TUI and headless printers).
package events

import "time"

// AcquireStartedMsg is sent when the backend actually begins fetching
// (after the local check decided the pack is not yet usable).
type AcquireStartedMsg struct {
	SessionID string
	Family    string
	Total     int64 // 0 = unknown
}

// ProgressMsg carries the latest acquisition progress snapshot. Consumers
// render the newest value only; intermediate snapshots may be dropped.
type ProgressMsg struct {
	SessionID string
	Family    string
	Completed int64
	Total     int64
	Fraction  float64 // clamped to [0,1]
}

// ValidatingMsg is sent when acquisition finished and the install root is
// being inspected and copied into durable storage.
type ValidatingMsg struct {
	SessionID string
	Family    string
}

// PackReadyMsg signals that the pack is installed and usable. Sent exactly
// once per session.
type PackReadyMsg struct {
	SessionID   string
	Family      string
	InstallRoot string
	Elapsed     time.Duration
}

// PackErrorMsg signals that the current attempt failed. The reason is shown
// to the user verbatim; the caller may retry.
type PackErrorMsg struct {
	SessionID string
	Family    string
	Reason    string
}

// PackCancelledMsg signals that the user cancelled the flow.
type PackCancelledMsg struct {
	SessionID string
	Family    string
}
