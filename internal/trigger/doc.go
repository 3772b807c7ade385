// Package trigger defines the event data model shared by the veto engine:
// timestamped detection events with a signal-to-noise ratio and one
// discriminant value, grouped into named channels.
//
// A Channel keeps two trigger sets: Original, frozen at load time for
// before/after accounting, and Live, which shrinks monotonically as veto
// rounds remove events. Trigger slices are kept sorted by time so the
// coincidence counter can sweep them in a single pass.
package trigger
