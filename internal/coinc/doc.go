// Package coinc counts coincidences between two ascending timestamp
// sequences: primary events that lie within a symmetric window of at least
// one auxiliary event.
//
// The counter is a single merge sweep over both sequences, O(n+m), because
// the channel-level grid search calls it once per (threshold, window) pair.
// The window boundary is inclusive on both sides: a primary event exactly
// window seconds from an auxiliary event counts as coincident.
package coinc
