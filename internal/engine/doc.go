// Package engine drives the round-based hierarchical veto loop.
//
// Each round evaluates every live auxiliary channel against the live primary
// events (in parallel, with a deterministic merge), selects the globally
// most significant channel, builds veto segments around its loud triggers,
// removes the covered events from every channel, and shrinks the analysis
// segments before the next round. The loop ends when the best achievable
// significance falls below the configured stopping threshold, when the data
// runs out, or when the round-cap safety valve trips.
//
// Rounds are strictly sequential. During a round's evaluation phase the live
// trigger sets are read-only; only the engine mutates them, in the veto
// application phase, so no locking is required beyond that phase separation.
//
// Cumulative statistics are threaded through an explicit previous-round
// value rather than any package-level state, and the engine retains every
// finalized Round for reporting.
package engine
