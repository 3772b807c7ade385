// Package segments implements interval arithmetic over half-open time spans.
//
// A Span is [Start, End) in GPS seconds. A List is the canonical
// representation of a set of spans: coalesced, disjoint, and ordered by
// start time. Every constructor and operation returns a coalesced List, so
// downstream code can rely on the invariant without re-checking it.
//
// All operations are pure and total — empty input yields empty output, and
// there are no error conditions.
package segments
