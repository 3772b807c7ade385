package segments

import "sort"

// Span is a half-open time interval [Start, End) in GPS seconds.
type Span struct {
	Start float64
	End   float64
}

// Duration returns End - Start, or 0 for a degenerate span.
func (s Span) Duration() float64 {
	if s.End <= s.Start {
		return 0
	}
	return s.End - s.Start
}

// Contains reports whether t lies inside the half-open span.
func (s Span) Contains(t float64) bool {
	return t >= s.Start && t < s.End
}

// List is a coalesced set of spans: pairwise disjoint, non-touching, and
// sorted by start time. Build one with Coalesce or the List operations —
// a hand-assembled []Span is not guaranteed to satisfy the invariant.
type List []Span

// Coalesce returns the unique minimal disjoint ordered representation of
// spans. Overlapping and adjacent spans are merged; degenerate spans
// (End <= Start) are dropped. The input is not modified.
func Coalesce(spans []Span) List {
	if len(spans) == 0 {
		return nil
	}

	sorted := make([]Span, 0, len(spans))
	for _, s := range spans {
		if s.End > s.Start {
			sorted = append(sorted, s)
		}
	}
	if len(sorted) == 0 {
		return nil
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := List{sorted[0]}
	for _, s := range sorted[1:] {
		last := &out[len(out)-1]
		// Touching spans merge: [0,1) + [1,2) == [0,2).
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		out = append(out, s)
	}
	return out
}

// Duration returns the total length of all spans in the list.
func (l List) Duration() float64 {
	var total float64
	for _, s := range l {
		total += s.End - s.Start
	}
	return total
}

// Contains reports whether t lies inside any span. Runs in O(log n).
func (l List) Contains(t float64) bool {
	// First span whose End is beyond t; t is covered iff that span starts
	// at or before t.
	i := sort.Search(len(l), func(i int) bool { return l[i].End > t })
	return i < len(l) && l[i].Start <= t
}

// Union returns the coalesced union of l and other.
func (l List) Union(other List) List {
	merged := make([]Span, 0, len(l)+len(other))
	merged = append(merged, l...)
	merged = append(merged, other...)
	return Coalesce(merged)
}

// Intersect returns the set of points present in both l and other.
func (l List) Intersect(other List) List {
	var out List
	i, j := 0, 0
	for i < len(l) && j < len(other) {
		a, b := l[i], other[j]
		start := a.Start
		if b.Start > start {
			start = b.Start
		}
		end := a.End
		if b.End < end {
			end = b.End
		}
		if end > start {
			out = append(out, Span{Start: start, End: end})
		}
		// Advance whichever span ends first.
		if a.End < b.End {
			i++
		} else {
			j++
		}
	}
	return out
}

// Subtract returns the set of points in l that are not in other.
func (l List) Subtract(other List) List {
	var out List
	j := 0
	for _, a := range l {
		cursor := a.Start
		for j < len(other) && other[j].End <= cursor {
			j++
		}
		k := j
		for k < len(other) && other[k].Start < a.End {
			b := other[k]
			if b.Start > cursor {
				out = append(out, Span{Start: cursor, End: b.Start})
			}
			if b.End > cursor {
				cursor = b.End
			}
			k++
		}
		if cursor < a.End {
			out = append(out, Span{Start: cursor, End: a.End})
		}
	}
	return out
}

// Pad shifts every span's start earlier by before and end later by after,
// then coalesces. Negative values shrink the spans; spans shrunk to nothing
// are dropped.
func (l List) Pad(before, after float64) List {
	padded := make([]Span, 0, len(l))
	for _, s := range l {
		padded = append(padded, Span{Start: s.Start - before, End: s.End + after})
	}
	return Coalesce(padded)
}
