package segments

import (
	"math"
	"testing"
)

// almostEqual reports whether two floats agree within tol.
func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

// equalLists compares two lists span by span.
func equalLists(a, b List) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestCoalesce_MergesOverlappingAndAdjacent(t *testing.T) {
	in := []Span{{5, 7}, {0, 2}, {2, 3}, {6, 9}, {12, 13}}
	want := List{{0, 3}, {5, 9}, {12, 13}}
	got := Coalesce(in)
	if !equalLists(got, want) {
		t.Errorf("Coalesce = %v, want %v", got, want)
	}
}

func TestCoalesce_Idempotent(t *testing.T) {
	in := []Span{{3, 4}, {1, 2}, {3.5, 6}, {8, 8}}
	once := Coalesce(in)
	twice := Coalesce(once)
	if !equalLists(once, twice) {
		t.Errorf("Coalesce not idempotent: %v vs %v", once, twice)
	}
}

func TestCoalesce_DropsDegenerateSpans(t *testing.T) {
	got := Coalesce([]Span{{2, 2}, {5, 4}})
	if len(got) != 0 {
		t.Errorf("Coalesce of degenerate spans = %v, want empty", got)
	}
}

func TestCoalesce_ResultIsSortedAndDisjoint(t *testing.T) {
	got := Coalesce([]Span{{9, 11}, {0, 1}, {4, 6}, {5, 5.5}, {1.5, 2}})
	for i := 1; i < len(got); i++ {
		if got[i].Start <= got[i-1].End {
			t.Errorf("spans %v and %v overlap or touch", got[i-1], got[i])
		}
	}
}

func TestCoalesce_EmptyInput(t *testing.T) {
	if got := Coalesce(nil); len(got) != 0 {
		t.Errorf("Coalesce(nil) = %v, want empty", got)
	}
}

func TestDuration(t *testing.T) {
	l := List{{0, 1}, {2, 4.5}}
	if got := l.Duration(); !almostEqual(got, 3.5, 1e-12) {
		t.Errorf("Duration = %v, want 3.5", got)
	}
	if got := (List{}).Duration(); got != 0 {
		t.Errorf("empty Duration = %v, want 0", got)
	}
}

func TestContains_HalfOpenBoundaries(t *testing.T) {
	l := List{{0, 1}, {5, 10}}
	cases := []struct {
		t    float64
		want bool
	}{
		{0, true},    // closed at start
		{0.5, true},
		{1, false},   // open at end
		{4.999, false},
		{5, true},
		{9.999999, true},
		{10, false},
	}
	for _, c := range cases {
		if got := l.Contains(c.t); got != c.want {
			t.Errorf("Contains(%v) = %v, want %v", c.t, got, c.want)
		}
	}
}

func TestIntersect(t *testing.T) {
	a := List{{0, 10}, {20, 30}}
	b := List{{5, 25}, {28, 40}}
	want := List{{5, 10}, {20, 25}, {28, 30}}
	if got := a.Intersect(b); !equalLists(got, want) {
		t.Errorf("Intersect = %v, want %v", got, want)
	}
}

func TestSubtract(t *testing.T) {
	a := List{{0, 10}}
	b := List{{2, 3}, {5, 7}}
	want := List{{0, 2}, {3, 5}, {7, 10}}
	if got := a.Subtract(b); !equalLists(got, want) {
		t.Errorf("Subtract = %v, want %v", got, want)
	}
}

func TestSubtract_RemovesEverything(t *testing.T) {
	a := List{{1, 2}, {3, 4}}
	b := List{{0, 10}}
	if got := a.Subtract(b); len(got) != 0 {
		t.Errorf("Subtract = %v, want empty", got)
	}
}

// duration(A\B) + duration(A∩B) == duration(A) for arbitrary lists.
func TestSubtractIntersectPartitionProperty(t *testing.T) {
	cases := []struct {
		a, b List
	}{
		{List{{0, 10}}, List{{2, 3}, {5, 7}}},
		{List{{0, 5}, {6, 9}, {100, 200}}, List{{4, 7}, {150, 160}, {190, 300}}},
		{List{{0, 1}}, nil},
		{nil, List{{0, 1}}},
	}
	for _, c := range cases {
		sub := c.a.Subtract(c.b).Duration()
		inter := c.a.Intersect(c.b).Duration()
		if !almostEqual(sub+inter, c.a.Duration(), 1e-9) {
			t.Errorf("partition violated for A=%v B=%v: %v + %v != %v",
				c.a, c.b, sub, inter, c.a.Duration())
		}
	}
}

func TestUnion(t *testing.T) {
	a := List{{0, 2}, {10, 12}}
	b := List{{1, 3}, {12, 14}}
	want := List{{0, 3}, {10, 14}}
	if got := a.Union(b); !equalLists(got, want) {
		t.Errorf("Union = %v, want %v", got, want)
	}
}

func TestPad_ExpandsAndMerges(t *testing.T) {
	l := List{{2, 3}, {4, 5}}
	// Padding by 0.5 either side makes the spans touch at 3.5 → one span.
	want := List{{1.5, 5.5}}
	if got := l.Pad(0.5, 0.5); !equalLists(got, want) {
		t.Errorf("Pad = %v, want %v", got, want)
	}
}

func TestPad_NegativeShrinksToNothing(t *testing.T) {
	l := List{{0, 1}}
	if got := l.Pad(-1, -1); len(got) != 0 {
		t.Errorf("Pad = %v, want empty", got)
	}
}
