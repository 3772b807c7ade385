package engine

import (
	"context"
	"math"
	"testing"

	"github.com/andrew-lundgren/hveto/internal/segments"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

func almostEqual(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}

func channelAt(name string, times []float64, snr float64) *trigger.Channel {
	trigs := make([]trigger.Trigger, len(times))
	for i, tt := range times {
		trigs[i] = trigger.Trigger{Time: tt, SNR: snr, Discriminant: 100}
	}
	return trigger.NewChannel(name, trigger.KindFrequency, trigs)
}

func defaultOpts() Options {
	return Options{
		Thresholds:      []float64{8},
		Windows:         []float64{1.0},
		MinSignificance: 2.0,
		Workers:         2,
	}
}

// End-to-end scenario: one strongly coincident auxiliary channel vetoes
// three of four primary events in round 1, then the loop terminates.
func TestRun_EndToEnd(t *testing.T) {
	primary := channelAt("H1:GDS-CALIB", []float64{10, 20, 30, 40}, 10)
	aux := map[string]*trigger.Channel{
		"H1:AUX-A": channelAt("H1:AUX-A", []float64{10.1, 20.1, 30.1}, 20),
	}
	analysis := segments.List{{Start: 0, End: 100}}

	e, err := New(primary, aux, analysis, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}
	rounds, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(rounds) != 1 {
		t.Fatalf("applied %d rounds, want 1", len(rounds))
	}
	r := rounds[0]
	if r.Winner.Channel != "H1:AUX-A" {
		t.Errorf("winner = %q, want H1:AUX-A", r.Winner.Channel)
	}
	if r.Winner.Coincidences != 3 {
		t.Errorf("coincidences = %d, want 3", r.Winner.Coincidences)
	}
	// mu = (3/100) * 2 * 1.0 * 4
	if !almostEqual(r.Winner.Mu, 0.24, 1e-12) {
		t.Errorf("mu = %v, want 0.24", r.Winner.Mu)
	}
	if r.PrimaryRemoved != 3 {
		t.Errorf("primary removed = %d, want 3", r.PrimaryRemoved)
	}
	if !almostEqual(r.EfficiencyPct, 75, 1e-9) {
		t.Errorf("efficiency = %v%%, want 75%%", r.EfficiencyPct)
	}
	// Three disjoint 2-second veto spans out of 100 seconds.
	if !almostEqual(r.DeadtimePct, 6, 1e-9) {
		t.Errorf("deadtime = %v%%, want 6%%", r.DeadtimePct)
	}

	live := e.Primary().Live
	if len(live) != 1 || live[0].Time != 40 {
		t.Errorf("surviving primary = %v, want single event at t=40", live)
	}

	if e.State() != StateTerminated {
		t.Errorf("state = %v, want terminated", e.State())
	}
	term := e.Termination()
	if term == nil || term.Reason != ReasonBelowThreshold {
		t.Errorf("termination = %+v, want below-threshold", term)
	}
	if term.Round != 2 {
		t.Errorf("terminated entering round %d, want 2", term.Round)
	}
}

// Boundary scenario: an auxiliary event exactly one window away from a
// primary event counts as coincident.
func TestRun_InclusiveWindowBoundary(t *testing.T) {
	primary := channelAt("H1:GDS-CALIB", []float64{5}, 10)
	aux := map[string]*trigger.Channel{
		"H1:AUX-EDGE": channelAt("H1:AUX-EDGE", []float64{6.0}, 20),
	}
	analysis := segments.List{{Start: 0, End: 1000}}

	opts := defaultOpts()
	opts.MinSignificance = 1.0
	e, err := New(primary, aux, analysis, opts)
	if err != nil {
		t.Fatal(err)
	}
	rounds, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(rounds) != 1 {
		t.Fatalf("applied %d rounds, want 1", len(rounds))
	}
	if rounds[0].Winner.Coincidences != 1 {
		t.Errorf("coincidences = %d, want 1 (boundary inclusive)", rounds[0].Winner.Coincidences)
	}
	if len(e.Primary().Live) != 0 {
		t.Errorf("primary event at veto boundary should be removed, live = %v", e.Primary().Live)
	}
}

// Two channels explain disjoint clusters; the engine must pick them up in
// successive rounds with monotone statistics throughout.
func TestRun_MultiRoundMonotonicity(t *testing.T) {
	primary := channelAt("H1:GDS-CALIB",
		[]float64{10, 20, 30, 40, 500, 510}, 10)
	aux := map[string]*trigger.Channel{
		"H1:AUX-A": channelAt("H1:AUX-A", []float64{10.1, 20.1, 30.1, 40.1}, 20),
		"H1:AUX-B": channelAt("H1:AUX-B", []float64{500.1, 510.1}, 20),
	}
	analysis := segments.List{{Start: 0, End: 1000}}

	opts := defaultOpts()
	opts.MinSignificance = 3.0
	e, err := New(primary, aux, analysis, opts)
	if err != nil {
		t.Fatal(err)
	}
	rounds, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if len(rounds) != 2 {
		t.Fatalf("applied %d rounds, want 2", len(rounds))
	}
	if rounds[0].Winner.Channel != "H1:AUX-A" || rounds[1].Winner.Channel != "H1:AUX-B" {
		t.Errorf("winners = %q, %q, want AUX-A then AUX-B",
			rounds[0].Winner.Channel, rounds[1].Winner.Channel)
	}

	prevPrimary := math.MaxInt
	prevLivetime := math.Inf(1)
	prevCumEff, prevCumDead := 0.0, 0.0
	for i, r := range rounds {
		if r.Index != i+1 {
			t.Errorf("round index = %d, want %d", r.Index, i+1)
		}
		if r.PrimaryBefore > prevPrimary {
			t.Errorf("round %d: primary count grew", r.Index)
		}
		if r.Livetime > prevLivetime {
			t.Errorf("round %d: livetime grew", r.Index)
		}
		if r.CumEfficiencyPct < prevCumEff || r.CumDeadtimePct < prevCumDead {
			t.Errorf("round %d: cumulative statistics decreased", r.Index)
		}
		prevPrimary = r.PrimaryBefore - r.PrimaryRemoved
		prevLivetime = r.Livetime
		prevCumEff = r.CumEfficiencyPct
		prevCumDead = r.CumDeadtimePct
	}

	if len(e.Primary().Live) != 0 {
		t.Errorf("all primary events should be vetoed, live = %v", e.Primary().Live)
	}
}

func TestRun_RoundCap(t *testing.T) {
	primary := channelAt("H1:GDS-CALIB",
		[]float64{10, 20, 30, 40, 500, 510}, 10)
	aux := map[string]*trigger.Channel{
		"H1:AUX-A": channelAt("H1:AUX-A", []float64{10.1, 20.1, 30.1, 40.1}, 20),
		"H1:AUX-B": channelAt("H1:AUX-B", []float64{500.1, 510.1}, 20),
	}
	analysis := segments.List{{Start: 0, End: 1000}}

	opts := defaultOpts()
	opts.MinSignificance = 3.0
	opts.MaxRounds = 1
	e, err := New(primary, aux, analysis, opts)
	if err != nil {
		t.Fatal(err)
	}
	rounds, err := e.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(rounds) != 1 {
		t.Fatalf("applied %d rounds, want 1", len(rounds))
	}
	if term := e.Termination(); term == nil || term.Reason != ReasonRoundCap {
		t.Errorf("termination = %+v, want round cap", term)
	}
}

func TestRun_OnRoundHook(t *testing.T) {
	primary := channelAt("H1:GDS-CALIB", []float64{10, 20, 30, 40}, 10)
	aux := map[string]*trigger.Channel{
		"H1:AUX-A": channelAt("H1:AUX-A", []float64{10.1, 20.1, 30.1}, 20),
	}
	e, err := New(primary, aux, segments.List{{Start: 0, End: 100}}, defaultOpts())
	if err != nil {
		t.Fatal(err)
	}

	var seen []int
	e.OnRound(func(r *Round) { seen = append(seen, r.Index) })
	if _, err := e.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(seen) != 1 || seen[0] != 1 {
		t.Errorf("hook saw rounds %v, want [1]", seen)
	}
}

func TestNew_Preconditions(t *testing.T) {
	good := func() (*trigger.Channel, map[string]*trigger.Channel, segments.List, Options) {
		return channelAt("p", []float64{10}, 10),
			map[string]*trigger.Channel{"a": channelAt("a", []float64{10.1}, 20)},
			segments.List{{Start: 0, End: 100}},
			defaultOpts()
	}

	if _, err := New(nil, nil, segments.List{{Start: 0, End: 1}}, defaultOpts()); err == nil {
		t.Error("expected error for nil primary")
	}

	p, a, _, opts := good()
	if _, err := New(p, a, nil, opts); err == nil {
		t.Error("expected error for empty analysis segments")
	}

	p, a, seg, opts := good()
	opts.Thresholds = nil
	if _, err := New(p, a, seg, opts); err == nil {
		t.Error("expected error for empty thresholds")
	}

	p, a, seg, opts = good()
	opts.Windows = []float64{1, 0.5}
	if _, err := New(p, a, seg, opts); err == nil {
		t.Error("expected error for non-ascending windows")
	}

	p, a, seg, opts = good()
	opts.Windows = []float64{-1, 0.5}
	if _, err := New(p, a, seg, opts); err == nil {
		t.Error("expected error for non-positive window")
	}

	// Primary events outside the analysis segments are as bad as none.
	p = channelAt("p", []float64{5000}, 10)
	_, a, seg, opts = good()
	if _, err := New(p, a, seg, opts); err == nil {
		t.Error("expected error for primary outside analysis")
	}
}

// Identical inputs must produce identical rounds whatever the worker count.
func TestRun_WorkerCountInvariance(t *testing.T) {
	build := func(workers int) []*Round {
		primary := channelAt("H1:GDS-CALIB",
			[]float64{10, 20, 30, 40, 500, 510}, 10)
		aux := map[string]*trigger.Channel{
			"H1:AUX-A": channelAt("H1:AUX-A", []float64{10.1, 20.1, 30.1, 40.1}, 20),
			"H1:AUX-B": channelAt("H1:AUX-B", []float64{500.1, 510.1}, 20),
			"H1:AUX-C": channelAt("H1:AUX-C", []float64{700}, 20),
		}
		opts := defaultOpts()
		opts.MinSignificance = 3.0
		opts.Workers = workers
		e, err := New(primary, aux, segments.List{{Start: 0, End: 1000}}, opts)
		if err != nil {
			t.Fatal(err)
		}
		rounds, err := e.Run(context.Background())
		if err != nil {
			t.Fatal(err)
		}
		return rounds
	}

	base := build(1)
	for _, workers := range []int{2, 3, 8} {
		got := build(workers)
		if len(got) != len(base) {
			t.Fatalf("workers=%d: %d rounds, want %d", workers, len(got), len(base))
		}
		for i := range base {
			if got[i].Winner.Channel != base[i].Winner.Channel ||
				got[i].Winner.Significance != base[i].Winner.Significance ||
				got[i].PrimaryRemoved != base[i].PrimaryRemoved {
				t.Errorf("workers=%d: round %d differs from sequential run", workers, i+1)
			}
		}
	}
}
