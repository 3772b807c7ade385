package eval

import (
	"math"
	"testing"

	"github.com/andrew-lundgren/hveto/internal/stats"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

func auxTriggers(times []float64, snr float64) []trigger.Trigger {
	out := make([]trigger.Trigger, len(times))
	for i, tt := range times {
		out[i] = trigger.Trigger{Time: tt, SNR: snr}
	}
	return out
}

func TestEvaluate_FindsCoincidentChannel(t *testing.T) {
	primary := []float64{10, 20, 30, 40}
	aux := auxTriggers([]float64{10.1, 20.1, 30.1}, 20)

	res, err := Evaluate("L1:AUX-A", aux, primary, []float64{8}, []float64{1.0}, 100)
	if err != nil {
		t.Fatal(err)
	}

	if res.Best.Coincidences != 3 {
		t.Errorf("Coincidences = %d, want 3", res.Best.Coincidences)
	}
	// mu = (3/100) * 2 * 1.0 * 4 = 0.24
	if math.Abs(res.Best.Mu-0.24) > 1e-12 {
		t.Errorf("Mu = %v, want 0.24", res.Best.Mu)
	}
	if res.Best.Significance <= stats.Floor {
		t.Errorf("Significance = %v, want above floor", res.Best.Significance)
	}
	if res.Best.Threshold != 8 || res.Best.Window != 1.0 {
		t.Errorf("winner parameters = (%v, %v), want (8, 1)", res.Best.Threshold, res.Best.Window)
	}
}

func TestEvaluate_SigMapCoversFullGrid(t *testing.T) {
	primary := []float64{10, 20}
	aux := auxTriggers([]float64{10.05}, 15)
	thresholds := []float64{8, 10, 20}
	windows := []float64{0.1, 0.5}

	res, err := Evaluate("L1:AUX-A", aux, primary, thresholds, windows, 50)
	if err != nil {
		t.Fatal(err)
	}
	if len(res.SigMap) != len(thresholds)*len(windows) {
		t.Errorf("SigMap has %d entries, want %d", len(res.SigMap), len(thresholds)*len(windows))
	}
}

func TestEvaluate_TieBreakPrefersFirstGridPoint(t *testing.T) {
	// No auxiliary events at all: every grid point scores the floor, so the
	// winner must be the first point of the grid.
	primary := []float64{10, 20}
	res, err := Evaluate("L1:AUX-B", nil, primary, []float64{8, 10}, []float64{0.5, 1.0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.Best.Significance != stats.Floor {
		t.Errorf("Significance = %v, want floor", res.Best.Significance)
	}
	if res.Best.Threshold != 8 || res.Best.Window != 0.5 {
		t.Errorf("tie-break winner = (%v, %v), want (8, 0.5)", res.Best.Threshold, res.Best.Window)
	}
}

func TestEvaluate_HigherThresholdDropsQuietTriggers(t *testing.T) {
	primary := []float64{10, 20, 30}
	aux := []trigger.Trigger{
		{Time: 10.1, SNR: 9},
		{Time: 20.1, SNR: 50},
		{Time: 30.1, SNR: 50},
	}

	res, err := Evaluate("L1:AUX-C", aux, primary, []float64{40}, []float64{1.0}, 100)
	if err != nil {
		t.Fatal(err)
	}
	if res.Best.Coincidences != 2 {
		t.Errorf("Coincidences at threshold 40 = %d, want 2", res.Best.Coincidences)
	}
}

func TestEvaluate_RejectsBadInputs(t *testing.T) {
	primary := []float64{1}
	if _, err := Evaluate("x", nil, primary, []float64{8}, []float64{1}, 0); err == nil {
		t.Error("expected error for zero livetime")
	}
	if _, err := Evaluate("x", nil, primary, nil, []float64{1}, 10); err == nil {
		t.Error("expected error for empty thresholds")
	}
	if _, err := Evaluate("x", nil, primary, []float64{8}, nil, 10); err == nil {
		t.Error("expected error for empty windows")
	}
}
