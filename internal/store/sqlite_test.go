package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/andrew-lundgren/hveto/internal/engine"
	"github.com/andrew-lundgren/hveto/internal/segments"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "results.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleRound(idx int) *engine.Round {
	return &engine.Round{
		Index:    idx,
		Livetime: 94.0,
		Winner: &engine.Winner{
			Channel:      "H1:PEM-EX_MAG",
			Threshold:    8,
			Window:       1,
			Significance: 12.5,
			Mu:           0.24,
			Coincidences: 3,
		},
		Vetoes: segments.List{
			{Start: 4, End: 6},
			{Start: 19, End: 21},
		},
		PrimaryBefore:    4,
		PrimaryRemoved:   3,
		VetoedPrimary:    []trigger.Trigger{{Time: 5, SNR: 10}, {Time: 20, SNR: 9}},
		EfficiencyPct:    75,
		DeadtimePct:      6,
		CumEfficiencyPct: 75,
		CumDeadtimePct:   6,
	}
}

func TestCreateAndFinishRun(t *testing.T) {
	s := openTemp(t)
	started := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)

	id, err := s.CreateRun("H1:GDS-CALIB_STRAIN", started)
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}
	if id == 0 {
		t.Fatal("CreateRun: got id 0")
	}

	ended := started.Add(3 * time.Minute)
	if err := s.FinishRun(id, ended, engine.ReasonBelowThreshold, 2, 80, 7.5); err != nil {
		t.Fatalf("FinishRun: %v", err)
	}

	rec, err := s.Run(id)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rec.PrimaryChannel != "H1:GDS-CALIB_STRAIN" {
		t.Errorf("PrimaryChannel: got %q", rec.PrimaryChannel)
	}
	if rec.Reason != engine.ReasonBelowThreshold {
		t.Errorf("Reason: got %q", rec.Reason)
	}
	if rec.Rounds != 2 || rec.CumEfficiencyPct != 80 || rec.CumDeadtimePct != 7.5 {
		t.Errorf("final stats: %+v", rec)
	}
}

func TestSaveRound(t *testing.T) {
	s := openTemp(t)
	id, err := s.CreateRun("H1:GDS-CALIB_STRAIN", time.Now())
	if err != nil {
		t.Fatalf("CreateRun: %v", err)
	}

	if err := s.SaveRound(id, sampleRound(1)); err != nil {
		t.Fatalf("SaveRound: %v", err)
	}

	rounds, err := s.Rounds(id)
	if err != nil {
		t.Fatalf("Rounds: %v", err)
	}
	if len(rounds) != 1 {
		t.Fatalf("got %d rounds, want 1", len(rounds))
	}
	r := rounds[0]
	if r.Channel != "H1:PEM-EX_MAG" || r.Significance != 12.5 || r.Coincidences != 3 {
		t.Errorf("round row: %+v", r)
	}
	if r.PrimaryBefore != 4 || r.PrimaryRemoved != 3 {
		t.Errorf("primary counts: %+v", r)
	}

	segs, err := s.VetoSegments(id, 1)
	if err != nil {
		t.Fatalf("VetoSegments: %v", err)
	}
	if len(segs) != 2 || segs[0] != [2]float64{4, 6} || segs[1] != [2]float64{19, 21} {
		t.Errorf("segments: %v", segs)
	}
}

func TestSaveRound_NoWinner(t *testing.T) {
	s := openTemp(t)
	id, _ := s.CreateRun("H1:X", time.Now())
	if err := s.SaveRound(id, &engine.Round{Index: 1}); err == nil {
		t.Fatal("expected error for round without winner, got nil")
	}
}

func TestSaveRound_DuplicateIndex(t *testing.T) {
	s := openTemp(t)
	id, _ := s.CreateRun("H1:X", time.Now())
	if err := s.SaveRound(id, sampleRound(1)); err != nil {
		t.Fatalf("first SaveRound: %v", err)
	}
	if err := s.SaveRound(id, sampleRound(1)); err == nil {
		t.Fatal("expected primary-key violation, got nil")
	}
}

func TestRuns_Isolated(t *testing.T) {
	s := openTemp(t)
	id1, _ := s.CreateRun("H1:X", time.Now())
	id2, _ := s.CreateRun("L1:X", time.Now())

	if err := s.SaveRound(id1, sampleRound(1)); err != nil {
		t.Fatalf("SaveRound: %v", err)
	}

	rounds, err := s.Rounds(id2)
	if err != nil {
		t.Fatalf("Rounds: %v", err)
	}
	if len(rounds) != 0 {
		t.Errorf("run %d has %d rounds, want 0", id2, len(rounds))
	}
}
