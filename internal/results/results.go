package results

import (
	"sync"
	"time"

	"github.com/andrew-lundgren/hveto/internal/engine"
)

// Run phases, in order of occurrence.
const (
	PhaseIdle     = "idle"
	PhaseRunning  = "running"
	PhaseFinished = "finished"
	PhaseFailed   = "failed"
)

// RunStatus is a point-in-time summary of the analysis run.
type RunStatus struct {
	Phase     string    `json:"phase"`
	StartedAt time.Time `json:"started_at"`
	EndedAt   time.Time `json:"ended_at"`

	Primary  string `json:"primary"`
	Channels int    `json:"channels"`

	// RoundsDone counts completed veto rounds.
	RoundsDone int `json:"rounds_done"`

	CumEfficiencyPct float64 `json:"cum_efficiency_pct"`
	CumDeadtimePct   float64 `json:"cum_deadtime_pct"`

	// Termination is set once the run ends, failed or not.
	Termination *engine.Termination `json:"termination,omitempty"`

	// Error holds the failure message when Phase is "failed".
	Error string `json:"error,omitempty"`
}

// Store is a thread-safe holder of run progress.
type Store struct {
	mu     sync.RWMutex
	status RunStatus
	rounds []*engine.Round
	now    func() time.Time // injectable for deterministic tests
}

// New creates an empty Store in the idle phase.
func New() *Store {
	return &Store{
		status: RunStatus{Phase: PhaseIdle},
		now:    time.Now,
	}
}

// Begin marks the run as started.
func (s *Store) Begin(primary string, channels int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = RunStatus{
		Phase:     PhaseRunning,
		StartedAt: s.now(),
		Primary:   primary,
		Channels:  channels,
	}
	s.rounds = nil
}

// Publish records a completed round. Callers must not modify r afterwards.
func (s *Store) Publish(r *engine.Round) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rounds = append(s.rounds, r)
	s.status.RoundsDone = len(s.rounds)
	s.status.CumEfficiencyPct = r.CumEfficiencyPct
	s.status.CumDeadtimePct = r.CumDeadtimePct
}

// Finish marks the run as complete with the given termination.
func (s *Store) Finish(term *engine.Termination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Phase = PhaseFinished
	s.status.EndedAt = s.now()
	s.status.Termination = term
}

// Fail marks the run as failed.
func (s *Store) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Phase = PhaseFailed
	s.status.EndedAt = s.now()
	if err != nil {
		s.status.Error = err.Error()
	}
}

// Status returns a copy of the current run status.
func (s *Store) Status() RunStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Rounds returns the published rounds in order.
func (s *Store) Rounds() []*engine.Round {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*engine.Round, len(s.rounds))
	copy(out, s.rounds)
	return out
}

// Round returns the round with the given 1-based index.
func (s *Store) Round(n int) (*engine.Round, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, r := range s.rounds {
		if r.Index == n {
			return r, true
		}
	}
	return nil, false
}
