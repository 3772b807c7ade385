package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/andrew-lundgren/hveto/internal/dispatch"
	"github.com/andrew-lundgren/hveto/internal/eval"
	"github.com/andrew-lundgren/hveto/internal/segments"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// DefaultMaxRounds is the round-cap safety valve applied when Options leaves
// MaxRounds unset. Well-behaved analyses finish in far fewer rounds.
const DefaultMaxRounds = 100

// Options configures one veto run.
type Options struct {
	// Thresholds is the ascending list of SNR cuts to try per channel.
	Thresholds []float64

	// Windows is the ascending list of symmetric coincidence windows
	// (seconds) to try per channel.
	Windows []float64

	// MinSignificance is the stopping threshold: the loop ends when no
	// channel scores at or above it.
	MinSignificance float64

	// MaxRounds caps the number of veto rounds. Zero or negative selects
	// DefaultMaxRounds.
	MaxRounds int

	// Workers is the parallelism hint for channel evaluation. Zero or
	// negative means sequential.
	Workers int
}

// Winner is the auxiliary channel and parameter pair selected in one round.
type Winner struct {
	Channel      string
	Threshold    float64
	Window       float64
	Significance float64
	Mu           float64
	Coincidences int

	// Events are the winning channel's triggers at or above Threshold that
	// the round's veto segments were built from.
	Events []trigger.Trigger

	// SigMap is the winning channel's full grid significance map.
	SigMap map[eval.Param]float64
}

// Round is one finalized iteration of the veto loop.
type Round struct {
	Index    int
	Analysis segments.List // segments in force during this round
	Livetime float64       // duration of Analysis, seconds
	Winner   *Winner
	Vetoes   segments.List // veto segments applied by this round

	PrimaryBefore  int
	PrimaryRemoved int
	VetoedPrimary  []trigger.Trigger

	EfficiencyPct    float64
	DeadtimePct      float64
	CumEfficiencyPct float64
	CumDeadtimePct   float64

	// ChannelSignificance maps every evaluated channel to its best score
	// this round, for the significance-drop diagnostic.
	ChannelSignificance map[string]float64
}

// Engine owns the live trigger sets and executes rounds until termination.
// It is not safe for concurrent use; all mutation happens on the goroutine
// that calls Run.
type Engine struct {
	primary       *trigger.Channel
	aux           map[string]*trigger.Channel
	initial       segments.List
	totalLivetime float64
	opts          Options

	state   State
	rounds  []*Round
	failed  map[string]error
	term    *Termination
	onRound func(*Round)
}

// New validates the run preconditions and builds an Engine. The live sets of
// primary and every auxiliary channel are restricted to the analysis
// segments up front; Original sets are left untouched.
func New(primary *trigger.Channel, aux map[string]*trigger.Channel, analysis segments.List, opts Options) (*Engine, error) {
	if primary == nil {
		return nil, fmt.Errorf("engine: nil primary channel")
	}
	totalLivetime := analysis.Duration()
	if totalLivetime <= 0 {
		return nil, fmt.Errorf("engine: non-positive analysis livetime")
	}
	if err := validateGrid("thresholds", opts.Thresholds); err != nil {
		return nil, err
	}
	if err := validateGrid("windows", opts.Windows); err != nil {
		return nil, err
	}
	for _, w := range opts.Windows {
		if w <= 0 {
			return nil, fmt.Errorf("engine: non-positive window %v", w)
		}
	}

	primary.Live = trigger.Within(primary.Live, analysis)
	if len(primary.Live) == 0 {
		return nil, fmt.Errorf("engine: no primary events inside analysis segments")
	}
	for _, ch := range aux {
		ch.Live = trigger.Within(ch.Live, analysis)
	}

	return &Engine{
		primary:       primary,
		aux:           aux,
		initial:       analysis,
		totalLivetime: totalLivetime,
		opts:          opts,
		state:         StateAwaitingEvaluation,
		failed:        make(map[string]error),
	}, nil
}

// validateGrid checks that values is non-empty and strictly ascending.
func validateGrid(name string, values []float64) error {
	if len(values) == 0 {
		return fmt.Errorf("engine: empty %s list", name)
	}
	for i := 1; i < len(values); i++ {
		if values[i] <= values[i-1] {
			return fmt.Errorf("engine: %s not strictly ascending at index %d", name, i)
		}
	}
	return nil
}

// OnRound registers a hook invoked with each round as soon as it is
// finalized — after veto application, before the next round starts.
func (e *Engine) OnRound(fn func(*Round)) {
	e.onRound = fn
}

// Run executes rounds until a stopping condition and returns the finalized
// rounds. Normal termination (no significant channel left) is not an error;
// the only error return is context cancellation.
func (e *Engine) Run(ctx context.Context) ([]*Round, error) {
	maxRounds := e.opts.MaxRounds
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}

	analysis := e.initial
	var prev *Round

	for idx := 1; ; idx++ {
		if idx > maxRounds {
			e.terminate(&Termination{Reason: ReasonRoundCap, Round: idx})
			break
		}

		e.state = StateAwaitingEvaluation
		livetime := analysis.Duration()
		if livetime <= 0 {
			e.terminate(&Termination{Reason: ReasonNoLivetime, Round: idx})
			break
		}
		if len(e.primary.Live) == 0 {
			e.terminate(&Termination{Reason: ReasonNoPrimary, Round: idx})
			break
		}
		names := e.activeChannels()
		if len(names) == 0 {
			e.terminate(&Termination{Reason: ReasonNoChannels, Round: idx})
			break
		}

		primaryTimes := trigger.Times(e.primary.Live)
		results, errs, err := dispatch.Run(ctx, names, e.opts.Workers, func(name string) (*eval.Result, error) {
			return eval.Evaluate(name, e.aux[name].Live, primaryTimes,
				e.opts.Thresholds, e.opts.Windows, livetime)
		})
		if err != nil {
			return e.rounds, fmt.Errorf("engine: round %d evaluation: %w", idx, err)
		}
		for name, cerr := range errs {
			e.failed[name] = cerr
			slog.Warn("engine: excluding channel after evaluation failure",
				"channel", name, "round", idx, "err", cerr)
		}

		e.state = StateEvaluated
		cand, chanSigs := dispatch.Merge(results)
		if cand == nil {
			e.terminate(&Termination{Reason: ReasonNoChannels, Round: idx})
			break
		}
		if cand.Significance < e.opts.MinSignificance {
			e.terminate(&Termination{
				Reason:       ReasonBelowThreshold,
				Round:        idx,
				Channel:      cand.Channel,
				Significance: cand.Significance,
			})
			break
		}

		round := e.applyRound(idx, analysis, livetime, cand, results[cand.Channel], chanSigs, prev)
		e.rounds = append(e.rounds, round)
		if e.onRound != nil {
			e.onRound(round)
		}
		slog.Info("engine: round complete",
			"round", round.Index,
			"winner", round.Winner.Channel,
			"significance", round.Winner.Significance,
			"snr", round.Winner.Threshold,
			"window", round.Winner.Window,
			"vetoed", round.PrimaryRemoved,
			"efficiency_pct", round.EfficiencyPct,
			"deadtime_pct", round.DeadtimePct,
		)

		prev = round
		analysis = analysis.Subtract(round.Vetoes)
	}

	return e.rounds, nil
}

// applyRound builds the veto segments for the winning candidate, removes the
// covered events from every channel, and finalizes the round record.
func (e *Engine) applyRound(idx int, analysis segments.List, livetime float64, cand *eval.Candidate, res *eval.Result, chanSigs map[string]float64, prev *Round) *Round {
	winCh := e.aux[cand.Channel]
	events := trigger.AboveSNR(winCh.Live, cand.Threshold)

	spans := make([]segments.Span, 0, len(events))
	for _, ev := range events {
		spans = append(spans, segments.Span{
			Start: ev.Time - cand.Window,
			End:   ev.Time + cand.Window,
		})
	}
	vetoes := segments.Coalesce(spans).Intersect(analysis)

	before := len(e.primary.Live)
	removed, kept := trigger.Partition(e.primary.Live, vetoes)
	e.primary.Live = kept
	for _, ch := range e.aux {
		_, outside := trigger.Partition(ch.Live, vetoes)
		ch.Live = outside
	}
	e.state = StateVetoesApplied

	effPct := float64(len(removed)) / float64(before) * 100
	deadPct := vetoes.Duration() / e.totalLivetime * 100
	cumEff, cumDead := effPct, deadPct
	if prev != nil {
		cumEff += prev.CumEfficiencyPct
		cumDead += prev.CumDeadtimePct
	}

	return &Round{
		Index:    idx,
		Analysis: analysis,
		Livetime: livetime,
		Winner: &Winner{
			Channel:      cand.Channel,
			Threshold:    cand.Threshold,
			Window:       cand.Window,
			Significance: cand.Significance,
			Mu:           cand.Mu,
			Coincidences: cand.Coincidences,
			Events:       events,
			SigMap:       res.SigMap,
		},
		Vetoes:              vetoes,
		PrimaryBefore:       before,
		PrimaryRemoved:      len(removed),
		VetoedPrimary:       removed,
		EfficiencyPct:       effPct,
		DeadtimePct:         deadPct,
		CumEfficiencyPct:    cumEff,
		CumDeadtimePct:      cumDead,
		ChannelSignificance: chanSigs,
	}
}

// activeChannels returns the sorted names of auxiliary channels that have
// not been excluded by an evaluation failure.
func (e *Engine) activeChannels() []string {
	names := make([]string, 0, len(e.aux))
	for name := range e.aux {
		if _, bad := e.failed[name]; bad {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (e *Engine) terminate(t *Termination) {
	e.term = t
	e.state = StateTerminated
	slog.Info("engine: terminated",
		"reason", t.Reason,
		"round", t.Round,
		"channel", t.Channel,
		"significance", t.Significance,
		"rounds_applied", len(e.rounds),
	)
}

// Rounds returns the finalized rounds in order.
func (e *Engine) Rounds() []*Round { return e.rounds }

// State returns the engine's current state.
func (e *Engine) State() State { return e.state }

// Termination describes why the loop stopped; nil until Run finishes.
func (e *Engine) Termination() *Termination { return e.term }

// Primary returns the primary channel, whose Live set holds the surviving
// (most-vetoed) events after Run.
func (e *Engine) Primary() *trigger.Channel { return e.primary }

// FailedChannels returns the channels excluded after evaluation failures.
func (e *Engine) FailedChannels() map[string]error {
	out := make(map[string]error, len(e.failed))
	for name, err := range e.failed {
		out[name] = err
	}
	return out
}

// AllVetoes returns the union of every round's veto segments.
func (e *Engine) AllVetoes() segments.List {
	var all segments.List
	for _, r := range e.rounds {
		all = all.Union(r.Vetoes)
	}
	return all
}

// MergedSegments returns the analysis segments united with every round's
// vetoes, for external persistence.
func (e *Engine) MergedSegments() segments.List {
	return e.initial.Union(e.AllVetoes())
}

// TotalLivetime returns the duration of the initial analysis segments.
func (e *Engine) TotalLivetime() float64 { return e.totalLivetime }
