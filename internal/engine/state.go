package engine

import "fmt"

// State is the engine's position in the round state machine.
type State int

const (
	// StateAwaitingEvaluation means a round has started and channel
	// evaluation has not completed yet.
	StateAwaitingEvaluation State = iota

	// StateEvaluated means all channels have been scored and a global
	// winner selected, but vetoes are not applied yet.
	StateEvaluated

	// StateVetoesApplied means the round's vetoes have been applied to all
	// live trigger sets; the engine either starts the next round or stops.
	StateVetoesApplied

	// StateTerminated means the run is finished. This is the normal end
	// state, not a failure.
	StateTerminated
)

// String returns the state's name.
func (s State) String() string {
	switch s {
	case StateAwaitingEvaluation:
		return "awaiting-evaluation"
	case StateEvaluated:
		return "evaluated"
	case StateVetoesApplied:
		return "vetoes-applied"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Stop reasons reported in Termination.
const (
	ReasonBelowThreshold = "winner significance below stopping threshold"
	ReasonRoundCap       = "maximum round count reached"
	ReasonNoLivetime     = "no analysis livetime remaining"
	ReasonNoPrimary      = "no primary events remaining"
	ReasonNoChannels     = "no auxiliary channels remaining"
)

// Termination describes why and where the round loop stopped.
type Termination struct {
	Reason string

	// Round is the index of the round that was being entered when the loop
	// stopped; it is one past the last applied round.
	Round int

	// Channel and Significance identify the best candidate of the final
	// evaluation when Reason is ReasonBelowThreshold; empty otherwise.
	Channel      string
	Significance float64
}
