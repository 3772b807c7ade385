package alerts

import (
	"strconv"
	"strings"

	"github.com/andrew-lundgren/hveto/internal/engine"
)

// evalCondition evaluates a rule condition string against a completed round.
//
// Supported expressions (field operator value):
//
//	significance > 50
//	efficiency_pct < 5
//	deadtime_pct > 20
//	cum_efficiency_pct > 90
//	cum_deadtime_pct > 30
//	coincidences < 3
//	livetime < 1000
//	round > 10
//
// Returns (fires bool, triggering value float64).
// Returns (false, 0) if the expression cannot be parsed or the field is unknown.
func evalCondition(cond string, r *engine.Round) (bool, float64) {
	parts := strings.Fields(cond)
	if len(parts) != 3 {
		return false, 0
	}
	field, op, rhs := parts[0], parts[1], parts[2]

	threshold, err := strconv.ParseFloat(rhs, 64)
	if err != nil {
		return false, 0
	}
	v, ok := numericField(field, r)
	if !ok {
		return false, 0
	}
	return compareFloat(v, op, threshold), v
}

// numericField maps a field name to its value in the round.
func numericField(field string, r *engine.Round) (float64, bool) {
	switch field {
	case "significance":
		if r.Winner == nil {
			return 0, false
		}
		return r.Winner.Significance, true
	case "coincidences":
		if r.Winner == nil {
			return 0, false
		}
		return float64(r.Winner.Coincidences), true
	case "efficiency_pct":
		return r.EfficiencyPct, true
	case "deadtime_pct":
		return r.DeadtimePct, true
	case "cum_efficiency_pct":
		return r.CumEfficiencyPct, true
	case "cum_deadtime_pct":
		return r.CumDeadtimePct, true
	case "livetime":
		return r.Livetime, true
	case "round":
		return float64(r.Index), true
	default:
		return 0, false
	}
}

// compareFloat applies a comparison operator to two float64 values.
func compareFloat(v float64, op string, threshold float64) bool {
	switch op {
	case ">":
		return v > threshold
	case ">=":
		return v >= threshold
	case "<":
		return v < threshold
	case "<=":
		return v <= threshold
	case "==":
		return v == threshold
	default:
		return false
	}
}
