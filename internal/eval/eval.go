package eval

import (
	"fmt"

	"github.com/andrew-lundgren/hveto/internal/coinc"
	"github.com/andrew-lundgren/hveto/internal/stats"
	"github.com/andrew-lundgren/hveto/internal/trigger"
)

// Param is one point of the search grid.
type Param struct {
	Threshold float64 // minimum auxiliary SNR, inclusive
	Window    float64 // symmetric coincidence window, seconds
}

// Candidate is the best-scoring grid point for one channel.
type Candidate struct {
	Channel      string
	Threshold    float64
	Window       float64
	Significance float64
	Mu           float64 // expected chance coincidences
	Coincidences int     // observed coincidences
}

// Result is the outcome of evaluating one auxiliary channel.
type Result struct {
	Channel string
	Best    Candidate

	// SigMap holds the significance of every grid point, for the
	// significance-drop diagnostic between rounds.
	SigMap map[Param]float64
}

// Evaluate grid-searches one auxiliary channel against the primary events.
//
// primaryTimes must be ascending and already restricted to the round's
// analysis segments; aux must be sorted by time. livetime is the duration
// of the analysis segments in force, used to convert the filtered trigger
// count into a rate: mu = rate × 2·window × len(primary).
func Evaluate(channel string, aux []trigger.Trigger, primaryTimes []float64, thresholds, windows []float64, livetime float64) (*Result, error) {
	if livetime <= 0 {
		return nil, fmt.Errorf("eval %q: non-positive livetime %v", channel, livetime)
	}
	if len(thresholds) == 0 || len(windows) == 0 {
		return nil, fmt.Errorf("eval %q: empty parameter grid", channel)
	}

	res := &Result{
		Channel: channel,
		SigMap:  make(map[Param]float64, len(thresholds)*len(windows)),
	}

	first := true
	for _, thr := range thresholds {
		filtered := trigger.AboveSNR(aux, thr)
		auxTimes := trigger.Times(filtered)
		rate := float64(len(filtered)) / livetime

		for _, w := range windows {
			mu := rate * 2 * w * float64(len(primaryTimes))
			k := coinc.Count(primaryTimes, auxTimes, w)
			sig := stats.Significance(k, mu)

			res.SigMap[Param{Threshold: thr, Window: w}] = sig

			// Strictly-greater comparison keeps the first grid point on
			// ties: thresholds ascending outer, windows ascending inner.
			if first || sig > res.Best.Significance {
				first = false
				res.Best = Candidate{
					Channel:      channel,
					Threshold:    thr,
					Window:       w,
					Significance: sig,
					Mu:           mu,
					Coincidences: k,
				}
			}
		}
	}
	return res, nil
}
