package stats

import (
	"math"

	"gonum.org/v1/gonum/mathext"
)

const (
	// Floor is the significance assigned when the observed count does not
	// exceed the chance expectation. It marks "not significant".
	Floor = 0.0

	// Ceiling caps the score when the tail probability is effectively zero,
	// keeping round records and their JSON encodings finite.
	Ceiling = 1e6
)

// Significance returns −log10 of the Poisson upper-tail probability
// P(X >= k) for mean mu.
//
// Returns Floor when k <= mu (including k == 0, mu == 0). Returns Ceiling
// when mu == 0 with k > 0 — an observed excess that chance cannot produce
// at all. The result is monotonically increasing in k for fixed mu and
// monotonically decreasing in mu for fixed k.
func Significance(k int, mu float64) float64 {
	if k <= 0 || float64(k) <= mu {
		return Floor
	}
	if mu <= 0 {
		return Ceiling
	}

	// P(X >= k) equals the lower regularized incomplete gamma P(k, mu).
	p := mathext.GammaIncReg(float64(k), mu)
	if p > 0 {
		return -math.Log10(p)
	}

	// The tail probability underflowed. Fall back to the log of the leading
	// term of the series, k^th Poisson weight, which dominates far out in
	// the tail: log P ≈ k·ln(mu) − mu − ln(k!).
	kf := float64(k)
	lgamma, _ := math.Lgamma(kf + 1)
	logP := kf*math.Log(mu) - mu - lgamma
	sig := -logP / math.Ln10
	if sig > Ceiling {
		return Ceiling
	}
	return sig
}
