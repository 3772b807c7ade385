// Package stats provides the Poisson significance estimator used to score
// coincidence counts against their chance expectation.
//
// The score is −log10 of the upper-tail probability of observing at least k
// coincidences under a Poisson distribution with mean mu, floored at zero
// whenever the observed count does not exceed the expectation. Higher scores
// mean a stronger excess over chance.
package stats
