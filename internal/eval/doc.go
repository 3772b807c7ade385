// Package eval runs the per-channel parameter grid search: for every
// (SNR threshold, time window) pair it filters the auxiliary triggers,
// computes the chance expectation from the filtered rate, counts
// coincidences with the primary events and scores the excess.
//
// The best-scoring pair becomes the channel's candidate winner. Ties are
// broken deterministically by keeping the first combination found, with
// thresholds iterated ascending in the outer loop and windows ascending in
// the inner loop. The full (threshold, window) → significance map is
// returned alongside the candidate for significance-drop diagnostics.
package eval
