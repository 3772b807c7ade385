// Package dispatch fans the per-channel grid search out across a bounded set
// of workers and folds the partial results back together deterministically.
//
// Channels are split into contiguous chunks of a sorted name list, each chunk
// is evaluated in isolation, and Merge reduces the per-channel results to the
// global winner: maximum significance, ties broken by ascending channel name.
// Merge is a pure function shared by the parallel and sequential paths, so
// the outcome is identical for any worker count or chunking.
//
// A channel whose evaluation fails is reported in the error map and excluded
// from the merge; it never aborts the other channels.
package dispatch
