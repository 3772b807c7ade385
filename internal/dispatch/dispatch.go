package dispatch

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/andrew-lundgren/hveto/internal/eval"
)

// EvalFunc evaluates one auxiliary channel by name.
type EvalFunc func(name string) (*eval.Result, error)

// chunkOutcome holds one chunk's partial results. Each chunk writes only to
// its own outcome, so no locking is needed during the fan-out.
type chunkOutcome struct {
	results []*eval.Result
	errs    map[string]error
}

// Run evaluates every named channel using at most workers concurrent
// goroutines and returns the per-channel results plus a map of per-channel
// evaluation errors. A failing channel is recorded in the error map and
// omitted from the results; it does not affect the other channels.
//
// The only non-nil error return is context cancellation.
func Run(ctx context.Context, names []string, workers int, fn EvalFunc) (map[string]*eval.Result, map[string]error, error) {
	sorted := make([]string, len(names))
	copy(sorted, names)
	sort.Strings(sorted)

	chunks := Chunks(sorted, workers)
	outcomes := make([]chunkOutcome, len(chunks))

	g, ctx := errgroup.WithContext(ctx)
	for ci, chunk := range chunks {
		out := &outcomes[ci]
		out.errs = make(map[string]error)
		chunk := chunk
		g.Go(func() error {
			for _, name := range chunk {
				if err := ctx.Err(); err != nil {
					return err
				}
				res, err := fn(name)
				if err != nil {
					out.errs[name] = err
					continue
				}
				out.results = append(out.results, res)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	results := make(map[string]*eval.Result, len(sorted))
	errs := make(map[string]error)
	for _, out := range outcomes {
		for _, res := range out.results {
			results[res.Channel] = res
		}
		for name, err := range out.errs {
			errs[name] = err
		}
	}
	return results, errs, nil
}

// Chunks splits names into min(workers, len(names)) contiguous balanced
// chunks, preserving order. workers < 1 is treated as 1.
func Chunks(names []string, workers int) [][]string {
	n := len(names)
	if n == 0 {
		return nil
	}
	if workers < 1 {
		workers = 1
	}
	if workers > n {
		workers = n
	}

	out := make([][]string, 0, workers)
	base := n / workers
	rem := n % workers
	start := 0
	for i := 0; i < workers; i++ {
		size := base
		if i < rem {
			size++
		}
		out = append(out, names[start:start+size])
		start += size
	}
	return out
}

// Merge reduces per-channel results to the global winner and the map of each
// channel's best significance. The winner is the maximum-significance
// candidate; equal scores resolve to the lexicographically smaller channel
// name. Merge is deterministic for any grouping of its inputs and returns
// nil when results is empty.
func Merge(results map[string]*eval.Result) (*eval.Candidate, map[string]float64) {
	if len(results) == 0 {
		return nil, nil
	}

	names := make([]string, 0, len(results))
	for name := range results {
		names = append(names, name)
	}
	sort.Strings(names)

	sigs := make(map[string]float64, len(names))
	var winner *eval.Candidate
	for _, name := range names {
		res := results[name]
		sigs[name] = res.Best.Significance
		// Strictly-greater keeps the earliest name on ties.
		if winner == nil || res.Best.Significance > winner.Significance {
			c := res.Best
			winner = &c
		}
	}
	return winner, sigs
}
