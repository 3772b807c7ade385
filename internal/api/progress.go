package api

import "github.com/andrew-lundgren/hveto/internal/results"

// ProgressResponse is the full run picture: the current status plus every
// completed round. The WebSocket stream broadcasts it on each tick.
type ProgressResponse struct {
	Status results.RunStatus `json:"status"`
	Rounds []RoundResponse   `json:"rounds"`
}

// BuildProgress assembles a ProgressResponse from the results store.
func BuildProgress(st *results.Store) ProgressResponse {
	rounds := st.Rounds()
	out := make([]RoundResponse, 0, len(rounds))
	for _, rd := range rounds {
		out = append(out, toRoundResponse(rd))
	}
	return ProgressResponse{Status: st.Status(), Rounds: out}
}
