package api

// RoundResponse is one veto round in GET /api/v1/rounds or
// GET /api/v1/rounds/{n}.
type RoundResponse struct {
	Index            int          `json:"index"`
	Channel          string       `json:"channel"`
	SNRThreshold     float64      `json:"snr_threshold"`
	Window           float64      `json:"window"`
	Significance     float64      `json:"significance"`
	Mu               float64      `json:"mu"`
	Coincidences     int          `json:"coincidences"`
	Livetime         float64      `json:"livetime"`
	PrimaryBefore    int          `json:"primary_before"`
	PrimaryRemoved   int          `json:"primary_removed"`
	EfficiencyPct    float64      `json:"efficiency_pct"`
	DeadtimePct      float64      `json:"deadtime_pct"`
	CumEfficiencyPct float64      `json:"cum_efficiency_pct"`
	CumDeadtimePct   float64      `json:"cum_deadtime_pct"`
	Vetoes           [][2]float64 `json:"vetoes"`
}

// WinnerResponse is one entry in GET /api/v1/winners.
type WinnerResponse struct {
	Round        int     `json:"round"`
	Channel      string  `json:"channel"`
	Significance float64 `json:"significance"`
	SNRThreshold float64 `json:"snr_threshold"`
	Window       float64 `json:"window"`
}

// errorResponse is a generic JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}
