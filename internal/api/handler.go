package api

import (
	"crypto/subtle"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/andrew-lundgren/hveto/internal/config"
	"github.com/andrew-lundgren/hveto/internal/engine"
	"github.com/andrew-lundgren/hveto/internal/results"
)

// Handler is the HTTP handler for all /api/v1/* endpoints.
// It reads run progress from the results store and returns JSON responses.
type Handler struct {
	store *results.Store
	mux   *http.ServeMux
}

// New creates a Handler wired to the given results store and registers all
// routes. If auth.Mode is "apikey", every request must carry the configured
// header with the key resolved from the environment.
func New(st *results.Store, auth config.AuthConfig) http.Handler {
	h := &Handler{store: st, mux: http.NewServeMux()}

	h.mux.HandleFunc("/api/v1/status", h.status)
	h.mux.HandleFunc("/api/v1/rounds", h.listRounds)
	h.mux.HandleFunc("/api/v1/rounds/", h.getRound) // subtree — extracts {n}
	h.mux.HandleFunc("/api/v1/winners", h.winners)

	if auth.Mode == "apikey" {
		return requireKey(auth, h)
	}
	return h
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

// requireKey rejects requests whose auth header does not match the
// configured API key.
func requireKey(auth config.AuthConfig, next http.Handler) http.Handler {
	header := auth.EffectiveHeader()
	key := auth.Key()
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got := r.Header.Get(header)
		if key == "" || subtle.ConstantTimeCompare([]byte(got), []byte(key)) != 1 {
			jsonErr(w, http.StatusUnauthorized, "invalid api key")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// --- route handlers ---------------------------------------------------------

// status returns GET /api/v1/status — the current run summary.
func (h *Handler) status(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	jsonResp(w, http.StatusOK, h.store.Status())
}

// listRounds returns GET /api/v1/rounds — all completed veto rounds.
func (h *Handler) listRounds(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rounds := h.store.Rounds()
	out := make([]RoundResponse, 0, len(rounds))
	for _, rd := range rounds {
		out = append(out, toRoundResponse(rd))
	}
	jsonResp(w, http.StatusOK, out)
}

// getRound returns GET /api/v1/rounds/{n} — a single round by 1-based index.
func (h *Handler) getRound(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	raw := strings.TrimPrefix(r.URL.Path, "/api/v1/rounds/")
	if raw == "" {
		h.listRounds(w, r)
		return
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		jsonErr(w, http.StatusBadRequest, "round index must be an integer")
		return
	}

	rd, ok := h.store.Round(n)
	if !ok {
		jsonErr(w, http.StatusNotFound, "round not found")
		return
	}
	jsonResp(w, http.StatusOK, toRoundResponse(rd))
}

// winners returns GET /api/v1/winners — the winning channel of each round.
func (h *Handler) winners(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonErr(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	rounds := h.store.Rounds()
	out := make([]WinnerResponse, 0, len(rounds))
	for _, rd := range rounds {
		if rd.Winner == nil {
			continue
		}
		out = append(out, WinnerResponse{
			Round:        rd.Index,
			Channel:      rd.Winner.Channel,
			Significance: rd.Winner.Significance,
			SNRThreshold: rd.Winner.Threshold,
			Window:       rd.Winner.Window,
		})
	}
	jsonResp(w, http.StatusOK, out)
}

// --- helpers ----------------------------------------------------------------

func jsonResp(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func jsonErr(w http.ResponseWriter, code int, msg string) {
	jsonResp(w, code, errorResponse{Error: msg})
}

// toRoundResponse maps an engine.Round to its JSON representation.
func toRoundResponse(rd *engine.Round) RoundResponse {
	resp := RoundResponse{
		Index:            rd.Index,
		Livetime:         rd.Livetime,
		PrimaryBefore:    rd.PrimaryBefore,
		PrimaryRemoved:   rd.PrimaryRemoved,
		EfficiencyPct:    rd.EfficiencyPct,
		DeadtimePct:      rd.DeadtimePct,
		CumEfficiencyPct: rd.CumEfficiencyPct,
		CumDeadtimePct:   rd.CumDeadtimePct,
		Vetoes:           make([][2]float64, 0, len(rd.Vetoes)),
	}
	if rd.Winner != nil {
		resp.Channel = rd.Winner.Channel
		resp.SNRThreshold = rd.Winner.Threshold
		resp.Window = rd.Winner.Window
		resp.Significance = rd.Winner.Significance
		resp.Mu = rd.Winner.Mu
		resp.Coincidences = rd.Winner.Coincidences
	}
	for _, seg := range rd.Vetoes {
		resp.Vetoes = append(resp.Vetoes, [2]float64{seg.Start, seg.End})
	}
	return resp
}
