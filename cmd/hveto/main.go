package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/andrew-lundgren/hveto/internal/alerts"
	"github.com/andrew-lundgren/hveto/internal/api"
	"github.com/andrew-lundgren/hveto/internal/config"
	"github.com/andrew-lundgren/hveto/internal/engine"
	"github.com/andrew-lundgren/hveto/internal/loader"
	"github.com/andrew-lundgren/hveto/internal/results"
	"github.com/andrew-lundgren/hveto/internal/store"
	"github.com/andrew-lundgren/hveto/internal/trigger"
	"github.com/andrew-lundgren/hveto/internal/ws"
)

func main() {
	configPath := flag.String("config", "config.yaml", "path to config file")
	watch := flag.Bool("watch", false, "re-run the analysis whenever the config file changes")
	flag.Parse()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	slog.Info("hveto starting", "config", *configPath)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}
	slog.Info("config loaded",
		"primary", cfg.Primary.Channel,
		"min_significance", cfg.Analysis.MinSignificance,
		"max_rounds", cfg.Analysis.MaxRounds,
		"serve", cfg.Serve.Enabled,
	)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	st := results.New()
	alertEngine := alerts.New(cfg.Alerts)

	var db *store.Store
	if cfg.Output.SQLite != "" {
		db, err = store.Open(cfg.Output.SQLite)
		if err != nil {
			slog.Error("failed to open results database", "err", err)
			os.Exit(1)
		}
		defer db.Close()
	}

	// Optional embedded status server: REST API + WebSocket stream.
	if cfg.Serve.Enabled {
		hub := ws.New(st, cfg.Serve.BroadcastInterval)
		go hub.Run(ctx)

		httpMux := http.NewServeMux()
		httpMux.Handle("/api/", api.New(st, cfg.Serve.Auth))
		httpMux.Handle("/ws/stream", hub)

		httpSrv := &http.Server{
			Addr:    fmt.Sprintf(":%d", cfg.Serve.HTTPPort),
			Handler: httpMux,
		}
		go func() {
			slog.Info("HTTP server listening", "port", cfg.Serve.HTTPPort)
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				slog.Error("HTTP server stopped", "err", err)
			}
		}()
		defer httpSrv.Shutdown(context.Background()) //nolint:errcheck
	}

	runOnce := func(cfg *config.Config) bool {
		if err := run(ctx, cfg, st, alertEngine, db); err != nil {
			slog.Error("analysis failed", "err", err)
			st.Fail(err)
			return false
		}
		return true
	}

	ok := runOnce(cfg)

	if !cfg.Serve.Enabled && !*watch {
		if !ok {
			os.Exit(1)
		}
		return
	}

	// Stay resident: re-run on config change (with -watch) and keep the
	// status server answering until interrupted.
	reload := make(chan *config.Config, 1)
	if *watch {
		go func() {
			if err := config.Watch(ctx, *configPath, func(updated *config.Config) {
				select {
				case reload <- updated:
				default:
				}
			}); err != nil {
				slog.Error("config watcher stopped", "err", err)
			}
		}()
	}

	for {
		select {
		case <-ctx.Done():
			slog.Info("hveto shutting down")
			return
		case updated := <-reload:
			slog.Info("config reloaded — re-running analysis")
			runOnce(updated)
		}
	}
}

// run executes one full analysis: load inputs, iterate veto rounds, write
// outputs. Round-by-round progress is published to st, checked against
// alert rules and, when db is non-nil, persisted.
func run(ctx context.Context, cfg *config.Config, st *results.Store, alertEngine *alerts.Engine, db *store.Store) error {
	primary, err := loader.LoadChannel(cfg.Primary)
	if err != nil {
		return err
	}
	auxChannels, loadFailed, err := loader.LoadAuxDir(cfg.Aux)
	if err != nil {
		return err
	}
	analysis, err := loader.LoadSegments(cfg.Analysis.SegmentsFile)
	if err != nil {
		return err
	}
	slog.Info("inputs loaded",
		"primary_triggers", len(primary.Original),
		"aux_channels", len(auxChannels),
		"aux_excluded", len(loadFailed),
		"livetime", analysis.Duration(),
	)

	aux := make(map[string]*trigger.Channel, len(auxChannels))
	for _, ch := range auxChannels {
		aux[ch.Name] = ch
	}

	eng, err := engine.New(primary, aux, analysis, engine.Options{
		Thresholds:      cfg.Analysis.SNRThresholds,
		Windows:         cfg.Analysis.TimeWindows,
		MinSignificance: cfg.Analysis.MinSignificance,
		MaxRounds:       cfg.Analysis.MaxRounds,
		Workers:         cfg.Analysis.EffectiveWorkers(),
	})
	if err != nil {
		return err
	}

	st.Begin(cfg.Primary.Channel, len(aux))
	var runID int64
	startedAt := time.Now()
	if db != nil {
		runID, err = db.CreateRun(cfg.Primary.Channel, startedAt)
		if err != nil {
			return err
		}
	}

	eng.OnRound(func(r *engine.Round) {
		st.Publish(r)
		alertEngine.Evaluate(r)
		if db != nil {
			if err := db.SaveRound(runID, r); err != nil {
				slog.Warn("failed to persist round", "round", r.Index, "err", err)
			}
		}
	})

	rounds, err := eng.Run(ctx)
	if err != nil {
		return err
	}
	term := eng.Termination()
	slog.Info("analysis finished",
		"rounds", len(rounds),
		"reason", term.Reason,
	)
	st.Finish(term)

	if db != nil {
		status := st.Status()
		if err := db.FinishRun(runID, time.Now(), term.Reason, len(rounds),
			status.CumEfficiencyPct, status.CumDeadtimePct); err != nil {
			slog.Warn("failed to finalize run record", "err", err)
		}
	}

	return writeOutputs(cfg, st, eng, loadFailed)
}

// summary is the top-level structure of summary.json.
type summary struct {
	Primary        string              `json:"primary"`
	GeneratedAt    string              `json:"generated_at"` // RFC3339
	TotalLivetime  float64             `json:"total_livetime"`
	Status         results.RunStatus   `json:"status"`
	Rounds         []api.RoundResponse `json:"rounds"`
	FailedChannels map[string]string   `json:"failed_channels,omitempty"`
}

// writeOutputs writes summary.json plus the segment lists and trigger
// tables for each round into the configured output directory. loadFailed
// holds channels already excluded at load time; they are reported together
// with the engine's evaluation failures.
func writeOutputs(cfg *config.Config, st *results.Store, eng *engine.Engine, loadFailed map[string]error) error {
	dir := cfg.Output.Dir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}

	kind := eng.Primary().Kind
	for _, r := range eng.Rounds() {
		segPath := filepath.Join(dir, fmt.Sprintf("round-%d-vetoes.txt", r.Index))
		if err := loader.WriteSegments(segPath, r.Vetoes); err != nil {
			return err
		}
		trigPath := filepath.Join(dir, fmt.Sprintf("round-%d-vetoed-triggers.txt", r.Index))
		if err := loader.WriteTriggers(trigPath, kind, r.VetoedPrimary); err != nil {
			return err
		}
	}

	if err := loader.WriteSegments(filepath.Join(dir, "veto-segments.txt"), eng.AllVetoes()); err != nil {
		return err
	}
	if err := loader.WriteSegments(filepath.Join(dir, "analysis-segments.txt"), eng.MergedSegments()); err != nil {
		return err
	}
	if err := loader.WriteTriggers(filepath.Join(dir, "primary-survivors.txt"), kind, eng.Primary().Live); err != nil {
		return err
	}

	failed := make(map[string]string)
	for name, err := range loadFailed {
		failed[name] = err.Error()
	}
	for name, err := range eng.FailedChannels() {
		failed[name] = err.Error()
	}
	progress := api.BuildProgress(st)
	s := summary{
		Primary:        cfg.Primary.Channel,
		GeneratedAt:    time.Now().UTC().Format(time.RFC3339),
		TotalLivetime:  eng.TotalLivetime(),
		Status:         progress.Status,
		Rounds:         progress.Rounds,
		FailedChannels: failed,
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encode summary: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "summary.json"), data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	slog.Info("outputs written", "dir", dir)
	return nil
}
