package store

import (
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/andrew-lundgren/hveto/internal/engine"
)

// Store records analysis runs in a SQLite database.
type Store struct {
	db *sql.DB
}

// RunRecord is one row of the runs table.
type RunRecord struct {
	ID               int64
	PrimaryChannel   string
	StartedAt        time.Time
	EndedAt          time.Time
	Reason           string
	Rounds           int
	CumEfficiencyPct float64
	CumDeadtimePct   float64
}

// RoundRecord is one row of the rounds table.
type RoundRecord struct {
	RunID            int64
	Index            int
	Channel          string
	SNRThreshold     float64
	Window           float64
	Significance     float64
	Mu               float64
	Coincidences     int
	Livetime         float64
	PrimaryBefore    int
	PrimaryRemoved   int
	EfficiencyPct    float64
	DeadtimePct      float64
	CumEfficiencyPct float64
	CumDeadtimePct   float64
}

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	slog.Info("results database ready", "path", path)
	return s, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		primary_channel TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		reason TEXT,
		rounds INTEGER DEFAULT 0,
		cum_efficiency_pct REAL DEFAULT 0,
		cum_deadtime_pct REAL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS rounds (
		run_id INTEGER NOT NULL,
		idx INTEGER NOT NULL,
		channel TEXT NOT NULL,
		snr_threshold REAL NOT NULL,
		window REAL NOT NULL,
		significance REAL NOT NULL,
		mu REAL NOT NULL,
		coincidences INTEGER NOT NULL,
		livetime REAL NOT NULL,
		primary_before INTEGER NOT NULL,
		primary_removed INTEGER NOT NULL,
		efficiency_pct REAL NOT NULL,
		deadtime_pct REAL NOT NULL,
		cum_efficiency_pct REAL NOT NULL,
		cum_deadtime_pct REAL NOT NULL,
		PRIMARY KEY (run_id, idx),
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);

	CREATE TABLE IF NOT EXISTS veto_segments (
		run_id INTEGER NOT NULL,
		round INTEGER NOT NULL,
		seg_start REAL NOT NULL,
		seg_end REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_veto_segments_run ON veto_segments(run_id, round);

	CREATE TABLE IF NOT EXISTS vetoed_triggers (
		run_id INTEGER NOT NULL,
		round INTEGER NOT NULL,
		time REAL NOT NULL,
		snr REAL NOT NULL,
		discriminant REAL NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_vetoed_triggers_run ON vetoed_triggers(run_id, round);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateRun inserts a new run row and returns its ID.
func (s *Store) CreateRun(primaryChannel string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (primary_channel, started_at) VALUES (?, ?)`,
		primaryChannel, startedAt.UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("store: create run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("store: create run: %w", err)
	}
	return id, nil
}

// SaveRound records one completed veto round, its veto segments and the
// primary events it removed, in a single transaction.
func (s *Store) SaveRound(runID int64, r *engine.Round) error {
	if r.Winner == nil {
		return fmt.Errorf("store: round %d has no winner", r.Index)
	}
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("store: save round: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
		INSERT INTO rounds (run_id, idx, channel, snr_threshold, window,
			significance, mu, coincidences, livetime,
			primary_before, primary_removed,
			efficiency_pct, deadtime_pct, cum_efficiency_pct, cum_deadtime_pct)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, r.Index, r.Winner.Channel, r.Winner.Threshold, r.Winner.Window,
		r.Winner.Significance, r.Winner.Mu, r.Winner.Coincidences, r.Livetime,
		r.PrimaryBefore, r.PrimaryRemoved,
		r.EfficiencyPct, r.DeadtimePct, r.CumEfficiencyPct, r.CumDeadtimePct,
	)
	if err != nil {
		return fmt.Errorf("store: save round %d: %w", r.Index, err)
	}

	segStmt, err := tx.Prepare(`INSERT INTO veto_segments (run_id, round, seg_start, seg_end) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: save round %d: %w", r.Index, err)
	}
	defer segStmt.Close()
	for _, seg := range r.Vetoes {
		if _, err := segStmt.Exec(runID, r.Index, seg.Start, seg.End); err != nil {
			return fmt.Errorf("store: save round %d segments: %w", r.Index, err)
		}
	}

	trigStmt, err := tx.Prepare(`INSERT INTO vetoed_triggers (run_id, round, time, snr, discriminant) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("store: save round %d: %w", r.Index, err)
	}
	defer trigStmt.Close()
	for _, tr := range r.VetoedPrimary {
		if _, err := trigStmt.Exec(runID, r.Index, tr.Time, tr.SNR, tr.Discriminant); err != nil {
			return fmt.Errorf("store: save round %d triggers: %w", r.Index, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: save round %d: %w", r.Index, err)
	}
	return nil
}

// FinishRun records the run's end time and final statistics.
func (s *Store) FinishRun(runID int64, endedAt time.Time, reason string, rounds int, cumEff, cumDead float64) error {
	_, err := s.db.Exec(`
		UPDATE runs SET ended_at = ?, reason = ?, rounds = ?,
			cum_efficiency_pct = ?, cum_deadtime_pct = ?
		WHERE id = ?`,
		endedAt.UTC(), reason, rounds, cumEff, cumDead, runID,
	)
	if err != nil {
		return fmt.Errorf("store: finish run %d: %w", runID, err)
	}
	return nil
}

// Run returns the run row with the given ID.
func (s *Store) Run(id int64) (*RunRecord, error) {
	row := s.db.QueryRow(`
		SELECT id, primary_channel, started_at, COALESCE(ended_at, started_at),
			COALESCE(reason, ''), rounds, cum_efficiency_pct, cum_deadtime_pct
		FROM runs WHERE id = ?`, id)
	var rec RunRecord
	err := row.Scan(&rec.ID, &rec.PrimaryChannel, &rec.StartedAt, &rec.EndedAt,
		&rec.Reason, &rec.Rounds, &rec.CumEfficiencyPct, &rec.CumDeadtimePct)
	if err != nil {
		return nil, fmt.Errorf("store: load run %d: %w", id, err)
	}
	return &rec, nil
}

// Rounds returns the round rows for a run, ordered by index.
func (s *Store) Rounds(runID int64) ([]RoundRecord, error) {
	rows, err := s.db.Query(`
		SELECT run_id, idx, channel, snr_threshold, window,
			significance, mu, coincidences, livetime,
			primary_before, primary_removed,
			efficiency_pct, deadtime_pct, cum_efficiency_pct, cum_deadtime_pct
		FROM rounds WHERE run_id = ? ORDER BY idx`, runID)
	if err != nil {
		return nil, fmt.Errorf("store: load rounds: %w", err)
	}
	defer rows.Close()

	var out []RoundRecord
	for rows.Next() {
		var r RoundRecord
		err := rows.Scan(&r.RunID, &r.Index, &r.Channel, &r.SNRThreshold, &r.Window,
			&r.Significance, &r.Mu, &r.Coincidences, &r.Livetime,
			&r.PrimaryBefore, &r.PrimaryRemoved,
			&r.EfficiencyPct, &r.DeadtimePct, &r.CumEfficiencyPct, &r.CumDeadtimePct)
		if err != nil {
			return nil, fmt.Errorf("store: scan round: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// VetoSegments returns the veto segments recorded for one round.
func (s *Store) VetoSegments(runID int64, round int) ([][2]float64, error) {
	rows, err := s.db.Query(
		`SELECT seg_start, seg_end FROM veto_segments WHERE run_id = ? AND round = ? ORDER BY seg_start`,
		runID, round)
	if err != nil {
		return nil, fmt.Errorf("store: load veto segments: %w", err)
	}
	defer rows.Close()

	var out [][2]float64
	for rows.Next() {
		var seg [2]float64
		if err := rows.Scan(&seg[0], &seg[1]); err != nil {
			return nil, fmt.Errorf("store: scan veto segment: %w", err)
		}
		out = append(out, seg)
	}
	return out, rows.Err()
}
