// Package history keeps a record of generator runs in SQLite.
package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// ErrRunNotFound is returned by Get for an unknown run id.
var ErrRunNotFound = errors.New("run not found")

// Outcomes of a run.
const (
	OutcomeSuccess = "success"
	OutcomeFailed  = "failed"
)

// Run is one recorded generator run.
type Run struct {
	ID        string
	Playbook  string
	StartedAt time.Time
	Duration  time.Duration
	Outcome   string
	Files     int
	Error     string
	// Stages maps stage names to their durations.
	Stages map[string]time.Duration
}

// Recorder appends runs. Store is the SQLite implementation.
type Recorder interface {
	Record(ctx context.Context, run Run) error
}

// Store is a SQLite-backed run history.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// Open opens or creates the history database at path. Use ":memory:" for an
// in-memory database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// a single connection keeps ":memory:" databases shared
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

func (s *Store) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		playbook TEXT NOT NULL,
		started_at INTEGER NOT NULL,
		duration_ms INTEGER NOT NULL,
		outcome TEXT NOT NULL,
		files INTEGER NOT NULL,
		error TEXT,
		stages TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Record stores run, replacing an earlier record with the same id.
func (s *Store) Record(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stages := make(map[string]int64, len(run.Stages))
	for k, d := range run.Stages {
		stages[k] = d.Milliseconds()
	}
	stagesJSON, err := json.Marshal(stages)
	if err != nil {
		return fmt.Errorf("marshal stages: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO runs (id, playbook, started_at, duration_ms, outcome, files, error, stages)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.Playbook, run.StartedAt.UnixMilli(), run.Duration.Milliseconds(),
		run.Outcome, run.Files, run.Error, string(stagesJSON),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

const selectRuns = "SELECT id, playbook, started_at, duration_ms, outcome, files, error, stages FROM runs"

// Get returns the run with the given id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+" WHERE id = ?", id)
	if err != nil {
		return Run{}, fmt.Errorf("query run: %w", err)
	}
	defer rows.Close()
	runs, err := scanRuns(rows)
	if err != nil {
		return Run{}, err
	}
	if len(runs) == 0 {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return runs[0], nil
}

// Recent returns up to limit runs, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, selectRuns+" ORDER BY started_at DESC, id LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()
	return scanRuns(rows)
}

func scanRuns(rows *sql.Rows) ([]Run, error) {
	var runs []Run
	for rows.Next() {
		var (
			r                  Run
			startedMS, durMS   int64
			errText, stagesRaw sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Playbook, &startedMS, &durMS, &r.Outcome, &r.Files, &errText, &stagesRaw); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		r.StartedAt = time.UnixMilli(startedMS)
		r.Duration = time.Duration(durMS) * time.Millisecond
		r.Error = errText.String
		if stagesRaw.Valid && stagesRaw.String != "" {
			var stages map[string]int64
			if err := json.Unmarshal([]byte(stagesRaw.String), &stages); err != nil {
				return nil, fmt.Errorf("unmarshal stages: %w", err)
			}
			r.Stages = make(map[string]time.Duration, len(stages))
			for k, ms := range stages {
				r.Stages[k] = time.Duration(ms) * time.Millisecond
			}
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return runs, nil
}

// Close closes the database.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}
