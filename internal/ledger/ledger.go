// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package ledger records generation and validation runs in a SQLite
// database: when each run happened, what it counted, and the edges it
// produced or classified.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/hra-relations/pkg/types"
)

// Run statuses.
const (
	StatusRunning = "running"
	StatusOK      = "ok"
	StatusFailed  = "failed"
)

// timeFormat is fixed width so stored timestamps sort as text.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// ErrRunNotFound is returned for an unknown run ID.
var ErrRunNotFound = errors.New("run not found")

// Run is one invocation of a job.
type Run struct {
	ID         string         `json:"id" yaml:"id"`
	Job        string         `json:"job" yaml:"job"`
	StartedAt  time.Time      `json:"started_at" yaml:"started_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty" yaml:"finished_at,omitempty"`
	Status     string         `json:"status" yaml:"status"`
	Counters   map[string]int `json:"counters,omitempty" yaml:"counters,omitempty"`
}

// Store manages the run ledger database.
type Store struct {
	db *sql.DB
}

// Open opens or creates the ledger at path and creates the schema if it
// does not exist.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("ledger path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("creating ledger directory: %w", err)
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{db: db}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			job TEXT NOT NULL,
			started_at TEXT NOT NULL,
			finished_at TEXT,
			status TEXT NOT NULL,
			counters TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS edges (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			ref_organ TEXT NOT NULL,
			ref_organ_part TEXT NOT NULL,
			parent TEXT NOT NULL,
			child TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE TABLE IF NOT EXISTS classifications (
			run_id TEXT NOT NULL REFERENCES runs(id) ON DELETE CASCADE,
			seq INTEGER NOT NULL,
			ref_organ TEXT NOT NULL,
			ref_organ_part TEXT NOT NULL,
			parent TEXT NOT NULL,
			child TEXT NOT NULL,
			status TEXT NOT NULL,
			PRIMARY KEY (run_id, seq)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_runs_job ON runs(job)`,
		`CREATE INDEX IF NOT EXISTS idx_classifications_status ON classifications(status)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// BeginRun records the start of a job and returns the new run.
func (s *Store) BeginRun(ctx context.Context, job string) (Run, error) {
	run := Run{
		ID:        uuid.NewString(),
		Job:       job,
		StartedAt: time.Now().UTC(),
		Status:    StatusRunning,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, job, started_at, status) VALUES (?, ?, ?, ?)`,
		run.ID, run.Job, run.StartedAt.Format(timeFormat), run.Status,
	)
	if err != nil {
		return Run{}, fmt.Errorf("inserting run: %w", err)
	}
	return run, nil
}

// RecordEdges stores the edges a generation run produced, in order.
func (s *Store) RecordEdges(ctx context.Context, runID string, edges []types.RelationEdge) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO edges (run_id, seq, ref_organ, ref_organ_part, parent, child)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, i, e.RefOrgan, e.RefOrganPart, e.Parent, e.Child); err != nil {
			return fmt.Errorf("inserting edge %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// RecordClassifications stores the status of every edge of a validation
// run. edges and status are parallel.
func (s *Store) RecordClassifications(ctx context.Context, runID string, edges []types.RelationEdge, status []types.EdgeStatus) error {
	if len(edges) != len(status) {
		return fmt.Errorf("%d edges but %d statuses", len(edges), len(status))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR REPLACE INTO classifications (run_id, seq, ref_organ, ref_organ_part, parent, child, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("preparing insert: %w", err)
	}
	defer stmt.Close()

	for i, e := range edges {
		if _, err := stmt.ExecContext(ctx, runID, i, e.RefOrgan, e.RefOrganPart, e.Parent, e.Child, string(status[i])); err != nil {
			return fmt.Errorf("inserting classification %d: %w", i, err)
		}
	}
	return tx.Commit()
}

// FinishRun marks a run as finished with status and its final counters.
func (s *Store) FinishRun(ctx context.Context, runID, status string, counters map[string]int) error {
	countersJSON, err := json.Marshal(counters)
	if err != nil {
		return fmt.Errorf("encoding counters: %w", err)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET finished_at = ?, status = ?, counters = ? WHERE id = ?`,
		time.Now().UTC().Format(timeFormat), status, string(countersJSON), runID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}
	return nil
}

const runColumns = `id, job, started_at, finished_at, status, counters`

// Runs returns up to limit runs, newest first. A non-positive limit
// returns all runs.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, rowid DESC`
	var args []any
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Get returns the run with id.
func (s *Store) Get(ctx context.Context, id string) (Run, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return run, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (Run, error) {
	var (
		run      Run
		started  string
		finished sql.NullString
		counters sql.NullString
	)
	if err := sc.Scan(&run.ID, &run.Job, &started, &finished, &run.Status, &counters); err != nil {
		return Run{}, err
	}
	t, err := time.Parse(timeFormat, started)
	if err != nil {
		return Run{}, fmt.Errorf("parsing started_at of %s: %w", run.ID, err)
	}
	run.StartedAt = t
	if finished.Valid && finished.String != "" {
		ft, err := time.Parse(timeFormat, finished.String)
		if err != nil {
			return Run{}, fmt.Errorf("parsing finished_at of %s: %w", run.ID, err)
		}
		run.FinishedAt = &ft
	}
	if counters.Valid && counters.String != "" && counters.String != "null" {
		if err := json.Unmarshal([]byte(counters.String), &run.Counters); err != nil {
			return Run{}, fmt.Errorf("parsing counters of %s: %w", run.ID, err)
		}
	}
	return run, nil
}
