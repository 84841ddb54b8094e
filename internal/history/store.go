package history

import (
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// _ import for sqlite driver registration
	_ "modernc.org/sqlite"

	"github.com/its-not-a-bug-its-a-feature/swiftly/internal/model"
)

//go:embed schema.sql
var schemaSQL string

// timeFormat is how timestamps are stored. RFC 3339 sorts lexicographically
// in chronological order, which the queries below rely on.
const timeFormat = time.RFC3339Nano

// Store is the run-history database handle.
type Store struct {
	db *sql.DB
}

// Open ensures the database directory exists, opens the SQLite database,
// and applies the embedded schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, model.WrapCLIError(model.ExitHistoryError, "create history directory", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitHistoryError, "open history database", err)
	}
	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, model.WrapCLIError(model.ExitHistoryError, "apply history schema", err)
	}
	return &Store{db: db}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// BeginRun inserts a new in-progress run and returns its ID.
func (s *Store) BeginRun(plan, version string, startedAt time.Time) (int64, error) {
	res, err := s.db.Exec(
		`INSERT INTO runs (plan, version, status, started_at) VALUES (?, ?, ?, ?)`,
		plan, version, model.RunInProgress.String(), startedAt.UTC().Format(timeFormat))
	if err != nil {
		return 0, fmt.Errorf("begin run: %w", err)
	}
	return res.LastInsertId()
}

// RecordStep upserts the outcome of one step within a run. Resumed runs
// overwrite the failed step's previous row at the same position.
func (s *Store) RecordStep(runID int64, rec model.StepRecord) error {
	_, err := s.db.Exec(
		`INSERT INTO run_steps (run_id, position, step_id, status, error, finished_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(run_id, position) DO UPDATE SET
		   status = excluded.status,
		   error = excluded.error,
		   finished_at = excluded.finished_at`,
		runID, rec.Position, rec.StepID, rec.Status.String(), rec.Error,
		rec.FinishedAt.UTC().Format(timeFormat))
	if err != nil {
		return fmt.Errorf("record step %s: %w", rec.StepID, err)
	}
	return nil
}

// FinishRun marks a run's final status. failedStep is empty for
// successful runs.
func (s *Store) FinishRun(runID int64, status model.RunStatus, failedStep string, finishedAt time.Time) error {
	_, err := s.db.Exec(
		`UPDATE runs SET status = ?, failed_step = ?, finished_at = ? WHERE id = ?`,
		status.String(), failedStep, finishedAt.UTC().Format(timeFormat), runID)
	if err != nil {
		return fmt.Errorf("finish run %d: %w", runID, err)
	}
	return nil
}

// Runs returns the most recent runs, newest first, without step detail.
// limit <= 0 means no limit.
func (s *Store) Runs(limit int) ([]model.RunRecord, error) {
	query := `SELECT id, plan, version, status, failed_step, started_at, finished_at
	          FROM runs ORDER BY id DESC`
	var rows *sql.Rows
	var err error
	if limit > 0 {
		rows, err = s.db.Query(query+` LIMIT ?`, limit)
	} else {
		rows, err = s.db.Query(query)
	}
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []model.RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, rec)
	}
	return runs, rows.Err()
}

// Run loads a single run with its per-step outcomes in plan order.
// Returns nil if the run does not exist.
func (s *Store) Run(id int64) (*model.RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, plan, version, status, failed_step, started_at, finished_at
		 FROM runs WHERE id = ?`, id)

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.Query(
		`SELECT step_id, position, status, error, finished_at
		 FROM run_steps WHERE run_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, fmt.Errorf("load run steps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var step model.StepRecord
		var status, finished string
		if err := rows.Scan(&step.StepID, &step.Position, &status, &step.Error, &finished); err != nil {
			return nil, fmt.Errorf("scan run step: %w", err)
		}
		step.Status, err = model.ParseStepStatus(status)
		if err != nil {
			return nil, err
		}
		step.FinishedAt, _ = time.Parse(timeFormat, finished)
		rec.Steps = append(rec.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &rec, nil
}

// LatestResumable returns the most recent run for the given plan and version
// that ended in failure (or was left in progress by a killed process),
// or nil when there is nothing to resume.
func (s *Store) LatestResumable(plan, version string) (*model.RunRecord, error) {
	row := s.db.QueryRow(
		`SELECT id, plan, version, status, failed_step, started_at, finished_at
		 FROM runs WHERE plan = ? AND version = ? AND status != ?
		 ORDER BY id DESC LIMIT 1`,
		plan, version, model.RunSucceeded.String())

	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRun.
type scanner interface {
	Scan(dest ...any) error
}

// scanRun reads one runs row into a RunRecord.
func scanRun(row scanner) (model.RunRecord, error) {
	var rec model.RunRecord
	var status, started, finished string
	err := row.Scan(&rec.ID, &rec.Plan, &rec.Version, &status, &rec.FailedStep, &started, &finished)
	if err != nil {
		return rec, err
	}
	rec.Status, err = model.ParseRunStatus(status)
	if err != nil {
		return rec, err
	}
	rec.StartedAt, _ = time.Parse(timeFormat, started)
	if finished != "" {
		rec.FinishedAt, _ = time.Parse(timeFormat, finished)
	}
	return rec, nil
}
