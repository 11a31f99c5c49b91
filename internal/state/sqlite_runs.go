package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

const runColumns = `id, expression, variables, n_start, n_end, radius, evaluator, status, processed, error, started_at, completed_at`

// CreateRun inserts a run. Missing ID, status and start time are filled in.
func (s *SQLiteStore) CreateRun(run *core.Run) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	r := *run
	if r.ID == "" {
		r.ID = generateID()
	}
	if r.Status == "" {
		r.Status = core.RunStatusRunning
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now().UTC()
	}
	if r.Evaluator == "" {
		r.Evaluator = "native"
	}

	s.logger.Debug("creating run", slog.String("id", r.ID), slog.String("expression", r.Expression))

	_, err := s.db.ExecContext(ctx(),
		`INSERT INTO runs (id, expression, variables, n_start, n_end, radius, evaluator, status, processed, started_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Expression, strings.Join(r.Variables, ","), r.NStart, r.NEnd, r.Radius,
		r.Evaluator, string(r.Status), r.Processed, r.StartedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}

	return &r, nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx(), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// CompleteRun records the terminal status of a run.
func (s *SQLiteStore) CompleteRun(id string, status core.RunStatus, processed int64, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errVal sql.NullString
	if errMsg != "" {
		errVal = sql.NullString{String: errMsg, Valid: true}
	}

	res, err := s.db.ExecContext(ctx(),
		`UPDATE runs SET status = ?, processed = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), processed, errVal, time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}

	s.logger.Debug("completed run", slog.String("id", id), slog.String("status", string(status)))
	return nil
}

// ListRuns returns the most recent runs first. A non-positive limit returns all runs.
func (s *SQLiteStore) ListRuns(limit int) ([]*core.Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT `+runColumns+` FROM runs ORDER BY started_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var runs []*core.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and its records.
func (s *SQLiteStore) DeleteRun(id string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	res, err := s.db.ExecContext(ctx(), `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*core.Run, error) {
	var (
		run         core.Run
		variables   string
		status      string
		errMsg      sql.NullString
		completedAt sql.NullTime
	)
	err := row.Scan(&run.ID, &run.Expression, &variables, &run.NStart, &run.NEnd, &run.Radius,
		&run.Evaluator, &status, &run.Processed, &errMsg, &run.StartedAt, &completedAt)
	if err != nil {
		return nil, err
	}

	if variables != "" {
		run.Variables = strings.Split(variables, ",")
	}
	run.Status = core.RunStatus(status)
	if errMsg.Valid {
		run.Error = errMsg.String
	}
	if completedAt.Valid {
		t := completedAt.Time
		run.CompletedAt = &t
	}
	return &run, nil
}
