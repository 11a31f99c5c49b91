package state

import (
	"encoding/json"
	"fmt"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

// SaveRecord stores the record for one target of a run.
func (s *SQLiteStore) SaveRecord(runID string, rec core.Record) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	solutions, err := json.Marshal(rec.Solutions)
	if err != nil {
		return fmt.Errorf("failed to encode solutions: %w", err)
	}

	_, err = s.db.ExecContext(ctx(),
		`INSERT INTO records (run_id, n, solutions, solution_count) VALUES (?, ?, ?, ?)`,
		runID, rec.N, string(solutions), rec.Solutions.Len(),
	)
	if err != nil {
		return fmt.Errorf("failed to save record n=%d: %w", rec.N, err)
	}
	return nil
}

// GetRecords returns the records of a run in ascending n.
func (s *SQLiteStore) GetRecords(runID string) ([]core.Record, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx(),
		`SELECT n, solutions FROM records WHERE run_id = ? ORDER BY n`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get records: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var records []core.Record
	for rows.Next() {
		var (
			rec       core.Record
			solutions string
		)
		if err := rows.Scan(&rec.N, &solutions); err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		if err := json.Unmarshal([]byte(solutions), &rec.Solutions); err != nil {
			return nil, fmt.Errorf("failed to decode solutions for n=%d: %w", rec.N, err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// CountSolutions returns the total number of solutions archived for a run.
func (s *SQLiteStore) CountSolutions(runID string) (int64, error) {
	if s.db == nil {
		return 0, fmt.Errorf("database not opened")
	}

	var total int64
	err := s.db.QueryRowContext(ctx(),
		`SELECT COALESCE(SUM(solution_count), 0) FROM records WHERE run_id = ?`, runID).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("failed to count solutions: %w", err)
	}
	return total, nil
}
