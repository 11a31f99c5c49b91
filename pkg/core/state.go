package core

import "time"

// TargetSymbol is the reserved name of the target integer in expressions.
const TargetSymbol = "n"

// RunStatus represents the lifecycle state of a search run.
type RunStatus string

// RunStatus values.
const (
	RunStatusIdle      RunStatus = "idle"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusCancelled RunStatus = "cancelled"
	RunStatusFailed    RunStatus = "failed"
)

// IsTerminal reports whether no further transitions follow s.
func (s RunStatus) IsTerminal() bool {
	switch s {
	case RunStatusCompleted, RunStatusCancelled, RunStatusFailed:
		return true
	default:
		return false
	}
}

// Run is the persisted description of a search run.
type Run struct {
	ID          string     `json:"id" yaml:"id"`
	Expression  string     `json:"expression" yaml:"expression"`
	Variables   []string   `json:"variables" yaml:"variables"`
	NStart      int64      `json:"n_start" yaml:"n_start"`
	NEnd        int64      `json:"n_end" yaml:"n_end"`
	Radius      int64      `json:"radius" yaml:"radius"`
	Evaluator   string     `json:"evaluator" yaml:"evaluator"`
	Status      RunStatus  `json:"status" yaml:"status"`
	Processed   int64      `json:"processed" yaml:"processed"`
	Error       string     `json:"error,omitempty" yaml:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at" yaml:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty" yaml:"completed_at,omitempty"`
}

// Total returns the number of target values the run covers.
func (r *Run) Total() int64 {
	return r.NEnd - r.NStart + 1
}

// Store defines the interface for the persistent result archive.
type Store interface {
	Open(path string) error
	Close() error
	InitSchema() error

	// Run operations
	CreateRun(run *Run) (*Run, error)
	GetRun(id string) (*Run, error)
	CompleteRun(id string, status RunStatus, processed int64, errMsg string) error
	ListRuns(limit int) ([]*Run, error)
	DeleteRun(id string) error

	// Record operations
	SaveRecord(runID string, rec Record) error
	GetRecords(runID string) ([]Record, error)
}
