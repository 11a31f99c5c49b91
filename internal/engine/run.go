package engine

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

// Run is the handle of one search. Its events must be drained by the
// caller; the worker blocks while the event channel is full.
type Run struct {
	id        string
	params    Params
	startedAt time.Time
	events    chan Event
	done      chan struct{}

	// stop is the only state written by the caller and read by the worker.
	stop      atomic.Bool
	processed atomic.Int64

	// persisted is set once the store accepted the run row.
	persisted bool

	mu     sync.Mutex
	status core.RunStatus
	err    error
}

func newRun(id string, p Params, buffer int) *Run {
	return &Run{
		id:        id,
		params:    p,
		startedAt: time.Now().UTC(),
		events:    make(chan Event, buffer),
		done:      make(chan struct{}),
		status:    core.RunStatusIdle,
	}
}

// ID returns the run identifier.
func (r *Run) ID() string { return r.id }

// Params returns the search parameters.
func (r *Run) Params() Params { return r.params }

// StartedAt returns the time the run was created.
func (r *Run) StartedAt() time.Time { return r.startedAt }

// Events returns the event stream. It is closed after the terminal event.
func (r *Run) Events() <-chan Event { return r.events }

// Done is closed once the run reached a terminal state and the event
// stream has been closed.
func (r *Run) Done() <-chan struct{} { return r.done }

// RequestStop asks the worker to stop before its next candidate. It is
// idempotent and safe to call from any goroutine.
func (r *Run) RequestStop() {
	r.stop.Store(true)
}

// StopRequested reports whether RequestStop has been called.
func (r *Run) StopRequested() bool {
	return r.stop.Load()
}

// Processed returns the number of fully scanned target values.
func (r *Run) Processed() int64 {
	return r.processed.Load()
}

// State returns the current lifecycle state.
func (r *Run) State() core.RunStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.status
}

// Err returns the setup error of a failed run.
func (r *Run) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Wait blocks until the run is done and returns its terminal state.
func (r *Run) Wait() (core.RunStatus, error) {
	<-r.done
	return r.State(), r.Err()
}

// Collect drains the event stream into archive and waits for the run.
// A nil archive discards the records.
func (r *Run) Collect(archive *core.ResultArchive) (core.RunStatus, error) {
	for ev := range r.events {
		if ev.Kind == EventResult && archive != nil {
			_ = archive.Add(*ev.Record)
		}
	}
	return r.Wait()
}

func (r *Run) setState(status core.RunStatus, err error) {
	r.mu.Lock()
	r.status = status
	r.err = err
	r.mu.Unlock()
}

// Snapshot describes the run in its persisted form.
func (r *Run) Snapshot(evaluator string) *core.Run {
	p := r.params
	return &core.Run{
		ID:         r.id,
		Expression: p.Expression,
		Variables:  p.Variables,
		NStart:     p.NStart,
		NEnd:       p.NEnd,
		Radius:     p.Radius,
		Evaluator:  evaluator,
		Status:     r.State(),
		Processed:  r.Processed(),
		StartedAt:  r.startedAt,
	}
}
