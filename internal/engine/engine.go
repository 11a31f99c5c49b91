// Package engine provides the lattice search engine.
// It scans [-R, R]^k for every target n in a range, emits one record per
// fully scanned n in ascending order and supports cooperative cancellation.
package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// Event channel sizing.
const (
	// DefaultEventBuffer lets the worker stay a few events ahead of a
	// slow consumer.
	DefaultEventBuffer = 16
	// Unbuffered makes every event send wait for the consumer.
	Unbuffered = -1
)

// Engine runs at most one search at a time.
type Engine struct {
	backend     expression.Backend
	tolerance   float64
	workers     int
	eventBuffer int

	// Structured logger
	logger *slog.Logger

	// Optional result archive
	store core.Store

	mu     sync.Mutex
	active *Run
}

// Config holds engine configuration.
type Config struct {
	// Evaluator selects the expression backend (default native)
	Evaluator expression.Backend
	// Tolerance is the zero test bound (default expression.Tolerance)
	Tolerance float64
	// Workers scans that many target values concurrently when above 1
	Workers int
	// EventBuffer sizes the event channel; 0 means DefaultEventBuffer.
	// The worker may run up to that many events ahead of the consumer, so
	// a stop requested on receipt of a record can still be followed by
	// the records already buffered. Unbuffered makes the stop take effect
	// at the next record the worker tries to hand over.
	EventBuffer int
	// Store persists runs and records (optional)
	Store core.Store
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// New creates an engine.
func New(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	e := &Engine{
		backend:     cfg.Evaluator,
		tolerance:   cfg.Tolerance,
		workers:     cfg.Workers,
		eventBuffer: cfg.EventBuffer,
		logger:      logger,
		store:       cfg.Store,
	}
	if e.backend == "" {
		e.backend = expression.BackendNative
	}
	if e.tolerance <= 0 {
		e.tolerance = expression.Tolerance
	}
	if e.workers < 1 {
		e.workers = 1
	}
	switch {
	case e.eventBuffer == Unbuffered:
		e.eventBuffer = 0
	case e.eventBuffer <= 0:
		e.eventBuffer = DefaultEventBuffer
	}

	logger.Debug("initializing engine", "evaluator", e.backend, "workers", e.workers, "tolerance", e.tolerance)
	return e
}

// Start begins a search on its own goroutine and returns immediately.
// Invalid parameters and compile errors do not fail Start: they surface as
// a single EventError and a Failed run. Cancelling ctx requests a stop.
func (e *Engine) Start(ctx context.Context, p Params) (*Run, error) {
	e.mu.Lock()
	if e.active != nil {
		e.mu.Unlock()
		return nil, ErrRunActive
	}
	run := newRun(uuid.New().String(), p, e.eventBuffer)
	run.setState(core.RunStatusRunning, nil)
	e.active = run
	e.mu.Unlock()

	stop := context.AfterFunc(ctx, run.RequestStop)
	go func() {
		defer stop()
		e.execute(run)
	}()

	return run, nil
}

// Active returns the running search, if any.
func (e *Engine) Active() *Run {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.active
}

// Stop requests a stop of the active run and reports whether there was one.
func (e *Engine) Stop() bool {
	run := e.Active()
	if run == nil {
		return false
	}
	run.RequestStop()
	return true
}

// Evaluator returns the configured backend.
func (e *Engine) Evaluator() expression.Backend {
	return e.backend
}

func (e *Engine) execute(run *Run) {
	log := e.logger.With("run_id", run.id)
	start := time.Now()
	log.Info("starting run", "search", run.params.summary(), "evaluator", e.backend, "workers", e.workers)

	e.recordStart(run)

	ev, err := e.prepare(run.params)
	if err != nil {
		log.Info("run failed", "error", err.Error())
		e.finish(run, core.RunStatusFailed, err)
		return
	}

	var status core.RunStatus
	if e.workers > 1 {
		status = e.scanParallel(run, ev)
	} else {
		status = e.scanSequential(run, ev)
	}

	log.Info("run finished", "status", status, "processed", run.Processed(), "duration", time.Since(start))
	e.finish(run, status, nil)
}

func (e *Engine) prepare(p Params) (core.Evaluator, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	expr, err := expression.Compile(p.Expression, p.Variables, expression.WithBackend(e.backend))
	if err != nil {
		return nil, err
	}
	return expr, nil
}

// finish moves run to its terminal state, releases the engine and emits
// the terminal event.
func (e *Engine) finish(run *Run, status core.RunStatus, runErr error) {
	run.setState(status, runErr)
	runsFinished.WithLabelValues(string(status)).Inc()

	if run.persisted {
		msg := ""
		if runErr != nil {
			msg = runErr.Error()
		}
		if err := e.store.CompleteRun(run.id, status, run.Processed(), msg); err != nil {
			e.logger.Warn("failed to complete run in store", "run_id", run.id, "error", err)
		}
	}

	e.mu.Lock()
	if e.active == run {
		e.active = nil
	}
	e.mu.Unlock()

	if runErr != nil {
		run.events <- Event{Kind: EventError, RunID: run.id, Status: status, Processed: run.Processed(), Err: runErr}
	} else {
		run.events <- Event{
			Kind:      EventFinished,
			RunID:     run.id,
			Status:    status,
			Processed: run.Processed(),
			Total:     run.params.Total(),
		}
	}
	close(run.events)
	close(run.done)
}

func (e *Engine) recordStart(run *Run) {
	if e.store == nil {
		return
	}
	if _, err := e.store.CreateRun(run.Snapshot(string(e.backend))); err != nil {
		e.logger.Warn("failed to record run in store", "run_id", run.id, "error", err)
		return
	}
	run.persisted = true
}

// emitRecord hands a fully scanned record to the consumer, followed by
// the progress it completes.
func (e *Engine) emitRecord(run *Run, rec core.Record) {
	processed := run.processed.Add(1)
	solutionsFound.Add(float64(rec.Solutions.Len()))

	if run.persisted {
		if err := e.store.SaveRecord(run.id, rec); err != nil {
			e.logger.Warn("failed to save record", "run_id", run.id, "n", rec.N, "error", err)
		}
	}

	e.logger.Debug("target scanned", "run_id", run.id, "n", rec.N, "solutions", rec.Solutions.Len())

	run.events <- Event{Kind: EventResult, RunID: run.id, Record: &rec}
	run.events <- progressEvent(run.id, processed, run.params.Total())
}
