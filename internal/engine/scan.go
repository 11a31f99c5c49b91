package engine

import (
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/expression"
)

// scanTarget enumerates [-R, R]^k for target n in lexicographic order,
// first variable slowest. It returns false if a stop was observed, in
// which case the partial record is discarded.
func (e *Engine) scanTarget(run *Run, ev core.Evaluator, n int64) (core.Record, bool) {
	r := run.params.Radius
	values := make([]int64, len(run.params.Variables))
	for i := range values {
		values[i] = -r
	}

	var (
		set       core.SolutionSet
		evaluated int64
		failed    int64
	)
	start := time.Now()
	defer func() {
		pointsEvaluated.Add(float64(evaluated))
		evaluationErrors.Add(float64(failed))
	}()

	for {
		if run.stop.Load() {
			return core.Record{}, false
		}

		residual, err := ev.EvaluatePoint(values, n)
		evaluated++
		switch {
		case err != nil:
			failed++
		case expression.IsSolutionWithin(residual, e.tolerance):
			set.Add(values)
		}

		// Advance the odometer; the last variable moves fastest.
		i := len(values) - 1
		for ; i >= 0; i-- {
			if values[i] < r {
				values[i]++
				break
			}
			values[i] = -r
		}
		if i < 0 {
			break
		}
	}

	targetScanDuration.Observe(time.Since(start).Seconds())
	return core.Record{N: n, Solutions: set}, true
}

func (e *Engine) scanSequential(run *Run, ev core.Evaluator) core.RunStatus {
	p := run.params
	for n := p.NStart; ; n++ {
		rec, ok := e.scanTarget(run, ev, n)
		if !ok {
			return core.RunStatusCancelled
		}
		e.emitRecord(run, rec)
		if n == p.NEnd {
			break
		}
	}
	return core.RunStatusCompleted
}

type scanOutcome struct {
	rec core.Record
	ok  bool
}

// scanParallel scans up to e.workers target values at once. Records pass
// through a reorder buffer so they are emitted in ascending n. A slot is
// held from dispatch until the record is emitted, so in-flight scans plus
// buffered records never exceed e.workers. Once a stop is observed nothing
// more is emitted; in-flight scans are drained.
func (e *Engine) scanParallel(run *Run, ev core.Evaluator) core.RunStatus {
	p := run.params
	outcomes := make(chan scanOutcome, e.workers)
	slots := make(chan struct{}, e.workers)

	go func() {
		var g errgroup.Group
		g.SetLimit(e.workers)
		for n := p.NStart; ; n++ {
			slots <- struct{}{}
			if run.stop.Load() {
				<-slots
				break
			}
			g.Go(func() error {
				rec, ok := e.scanTarget(run, ev, n)
				outcomes <- scanOutcome{rec: rec, ok: ok}
				return nil
			})
			if n == p.NEnd {
				break
			}
		}
		_ = g.Wait()
		close(outcomes)
	}()

	pending := make(map[int64]core.Record)
	next := p.NStart
	total := p.Total()
	stopped := false

	// halt discards the buffered records and frees their slots.
	halt := func() {
		stopped = true
		for range pending {
			<-slots
		}
		clear(pending)
	}

	for out := range outcomes {
		if stopped {
			<-slots
			continue
		}
		if !out.ok || run.stop.Load() {
			<-slots
			halt()
			continue
		}
		pending[out.rec.N] = out.rec
		for {
			rec, ok := pending[next]
			if !ok {
				break
			}
			if run.stop.Load() {
				halt()
				break
			}
			delete(pending, next)
			e.emitRecord(run, rec)
			<-slots
			if next == p.NEnd {
				break
			}
			next++
		}
	}

	if run.Processed() == total {
		return core.RunStatusCompleted
	}
	return core.RunStatusCancelled
}
