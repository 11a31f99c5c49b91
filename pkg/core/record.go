package core

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// ErrDuplicateRecord is returned when a record for an already archived n is added.
var ErrDuplicateRecord = errors.New("duplicate record")

// Record holds every solution found for one fully scanned target n.
type Record struct {
	N         int64       `json:"n" yaml:"n"`
	Solutions SolutionSet `json:"solutions" yaml:"solutions"`
}

// Empty reports whether no solutions were found for the target.
func (r Record) Empty() bool {
	return r.Solutions.Len() == 0
}

// ResultArchive collects records on the consumer side.
// It is safe for concurrent use.
type ResultArchive struct {
	mu  sync.Mutex
	byN map[int64]Record
}

// NewResultArchive creates an empty archive.
func NewResultArchive() *ResultArchive {
	return &ResultArchive{byN: make(map[int64]Record)}
}

// Add stores rec. Exactly one record per n is allowed.
func (a *ResultArchive) Add(rec Record) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.byN[rec.N]; ok {
		return fmt.Errorf("n=%d: %w", rec.N, ErrDuplicateRecord)
	}
	a.byN[rec.N] = rec
	return nil
}

// Get returns the record for n, if archived.
func (a *ResultArchive) Get(n int64) (Record, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	rec, ok := a.byN[n]
	return rec, ok
}

// Len returns the number of archived records.
func (a *ResultArchive) Len() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.byN)
}

// Records returns all records sorted ascending by n.
func (a *ResultArchive) Records() []Record {
	a.mu.Lock()
	out := make([]Record, 0, len(a.byN))
	for _, rec := range a.byN {
		out = append(out, rec)
	}
	a.mu.Unlock()

	slices.SortFunc(out, func(x, y Record) int {
		switch {
		case x.N < y.N:
			return -1
		case x.N > y.N:
			return 1
		default:
			return 0
		}
	})
	return out
}

// TotalSolutions sums the solution counts over all records.
func (a *ResultArchive) TotalSolutions() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	total := 0
	for _, rec := range a.byN {
		total += rec.Solutions.Len()
	}
	return total
}
