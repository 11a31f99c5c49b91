package engine

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

// EventKind identifies the kind of a run event.
type EventKind int

// Event kinds.
const (
	EventProgress EventKind = iota + 1
	EventResult
	EventFinished
	EventError
)

var eventKindNames = map[EventKind]string{
	EventProgress: "progress",
	EventResult:   "n_result",
	EventFinished: "finished",
	EventError:    "error",
}

func (k EventKind) String() string {
	if name, ok := eventKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("EventKind(%d)", int(k))
}

// MarshalText encodes the kind by name.
func (k EventKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Event is one notification from a running search.
//
// Per fully scanned n the engine emits an EventResult followed by an
// EventProgress. Every run ends with exactly one EventFinished or
// EventError, after which the channel is closed.
type Event struct {
	Kind  EventKind `json:"kind"`
	RunID string    `json:"run_id"`

	// Progress
	Processed int64   `json:"processed,omitempty"`
	Total     int64   `json:"total,omitempty"`
	Fraction  float64 `json:"fraction,omitempty"`

	// Result
	Record *core.Record `json:"record,omitempty"`

	// Finished
	Status core.RunStatus `json:"status,omitempty"`

	// Error
	Err error `json:"-"`
}

// Percent returns the progress as a whole percentage, rounded down.
func (e Event) Percent() int {
	if e.Total <= 0 {
		return 0
	}
	if e.Processed > math.MaxInt64/100 {
		return int(e.Fraction * 100)
	}
	return int(e.Processed * 100 / e.Total)
}

// Message returns the error text of an EventError.
func (e Event) Message() string {
	if e.Err == nil {
		return ""
	}
	return e.Err.Error()
}

func progressEvent(runID string, processed, total int64) Event {
	return Event{
		Kind:      EventProgress,
		RunID:     runID,
		Processed: processed,
		Total:     total,
		Fraction:  float64(processed) / float64(total),
	}
}
