package engine

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

// MaxRadius is the largest accepted lattice radius.
const MaxRadius = math.MaxInt32

// Params describes one search.
type Params struct {
	Expression string
	Variables  []string
	NStart     int64
	NEnd       int64
	Radius     int64
}

// Total returns the number of target values in [NStart, NEnd].
func (p Params) Total() int64 {
	return p.NEnd - p.NStart + 1
}

// InvalidRangeError reports search parameters rejected before any work starts.
type InvalidRangeError struct {
	Field  string
	Reason string
	Err    error
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *InvalidRangeError) Unwrap() error {
	return e.Err
}

// Validate checks the numeric range, the radius and the variable list.
// The expression itself is checked by compilation.
func (p Params) Validate() error {
	if p.NStart > p.NEnd {
		return &InvalidRangeError{Field: "range", Reason: fmt.Sprintf("n_start %d is greater than n_end %d", p.NStart, p.NEnd)}
	}
	if p.NStart <= 0 && p.NEnd >= math.MaxInt64+p.NStart {
		return &InvalidRangeError{Field: "range", Reason: "range holds too many target values"}
	}
	if p.Radius < 0 {
		return &InvalidRangeError{Field: "radius", Reason: fmt.Sprintf("must be non-negative, got %d", p.Radius)}
	}
	if p.Radius > MaxRadius {
		return &InvalidRangeError{Field: "radius", Reason: fmt.Sprintf("must be at most %d, got %d", MaxRadius, p.Radius)}
	}
	if err := core.ValidateVariables(p.Variables); err != nil {
		return &InvalidRangeError{Field: "variables", Reason: err.Error(), Err: err}
	}
	return nil
}

func (p Params) summary() string {
	return fmt.Sprintf("%s over (%s), n in [%d, %d], R=%d",
		p.Expression, strings.Join(p.Variables, ", "), p.NStart, p.NEnd, p.Radius)
}

// ErrRunActive is returned by Start while another run has not finished.
var ErrRunActive = errors.New("a search run is already active")
