package expression

import (
	"fmt"
	"math"

	"github.com/leapstack-labs/polyscan/pkg/core"
)

// EvaluationError reports a point where the residual is not a finite number,
// such as division by zero or a negative base under a fractional exponent.
type EvaluationError struct {
	Values []int64
	Target int64
	Result float64
}

func (e *EvaluationError) Error() string {
	reason := "non-finite result"
	if math.IsNaN(e.Result) {
		reason = "undefined result"
	}
	return fmt.Sprintf("evaluation failed at %s, n=%d: %s", core.Tuple(e.Values), e.Target, reason)
}
