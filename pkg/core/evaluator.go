package core

// Evaluator computes the residual expression(vars, n) - n at integer points.
// Implementations are immutable and safe for concurrent use.
type Evaluator interface {
	// Variables returns the declared variables in positional order.
	Variables() []string

	// EvaluatePoint evaluates at values, given in Variables() order.
	EvaluatePoint(values []int64, target int64) (float64, error)

	// Evaluate evaluates at a named assignment that must cover exactly
	// the declared variables.
	Evaluate(assignment map[string]int64, target int64) (float64, error)

	// Source returns the expression text the evaluator was compiled from.
	Source() string
}
