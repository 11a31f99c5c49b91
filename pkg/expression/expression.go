// Package expression compiles polynomial expressions into evaluators of
// the residual expression(vars, n) - n over integer points.
package expression

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strings"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/parser"
	"github.com/leapstack-labs/polyscan/pkg/token"
)

// ParseError is returned by Compile for syntax errors and undeclared symbols.
type ParseError = parser.ParseError

// ErrAssignment is returned by Evaluate when the assignment does not cover
// exactly the declared variables.
var ErrAssignment = errors.New("assignment does not match declared variables")

// Backend selects the evaluation strategy.
type Backend string

// Available backends.
const (
	BackendNative Backend = "native"
	BackendExpr   Backend = "expr"
)

// Backends lists the valid backend names.
func Backends() []Backend {
	return []Backend{BackendNative, BackendExpr}
}

// ParseBackend validates a backend name. The empty string selects the native backend.
func ParseBackend(s string) (Backend, error) {
	switch b := Backend(strings.ToLower(strings.TrimSpace(s))); b {
	case "":
		return BackendNative, nil
	case BackendNative, BackendExpr:
		return b, nil
	default:
		return "", fmt.Errorf("unknown evaluator %q (want one of %v)", s, Backends())
	}
}

// pointFunc evaluates the residual at a positional tuple.
type pointFunc func(values []int64, target int64) float64

// Expression is a compiled, immutable polynomial residual. It is safe for
// concurrent use and implements core.Evaluator.
type Expression struct {
	source    string
	variables []string
	residual  parser.Expr
	backend   Backend
	eval      pointFunc
}

var _ core.Evaluator = (*Expression)(nil)

// Option configures Compile.
type Option func(*compileOptions)

type compileOptions struct {
	backend Backend
}

// WithBackend selects the evaluation backend.
func WithBackend(b Backend) Option {
	return func(o *compileOptions) {
		o.backend = b
	}
}

// Compile parses text and binds it to the declared variables. Every free
// symbol must be a declared variable or the target symbol n.
func Compile(text string, variables []string, opts ...Option) (*Expression, error) {
	o := compileOptions{backend: BackendNative}
	for _, opt := range opts {
		opt(&o)
	}

	if err := core.ValidateVariables(variables); err != nil {
		return nil, fmt.Errorf("invalid variables: %w", err)
	}

	ast, err := parser.Parse(text)
	if err != nil {
		return nil, err
	}

	if err := checkSymbols(ast, variables); err != nil {
		return nil, err
	}

	residual := &parser.BinaryExpr{
		Left:  ast,
		Op:    token.MINUS,
		Right: &parser.Ident{Name: core.TargetSymbol},
	}

	e := &Expression{
		source:    text,
		variables: slices.Clone(variables),
		residual:  residual,
		backend:   o.backend,
	}

	switch o.backend {
	case BackendNative:
		e.eval = compileNative(residual, e.variables)
	case BackendExpr:
		e.eval, err = compileExprLang(residual, e.variables)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unknown evaluator %q", o.backend)
	}

	return e, nil
}

func checkSymbols(ast parser.Expr, variables []string) error {
	var firstErr error
	parser.Walk(ast, func(node parser.Expr) bool {
		if firstErr != nil {
			return false
		}
		id, ok := node.(*parser.Ident)
		if ok && id.Name != core.TargetSymbol && !slices.Contains(variables, id.Name) {
			firstErr = &ParseError{Pos: id.At, Message: fmt.Sprintf("undeclared symbol %q", id.Name)}
		}
		return true
	})
	return firstErr
}

// Source returns the expression text as given to Compile.
func (e *Expression) Source() string { return e.source }

// Variables returns the declared variables in positional order.
func (e *Expression) Variables() []string { return slices.Clone(e.variables) }

// Backend returns the backend the expression was compiled for.
func (e *Expression) Backend() Backend { return e.backend }

// String returns the canonical parenthesised residual.
func (e *Expression) String() string { return e.residual.String() }

// EvaluatePoint returns expression(values, target) - target.
func (e *Expression) EvaluatePoint(values []int64, target int64) (float64, error) {
	if len(values) != len(e.variables) {
		return 0, fmt.Errorf("got %d values for %d variables: %w", len(values), len(e.variables), ErrAssignment)
	}
	r := e.eval(values, target)
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0, &EvaluationError{Values: slices.Clone(values), Target: target, Result: r}
	}
	return r, nil
}

// Evaluate is EvaluatePoint over a named assignment.
func (e *Expression) Evaluate(assignment map[string]int64, target int64) (float64, error) {
	if len(assignment) != len(e.variables) {
		return 0, fmt.Errorf("got %d keys for %d variables: %w", len(assignment), len(e.variables), ErrAssignment)
	}
	values := make([]int64, len(e.variables))
	for i, name := range e.variables {
		v, ok := assignment[name]
		if !ok {
			return 0, fmt.Errorf("missing %q: %w", name, ErrAssignment)
		}
		values[i] = v
	}
	return e.EvaluatePoint(values, target)
}
