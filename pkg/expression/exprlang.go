package expression

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/parser"
	"github.com/leapstack-labs/polyscan/pkg/token"
)

// compileExprLang compiles the residual into an expr-lang program. The
// environment declares every variable and n as float64 so the program is
// type-checked once at compile time.
func compileExprLang(ast parser.Expr, variables []string) (pointFunc, error) {
	env := make(map[string]any, len(variables)+1)
	for _, v := range variables {
		env[v] = 0.0
	}
	env[core.TargetSymbol] = 0.0

	program, err := expr.Compile(renderExprLang(ast), exprOpts(env)...)
	if err != nil {
		return nil, fmt.Errorf("compile expression: %w", err)
	}

	return func(values []int64, target int64) float64 {
		vars := make(map[string]any, len(values)+1)
		for i, name := range variables {
			vars[name] = float64(values[i])
		}
		vars[core.TargetSymbol] = float64(target)

		out, err := vm.Run(program, vars)
		if err != nil {
			return math.NaN()
		}
		f, ok := out.(float64)
		if !ok {
			return math.NaN()
		}
		return f
	}, nil
}

func exprOpts(env map[string]any) []expr.Option {
	return []expr.Option{
		expr.Env(env),
		expr.AsFloat64(),
		expr.Function("__mod", func(params ...any) (any, error) {
			return floorMod(params[0].(float64), params[1].(float64)), nil
		},
			new(func(float64, float64) float64)),
		expr.Function("__pow", func(params ...any) (any, error) {
			return pow(params[0].(float64), params[1].(float64)), nil
		},
			new(func(float64, float64) float64)),
	}
}

// renderExprLang prints the AST in expr-lang syntax. Literals are rendered
// as floats and power and modulo go through helper functions so that both
// backends share the same arithmetic.
func renderExprLang(node parser.Expr) string {
	switch n := node.(type) {
	case *parser.NumberLit:
		s := strconv.FormatFloat(n.Value, 'g', -1, 64)
		if !strings.ContainsAny(s, ".eE") {
			s += ".0"
		}
		return s
	case *parser.Ident:
		return n.Name
	case *parser.UnaryExpr:
		return "(" + n.Op.String() + renderExprLang(n.X) + ")"
	case *parser.BinaryExpr:
		l, r := renderExprLang(n.Left), renderExprLang(n.Right)
		switch n.Op {
		case token.POW:
			return "__pow(" + l + ", " + r + ")"
		case token.PERCENT:
			return "__mod(" + l + ", " + r + ")"
		default:
			return "(" + l + " " + n.Op.String() + " " + r + ")"
		}
	}
	return "nan"
}
