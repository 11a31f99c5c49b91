package expression

import (
	"math"
	"slices"

	"github.com/leapstack-labs/polyscan/pkg/core"
	"github.com/leapstack-labs/polyscan/pkg/parser"
	"github.com/leapstack-labs/polyscan/pkg/token"
)

// maxFixedExponent bounds exponents compiled into repeated squaring.
const maxFixedExponent = 1 << 20

// compileNative turns the AST into a tree of closures. Identifiers are
// resolved to tuple positions once; constant subtrees are folded.
func compileNative(ast parser.Expr, variables []string) pointFunc {
	return compileNode(ast, variables)
}

func compileNode(node parser.Expr, variables []string) pointFunc {
	if c, ok := constValue(node); ok {
		return func([]int64, int64) float64 { return c }
	}

	switch n := node.(type) {
	case *parser.Ident:
		if n.Name == core.TargetSymbol {
			return func(_ []int64, target int64) float64 { return float64(target) }
		}
		i := slices.Index(variables, n.Name)
		return func(values []int64, _ int64) float64 { return float64(values[i]) }

	case *parser.UnaryExpr:
		x := compileNode(n.X, variables)
		if n.Op == token.MINUS {
			return func(v []int64, t int64) float64 { return -x(v, t) }
		}
		return x

	case *parser.BinaryExpr:
		left := compileNode(n.Left, variables)
		if n.Op == token.POW {
			if exp, ok := constValue(n.Right); ok && isFixedExponent(exp) {
				k := int64(exp)
				return func(v []int64, t int64) float64 { return powInt(left(v, t), k) }
			}
		}
		right := compileNode(n.Right, variables)
		op := binaryOp(n.Op)
		return func(v []int64, t int64) float64 { return op(left(v, t), right(v, t)) }
	}

	return func([]int64, int64) float64 { return math.NaN() }
}

// constValue evaluates node if it references no identifiers.
func constValue(node parser.Expr) (float64, bool) {
	switch n := node.(type) {
	case *parser.NumberLit:
		return n.Value, true
	case *parser.UnaryExpr:
		x, ok := constValue(n.X)
		if !ok {
			return 0, false
		}
		if n.Op == token.MINUS {
			return -x, true
		}
		return x, true
	case *parser.BinaryExpr:
		l, ok := constValue(n.Left)
		if !ok {
			return 0, false
		}
		r, ok := constValue(n.Right)
		if !ok {
			return 0, false
		}
		return binaryOp(n.Op)(l, r), true
	}
	return 0, false
}

func binaryOp(op token.TokenType) func(a, b float64) float64 {
	switch op {
	case token.PLUS:
		return func(a, b float64) float64 { return a + b }
	case token.MINUS:
		return func(a, b float64) float64 { return a - b }
	case token.STAR:
		return func(a, b float64) float64 { return a * b }
	case token.SLASH:
		return func(a, b float64) float64 { return a / b }
	case token.PERCENT:
		return floorMod
	case token.POW:
		return pow
	default:
		return func(float64, float64) float64 { return math.NaN() }
	}
}

func isFixedExponent(e float64) bool {
	return e == math.Trunc(e) && math.Abs(e) <= maxFixedExponent
}

// pow is exact on integral exponents and defers to math.Pow otherwise.
// A negative base under a fractional exponent yields NaN.
func pow(base, exp float64) float64 {
	if isFixedExponent(exp) {
		return powInt(base, int64(exp))
	}
	return math.Pow(base, exp)
}

// powInt computes base**k by repeated squaring.
func powInt(base float64, k int64) float64 {
	if k < 0 {
		return 1 / powInt(base, -k)
	}
	result := 1.0
	for k > 0 {
		if k&1 == 1 {
			result *= base
		}
		base *= base
		k >>= 1
	}
	return result
}

// floorMod takes the sign of the divisor, matching floored division.
func floorMod(a, b float64) float64 {
	if b == 0 {
		return math.NaN()
	}
	r := math.Mod(a, b)
	if r != 0 && (r < 0) != (b < 0) {
		r += b
	}
	return r
}
