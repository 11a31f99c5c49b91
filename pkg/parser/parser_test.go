package parser_test

import (
	"testing"

	"github.com/leapstack-labs/polyscan/pkg/parser"
	"github.com/leapstack-labs/polyscan/pkg/token"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ---------- Lexer Tests ----------

func TestLexer_Tokens(t *testing.T) {
	l := parser.NewLexer("x**2 + 3.5*y_1 ^ (n%2) - 7/z")

	want := []struct {
		typ token.TokenType
		lit string
	}{
		{token.IDENT, "x"},
		{token.POW, "**"},
		{token.NUMBER, "2"},
		{token.PLUS, "+"},
		{token.NUMBER, "3.5"},
		{token.STAR, "*"},
		{token.IDENT, "y_1"},
		{token.POW, "^"},
		{token.LPAREN, "("},
		{token.IDENT, "n"},
		{token.PERCENT, "%"},
		{token.NUMBER, "2"},
		{token.RPAREN, ")"},
		{token.MINUS, "-"},
		{token.NUMBER, "7"},
		{token.SLASH, "/"},
		{token.IDENT, "z"},
		{token.EOF, ""},
	}

	for i, w := range want {
		tok := l.NextToken()
		assert.Equal(t, w.typ, tok.Type, "token %d", i)
		assert.Equal(t, w.lit, tok.Literal, "token %d", i)
	}
}

func TestLexer_Positions(t *testing.T) {
	l := parser.NewLexer("a +  bb")

	a := l.NextToken()
	plus := l.NextToken()
	bb := l.NextToken()

	assert.Equal(t, 1, a.Pos.Column)
	assert.Equal(t, 3, plus.Pos.Column)
	assert.Equal(t, 6, bb.Pos.Column)
	assert.Equal(t, 5, bb.Pos.Offset)
}

// ---------- Parser Tests ----------

func TestParse_Precedence(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"sum of cubes", "x**3 + y**3 + z**3", "(((x ** 3) + (y ** 3)) + (z ** 3))"},
		{"caret alias", "x^2", "(x ** 2)"},
		{"power right assoc", "2**3**2", "(2 ** (3 ** 2))"},
		{"unary minus below power", "-x**2", "(-(x ** 2))"},
		{"negative exponent", "2**-1", "(2 ** (-1))"},
		{"subtraction left assoc", "x - y - z", "((x - y) - z)"},
		{"multiply before add", "x + y*z", "(x + (y * z))"},
		{"parentheses", "(x + y)*z", "((x + y) * z)"},
		{"modulo", "x % 3 * 2", "((x % 3) * 2)"},
		{"decimal literal", "0.5*x", "(0.5 * x)"},
		{"unary plus", "+x", "(+x)"},
		{"references n", "x*y - n", "((x * y) - n)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expr, err := parser.Parse(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, expr.String())
		})
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantMsg string
	}{
		{"empty", "", "empty expression"},
		{"blank", "   ", "empty expression"},
		{"dangling operator", "x +", "unexpected token EOF"},
		{"missing paren", "(x + y", "expected )"},
		{"juxtaposition", "x y", "after end of expression"},
		{"implicit multiply", "2x", "after end of expression"},
		{"illegal char", "x $ y", "illegal character"},
		{"stray paren", ")", "unexpected token )"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.input)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestParse_ErrorPosition(t *testing.T) {
	_, err := parser.Parse("x y")
	require.Error(t, err)

	var pe *parser.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 3, pe.Pos.Column)
}

func TestParse_IntegerLiterals(t *testing.T) {
	expr, err := parser.Parse("42")
	require.NoError(t, err)

	lit, ok := expr.(*parser.NumberLit)
	require.True(t, ok)
	assert.True(t, lit.IsInt)
	assert.Equal(t, int64(42), lit.Int)
	assert.InDelta(t, 42.0, lit.Value, 0)
}

func TestIdents(t *testing.T) {
	expr, err := parser.Parse("y*x + x**2 - n + y")
	require.NoError(t, err)

	assert.Equal(t, []string{"y", "x", "n"}, parser.Idents(expr))
}

func TestWalk_SkipChildren(t *testing.T) {
	expr, err := parser.Parse("(a + b) * c")
	require.NoError(t, err)

	var visited []string
	parser.Walk(expr, func(e parser.Expr) bool {
		if id, ok := e.(*parser.Ident); ok {
			visited = append(visited, id.Name)
		}
		// Do not descend into the addition.
		if b, ok := e.(*parser.BinaryExpr); ok && b.Op == token.PLUS {
			return false
		}
		return true
	})
	assert.Equal(t, []string{"c"}, visited)
}
