// Package token defines the token types for polynomial expression parsing.
package token

import "fmt"

// TokenType represents the type of a lexical token.
//
//nolint:revive // Accept stutter as token.TokenType is clear and widely used
type TokenType int32

const (
	// Special tokens
	EOF TokenType = iota
	ILLEGAL

	// Literals
	IDENT  // x, y_1
	NUMBER // 3, 2.5

	// Operators
	PLUS    // +
	MINUS   // -
	STAR    // *
	SLASH   // /
	PERCENT // %
	POW     // ** or ^
	LPAREN  // (
	RPAREN  // )
)

var tokenNames = map[TokenType]string{
	EOF:     "EOF",
	ILLEGAL: "ILLEGAL",
	IDENT:   "IDENT",
	NUMBER:  "NUMBER",
	PLUS:    "+",
	MINUS:   "-",
	STAR:    "*",
	SLASH:   "/",
	PERCENT: "%",
	POW:     "**",
	LPAREN:  "(",
	RPAREN:  ")",
}

// String returns the display name of the token type.
func (t TokenType) String() string {
	if name, ok := tokenNames[t]; ok {
		return name
	}
	return fmt.Sprintf("TokenType(%d)", int32(t))
}

// IsOperator returns true if the token type is an arithmetic operator.
func IsOperator(t TokenType) bool {
	return t >= PLUS && t <= POW
}

// Position represents a location in the expression source.
type Position struct {
	Line   int // 1-based line number
	Column int // 1-based column number
	Offset int // 0-based byte offset
}

// IsValid returns true if the position is valid (line > 0).
func (p Position) IsValid() bool {
	return p.Line > 0
}

// Token represents a lexical token with position information.
type Token struct {
	Type    TokenType
	Literal string
	Pos     Position
}

func (t Token) String() string {
	if t.Type == IDENT || t.Type == NUMBER || t.Type == ILLEGAL {
		return fmt.Sprintf("%s(%s)", t.Type, t.Literal)
	}
	return t.Type.String()
}
