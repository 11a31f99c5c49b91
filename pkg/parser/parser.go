// Package parser parses polynomial expressions over integer variables.
//
// # Usage
//
//	expr, err := parser.Parse("x**3 + y**3 + z**3")
//	if err != nil {
//	    // handle error
//	}
//
// # Grammar Overview
//
//	expr    → term (('+' | '-') term)*
//	term    → unary (('*' | '/' | '%') unary)*
//	unary   → ('-' | '+') unary | power
//	power   → primary (('**' | '^') unary)?
//	primary → NUMBER | IDENT | '(' expr ')'
//
// Exponentiation is right-associative and binds tighter than unary minus,
// so -x**2 parses as -(x**2) and 2**3**2 as 2**(3**2).
package parser

import (
	"fmt"
	"strconv"
	"strings"
)

// Precedence levels.
const (
	PrecedenceNone     = 0
	PrecedenceAddition = 1 // +, -
	PrecedenceMultiply = 2 // *, /, %
	PrecedenceUnary    = 3 // -x, +x
	PrecedencePower    = 4 // **, ^
)

// Parser parses expression input into an AST.
type Parser struct {
	lexer  *Lexer
	token  Token // current token
	peek   Token // lookahead token
	errors []error
}

// NewParser creates a new parser for the given input.
func NewParser(input string) *Parser {
	p := &Parser{lexer: NewLexer(input)}
	// Read two tokens to initialize current and peek
	p.nextToken()
	p.nextToken()
	return p
}

// Parse parses input and returns the expression tree. The first error
// encountered is returned.
func Parse(input string) (Expr, error) {
	if strings.TrimSpace(input) == "" {
		return nil, &ParseError{Pos: Position{Line: 1, Column: 1}, Message: ErrEmptyExpression}
	}

	p := NewParser(input)
	expr := p.parseExpression()
	if len(p.errors) == 0 {
		switch p.token.Type {
		case TOKEN_EOF:
		case TOKEN_ILLEGAL:
			p.errors = append(p.errors, &LexError{Pos: p.token.Pos, Message: fmt.Sprintf(ErrIllegalCharacter, p.token.Literal)})
		default:
			p.addError(fmt.Sprintf(ErrTrailingInput, p.token))
		}
	}
	if len(p.errors) > 0 {
		return nil, p.errors[0]
	}
	return expr, nil
}

// Errors returns all errors collected so far.
func (p *Parser) Errors() []error {
	return p.errors
}

// ---------- Token Helpers ----------

func (p *Parser) nextToken() {
	p.token = p.peek
	p.peek = p.lexer.NextToken()
}

func (p *Parser) expect(t TokenType) bool {
	if p.token.Type != t {
		p.addError(fmt.Sprintf(ErrUnexpectedToken, p.token, t))
		return false
	}
	p.nextToken()
	return true
}

func (p *Parser) addError(msg string) {
	p.errors = append(p.errors, &ParseError{Pos: p.token.Pos, Message: msg})
}

// ---------- Expressions ----------

func (p *Parser) parseExpression() Expr {
	return p.parseExpressionWithPrecedence(PrecedenceNone + 1)
}

// parseExpressionWithPrecedence implements Pratt parsing.
func (p *Parser) parseExpressionWithPrecedence(minPrecedence int) Expr {
	left := p.parsePrefixExpr()
	if left == nil {
		return nil
	}

	for {
		prec := infixPrecedence(p.token.Type)
		if prec < minPrecedence {
			break
		}

		left = p.parseInfixExpr(left, prec)
		if left == nil {
			break
		}
	}

	return left
}

func (p *Parser) parsePrefixExpr() Expr {
	switch p.token.Type {
	case TOKEN_MINUS, TOKEN_PLUS:
		op := p.token
		p.nextToken()
		x := p.parseExpressionWithPrecedence(PrecedenceUnary)
		if x == nil {
			return nil
		}
		return &UnaryExpr{Op: op.Type, X: x, At: op.Pos}
	default:
		return p.parsePrimary()
	}
}

func infixPrecedence(t TokenType) int {
	switch t {
	case TOKEN_PLUS, TOKEN_MINUS:
		return PrecedenceAddition
	case TOKEN_STAR, TOKEN_SLASH, TOKEN_PERCENT:
		return PrecedenceMultiply
	case TOKEN_POW:
		return PrecedencePower
	default:
		return PrecedenceNone
	}
}

func (p *Parser) parseInfixExpr(left Expr, prec int) Expr {
	op := p.token
	p.nextToken()

	var right Expr
	if op.Type == TOKEN_POW {
		// Right-associative; the exponent may carry its own sign.
		right = p.parseExpressionWithPrecedence(PrecedenceUnary)
	} else {
		right = p.parseExpressionWithPrecedence(prec + 1)
	}
	if right == nil {
		return nil
	}

	return &BinaryExpr{Left: left, Op: op.Type, Right: right, At: op.Pos}
}

func (p *Parser) parsePrimary() Expr {
	tok := p.token

	switch tok.Type {
	case TOKEN_NUMBER:
		p.nextToken()
		return p.parseNumber(tok)

	case TOKEN_IDENT:
		p.nextToken()
		return &Ident{Name: tok.Literal, At: tok.Pos}

	case TOKEN_LPAREN:
		p.nextToken()
		inner := p.parseExpression()
		if inner == nil {
			return nil
		}
		if !p.expect(TOKEN_RPAREN) {
			return nil
		}
		return inner

	case TOKEN_ILLEGAL:
		p.errors = append(p.errors, &LexError{Pos: tok.Pos, Message: fmt.Sprintf(ErrIllegalCharacter, tok.Literal)})
		return nil

	default:
		p.addError(fmt.Sprintf(ErrUnexpectedToken, tok, "expression"))
		return nil
	}
}

func (p *Parser) parseNumber(tok Token) Expr {
	lit := &NumberLit{Literal: tok.Literal, At: tok.Pos}

	if !strings.Contains(tok.Literal, ".") {
		if i, err := strconv.ParseInt(tok.Literal, 10, 64); err == nil {
			lit.Int = i
			lit.IsInt = true
			lit.Value = float64(i)
			return lit
		}
	}

	v, err := strconv.ParseFloat(tok.Literal, 64)
	if err != nil {
		p.errors = append(p.errors, &ParseError{Pos: tok.Pos, Message: fmt.Sprintf(ErrInvalidNumber, tok.Literal)})
		return nil
	}
	lit.Value = v
	return lit
}
