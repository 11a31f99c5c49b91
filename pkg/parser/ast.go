package parser

import (
	"strconv"
	"strings"

	"github.com/leapstack-labs/polyscan/pkg/token"
)

// Expr is a node in a parsed expression tree.
type Expr interface {
	exprNode()
	Pos() Position
	String() string
}

// NumberLit is a numeric literal. Integral literals keep their exact
// integer value in Int with IsInt set.
type NumberLit struct {
	Literal string
	Value   float64
	Int     int64
	IsInt   bool
	At      Position
}

// Ident is a variable reference.
type Ident struct {
	Name string
	At   Position
}

// UnaryExpr is a prefix operation (-x, +x).
type UnaryExpr struct {
	Op token.TokenType
	X  Expr
	At Position
}

// BinaryExpr is an infix operation.
type BinaryExpr struct {
	Left  Expr
	Op    token.TokenType
	Right Expr
	At    Position
}

func (*NumberLit) exprNode()  {}
func (*Ident) exprNode()      {}
func (*UnaryExpr) exprNode()  {}
func (*BinaryExpr) exprNode() {}

func (n *NumberLit) Pos() Position  { return n.At }
func (n *Ident) Pos() Position      { return n.At }
func (n *UnaryExpr) Pos() Position  { return n.At }
func (n *BinaryExpr) Pos() Position { return n.At }

func (n *NumberLit) String() string {
	if n.IsInt {
		return strconv.FormatInt(n.Int, 10)
	}
	return strconv.FormatFloat(n.Value, 'g', -1, 64)
}

func (n *Ident) String() string { return n.Name }

func (n *UnaryExpr) String() string {
	return "(" + n.Op.String() + n.X.String() + ")"
}

func (n *BinaryExpr) String() string {
	var sb strings.Builder
	sb.WriteByte('(')
	sb.WriteString(n.Left.String())
	sb.WriteByte(' ')
	sb.WriteString(n.Op.String())
	sb.WriteByte(' ')
	sb.WriteString(n.Right.String())
	sb.WriteByte(')')
	return sb.String()
}

// Walk visits e and its children depth-first, left to right. If fn returns
// false the children of that node are skipped.
func Walk(e Expr, fn func(Expr) bool) {
	if e == nil || !fn(e) {
		return
	}
	switch n := e.(type) {
	case *UnaryExpr:
		Walk(n.X, fn)
	case *BinaryExpr:
		Walk(n.Left, fn)
		Walk(n.Right, fn)
	}
}

// Idents returns the distinct identifier names referenced by e in order
// of first appearance.
func Idents(e Expr) []string {
	seen := make(map[string]struct{})
	var names []string
	Walk(e, func(node Expr) bool {
		if id, ok := node.(*Ident); ok {
			if _, dup := seen[id.Name]; !dup {
				seen[id.Name] = struct{}{}
				names = append(names, id.Name)
			}
		}
		return true
	})
	return names
}
