package parser

import "github.com/datastx/Feather-Flow-sub001/tokenizer"

// Expr is the interface implemented by every expression node. Keeping it
// distinct from Node lets callers pattern-match only against expressions
// (the planner lowers Expr trees, never TableRef/SelectStatement directly).
type Expr interface {
	Node
	ExprType() NodeType
}

type exprBase struct {
	pos tokenizer.Position
}

func (e exprBase) Position() tokenizer.Position { return e.pos }

// ColumnRef is a (possibly qualified) column reference, e.g. "o.total" or "id".
type ColumnRef struct {
	exprBase
	Table  string // optional qualifier
	Column string
}

func (c *ColumnRef) ExprType() NodeType { return NodeColumnRef }
func (c *ColumnRef) String() string {
	if c.Table != "" {
		return c.Table + "." + c.Column
	}
	return c.Column
}

// Star represents "*" or "table.*" in a SELECT list.
type Star struct {
	exprBase
	Table string
}

func (s *Star) ExprType() NodeType { return NodeStar }
func (s *Star) String() string {
	if s.Table != "" {
		return s.Table + ".*"
	}
	return "*"
}

// Literal is a constant scalar: number, string, boolean, or NULL.
type Literal struct {
	exprBase
	Kind  tokenizer.TokenType // tokenizer.NUMBER, STRING, KEYWORD(for NULL/true/false)
	Value string
}

func (l *Literal) ExprType() NodeType { return NodeLiteral }
func (l *Literal) String() string     { return l.Value }

// UnaryExpr is a prefix operator applied to one operand (NOT x, -x).
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

func (u *UnaryExpr) ExprType() NodeType { return NodeUnary }
func (u *UnaryExpr) String() string     { return u.Op + " " + u.Operand.String() }

// BinaryExpr covers arithmetic, comparison, logical, and the handful of
// keyword infix operators (LIKE, IN, IS, BETWEEN, AND, OR).
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

func (b *BinaryExpr) ExprType() NodeType { return NodeBinary }
func (b *BinaryExpr) String() string     { return "(" + b.Left.String() + " " + b.Op + " " + b.Right.String() + ")" }

// FunctionCall covers scalar, aggregate, and window functions alike; the
// planner disambiguates by looking the name up in its function registry.
// Over, when non-nil, marks it as a window function call.
type FunctionCall struct {
	exprBase
	Name     string
	Args     []Expr
	Distinct bool
	Over     *WindowSpec
}

func (f *FunctionCall) ExprType() NodeType { return NodeFunctionCall }
func (f *FunctionCall) String() string     { return f.Name + "(...)" }

// WindowSpec is the OVER(...) clause of a window function call.
type WindowSpec struct {
	PartitionBy []Expr
	OrderBy     []OrderItem
}

// CaseExpr is a CASE WHEN ... THEN ... [ELSE ...] END expression.
type CaseExpr struct {
	exprBase
	Operand Expr // non-nil for "CASE x WHEN ..." form
	Whens   []WhenClause
	Else    Expr
}

func (c *CaseExpr) ExprType() NodeType { return NodeCase }
func (c *CaseExpr) String() string     { return "CASE" }

// WhenClause is one WHEN cond THEN result arm of a CaseExpr.
type WhenClause struct {
	Condition Expr
	Result    Expr
}

// ScalarSubquery wraps a SELECT used where a scalar value is expected
// (permitted inside SELECT/WHERE/HAVING, never as a FROM table factor).
type ScalarSubquery struct {
	exprBase
	Query *SelectStatement
}

func (s *ScalarSubquery) ExprType() NodeType { return NodeSubquery }
func (s *ScalarSubquery) String() string     { return "(SELECT ...)" }
