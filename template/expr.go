package template

// Expr is a template expression node: an identifier path, a literal, a
// function/macro call, or an operator applied to sub-expressions. Unlike
// explang's flat Step list (a single rooted access path), a template
// expression is a small tree, since {% if %}/{% for %} conditions need
// boolean and comparison operators and {{ }} substitutions need function
// calls -- explang only ever describes one access chain rooted at a
// single identifier.
type Expr interface {
	exprTag()
	Position() Position
}

type exprBase struct {
	Pos Position
}

func (e exprBase) Position() Position { return e.Pos }

// Ident is a bare root identifier: `region`, `is_incremental`.
type Ident struct {
	exprBase
	Name string
}

// Member is `expr.field` member access, mirroring explang's StepMember.
type Member struct {
	exprBase
	Target   Expr
	Property string
	Safe     bool // true for `?.`, suppresses the access error and yields nil
}

// Index is `expr[n]` index access, mirroring explang's StepIndex.
type Index struct {
	exprBase
	Target Expr
	Idx    int
	Safe   bool
}

// Literal is a string, number, boolean, or nil constant.
type Literal struct {
	exprBase
	Value any
}

// Call is a function/macro invocation: `var("region", "us-east")`,
// `config(materialized="table")`. Positional arguments populate Args in
// order; keyword arguments (only meaningful to config()) populate Kwargs.
type Call struct {
	exprBase
	Name   string
	Args   []Expr
	Kwargs map[string]Expr
}

// BinaryExpr applies a binary operator: and, or, ==, !=, <, <=, >, >=, +,
// -, *, /, ~ (string concat).
type BinaryExpr struct {
	exprBase
	Op    string
	Left  Expr
	Right Expr
}

// UnaryExpr applies `not` or unary `-`.
type UnaryExpr struct {
	exprBase
	Op      string
	Operand Expr
}

// ListExpr is a literal list: `[1, 2, 3]`, used as the iterable of a
// {% for %} loop or an argument to a macro.
type ListExpr struct {
	exprBase
	Items []Expr
}

func (Ident) exprTag()      {}
func (Member) exprTag()     {}
func (Index) exprTag()      {}
func (Literal) exprTag()    {}
func (Call) exprTag()       {}
func (BinaryExpr) exprTag() {}
func (UnaryExpr) exprTag()  {}
func (ListExpr) exprTag()   {}
