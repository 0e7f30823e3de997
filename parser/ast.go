// Package parser turns a rendered SQL string into a typed AST for exactly
// one statement shape: SELECT. Featherflow never models INSERT/UPDATE/DELETE
// beyond recognizing and rejecting them (S003), so there is no AST for them.
package parser

import "github.com/datastx/Feather-Flow-sub001/tokenizer"

// Node is the interface every AST node implements.
type Node interface {
	Position() tokenizer.Position
	String() string
}

// NodeType discriminates expression node kinds for callers that need to
// switch without a type assertion.
type NodeType int

const (
	NodeColumnRef NodeType = iota
	NodeLiteral
	NodeStar
	NodeUnary
	NodeBinary
	NodeFunctionCall
	NodeCase
	NodeSubquery
)

// SelectStatement is the root of a parsed model body.
type SelectStatement struct {
	With        *WithClause // rejected by the validator in a model body (S005); built by the ephemeral inliner
	Distinct    bool
	Items       []SelectItem
	From        []TableRef
	Where       Expr
	GroupBy     []Expr
	Having      Expr
	OrderBy     []OrderItem
	Limit       Expr
	Offset      Expr
	pos         tokenizer.Position
}

func (s *SelectStatement) Position() tokenizer.Position { return s.pos }
func (s *SelectStatement) String() string                { return "SELECT" }

// WithClause holds a WITH list. A model body's own CTEs are rejected (S005);
// the ephemeral inliner builds one to carry inlined dependencies.
type WithClause struct {
	Recursive bool
	CTEs      []CTEDefinition
	pos       tokenizer.Position
}

func (w *WithClause) Position() tokenizer.Position { return w.pos }
func (w *WithClause) String() string                { return "WITH" }

// CTEDefinition names a CTE so the Dependency Extractor can exclude it even
// though Structural Validation will already have failed the model with S005
// before dependency extraction runs.
type CTEDefinition struct {
	Name  string
	Query *SelectStatement
}

// SelectItem is one expression in the projection list, with an optional alias.
type SelectItem struct {
	Expr  Expr
	Alias string
	Star  bool // true for "*" or "table.*"
}

// TableRef is one entry in the FROM clause: a base table, a derived table
// (subquery), or a join of two TableRefs.
type TableRef struct {
	// Exactly one of Table/Subquery/Join is set.
	//
	// Catalog is never populated by the parser itself (the grammar only
	// recognizes a single optional "schema." prefix); the Qualifier fills
	// it in after schema propagation to turn a bare or schema-qualified
	// name into the full catalog.schema.table form (§4.13).
	Catalog  string
	Schema   string
	Table    string
	Alias    string
	Subquery *SelectStatement // non-nil => derived table, rejected by S006
	Join     *JoinRef
	pos      tokenizer.Position
}

func (t TableRef) Position() tokenizer.Position { return t.pos }
func (t TableRef) String() string {
	if t.Join != nil {
		return "JOIN"
	}
	if t.Subquery != nil {
		return "DERIVED_TABLE"
	}
	return "TABLE:" + t.Table
}

// Qualified reports whether this reference already names at least two
// components (schema.table or catalog.schema.table); the Qualifier leaves
// these alone.
func (t TableRef) Qualified() bool {
	return t.Schema != ""
}

// JoinKind enumerates the join types the planner lowers.
type JoinKind int

const (
	JoinInner JoinKind = iota
	JoinLeft
	JoinRight
	JoinFull
	JoinCross
)

// JoinRef joins two table references with an optional ON condition.
type JoinRef struct {
	Kind  JoinKind
	Left  TableRef
	Right TableRef
	On    Expr
}

// OrderItem is one ORDER BY term.
type OrderItem struct {
	Expr Expr
	Desc bool
}
