// Package ir defines Featherflow's logical plan (§3 "Logical plan (IR)",
// §4.10): the tree the planner lowers a model's AST into, with every node
// carrying its own output RelSchema.
package ir

import (
	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// Plan is one logical plan node. Every node knows its own output schema so
// a consumer (the Qualifier, a diagnostic pass, the Schema Propagator)
// never has to re-derive it by walking children.
type Plan interface {
	Kind() string
	Schema() featherflow.RelSchema
	Children() []Plan
}

type base struct {
	schema featherflow.RelSchema
}

func (b base) Schema() featherflow.RelSchema { return b.schema }

// ScanNode reads one base relation (a model, seed, source, or external
// table) from the catalog.
type ScanNode struct {
	base
	Table string
	Alias string
}

func (n *ScanNode) Kind() string     { return "Scan" }
func (n *ScanNode) Children() []Plan { return nil }

// NewScanNode builds a ScanNode with the given output schema.
func NewScanNode(table, alias string, schema featherflow.RelSchema) *ScanNode {
	return &ScanNode{base: base{schema: schema}, Table: table, Alias: alias}
}

// JoinNode combines two inputs; its output schema is the concatenation of
// both sides' columns.
type JoinNode struct {
	base
	Left, Right Plan
	JoinKind    parser.JoinKind
	On          parser.Expr
}

func (n *JoinNode) Kind() string     { return "Join" }
func (n *JoinNode) Children() []Plan { return []Plan{n.Left, n.Right} }

func NewJoinNode(left, right Plan, kind parser.JoinKind, on parser.Expr, schema featherflow.RelSchema) *JoinNode {
	return &JoinNode{base: base{schema: schema}, Left: left, Right: right, JoinKind: kind, On: on}
}

// FilterNode applies a WHERE predicate; it never changes its input's
// schema.
type FilterNode struct {
	base
	Input Plan
	Pred  parser.Expr
}

func (n *FilterNode) Kind() string     { return "Filter" }
func (n *FilterNode) Children() []Plan { return []Plan{n.Input} }

func NewFilterNode(input Plan, pred parser.Expr) *FilterNode {
	return &FilterNode{base: base{schema: input.Schema()}, Input: input, Pred: pred}
}

// AggregateNode groups by a set of expressions and outputs one row per
// group. The schema it carries is whatever the planner passes in, which is
// the input scope's schema; the grouped/aggregated output columns are
// carried only by the ProjectNode above it.
type AggregateNode struct {
	base
	Input   Plan
	GroupBy []parser.Expr
}

func (n *AggregateNode) Kind() string     { return "Aggregate" }
func (n *AggregateNode) Children() []Plan { return []Plan{n.Input} }

func NewAggregateNode(input Plan, groupBy []parser.Expr, schema featherflow.RelSchema) *AggregateNode {
	return &AggregateNode{base: base{schema: schema}, Input: input, GroupBy: groupBy}
}

// ProjectNode computes the final output column list (the SELECT list).
type ProjectNode struct {
	base
	Input Plan
	Items []parser.SelectItem
}

func (n *ProjectNode) Kind() string     { return "Project" }
func (n *ProjectNode) Children() []Plan { return []Plan{n.Input} }

func NewProjectNode(input Plan, items []parser.SelectItem, schema featherflow.RelSchema) *ProjectNode {
	return &ProjectNode{base: base{schema: schema}, Input: input, Items: items}
}

// SortNode orders rows; schema is unchanged from its input.
type SortNode struct {
	base
	Input Plan
	By    []parser.OrderItem
}

func (n *SortNode) Kind() string     { return "Sort" }
func (n *SortNode) Children() []Plan { return []Plan{n.Input} }

func NewSortNode(input Plan, by []parser.OrderItem) *SortNode {
	return &SortNode{base: base{schema: input.Schema()}, Input: input, By: by}
}

// LimitNode bounds the row count; schema is unchanged from its input.
type LimitNode struct {
	base
	Input        Plan
	Limit, Offset parser.Expr
}

func (n *LimitNode) Kind() string     { return "Limit" }
func (n *LimitNode) Children() []Plan { return []Plan{n.Input} }

func NewLimitNode(input Plan, limit, offset parser.Expr) *LimitNode {
	return &LimitNode{base: base{schema: input.Schema()}, Input: input, Limit: limit, Offset: offset}
}

// UnionNode combines the output of N branch plans into one relation; all
// branches must already agree on column count (the planner validates this
// and fails with AE008 otherwise; no A003 diagnostic is raised for it), and
// the resulting schema widens each
// column's nullability/type across branches.
type UnionNode struct {
	base
	Branches []Plan
	All      []bool // All[i] is true when branch i joined via UNION ALL
}

func (n *UnionNode) Kind() string { return "Union" }
func (n *UnionNode) Children() []Plan {
	return n.Branches
}

func NewUnionNode(branches []Plan, all []bool, schema featherflow.RelSchema) *UnionNode {
	return &UnionNode{base: base{schema: schema}, Branches: branches, All: all}
}
