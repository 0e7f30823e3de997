// Package planner implements IR Lowering and Planning (§4.10): it turns a
// model's parsed SELECT(s) into an ir.Plan, resolving tables against a
// catalog.Catalog, columns against the scope each FROM clause builds, and
// functions against featherflow.BuiltinFunctions plus the caller's UDF
// stubs. Unknown tables raise AE003, unresolved columns AE004, any other
// planning failure AE008 (§4.10's closing sentence).
package planner

import (
	"fmt"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/ir"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// PlanModel lowers rawSQL (already template-rendered) to a logical plan. A
// trailing UNION [ALL] chain is split into branches first; a single branch
// lowers straight through planSelect, multiple branches are wrapped in an
// ir.UnionNode once every branch agrees on column count.
func PlanModel(rawSQL string, dialect tokenizer.SqlDialect, cat *catalog.Catalog, udfs map[string]UDFStub) (ir.Plan, error) {
	branches, err := ir.SplitUnionBranches(rawSQL, dialect)
	if err != nil {
		return nil, err
	}

	plans := make([]ir.Plan, len(branches))
	for i, b := range branches {
		p, err := planSelect(b.Statement.Select, cat, udfs)
		if err != nil {
			return nil, err
		}
		plans[i] = p
	}

	if len(plans) == 1 {
		return plans[0], nil
	}

	width := len(plans[0].Schema().Columns)
	for i, p := range plans[1:] {
		if got := len(p.Schema().Columns); got != width {
			return nil, errPlannerFailure("union branch %d has %d columns, branch 0 has %d", i+1, got, width)
		}
	}

	all := make([]bool, len(branches))
	for i, b := range branches {
		all[i] = b.All
	}

	return ir.NewUnionNode(plans, all, widenUnionSchema(plans)), nil
}

// widenUnionSchema combines each branch's column at position i into one
// column: the first branch's name/type, nullable if any branch is
// nullable at that position.
func widenUnionSchema(plans []ir.Plan) featherflow.RelSchema {
	base := plans[0].Schema().Columns
	out := make([]featherflow.ColumnDecl, len(base))
	copy(out, base)
	for _, p := range plans[1:] {
		for i, c := range p.Schema().Columns {
			if c.Nullability != featherflow.NotNull {
				out[i].Nullability = featherflow.Unknown
			}
		}
	}
	return featherflow.RelSchema{Columns: out}
}

// planSelect lowers one SELECT (never a UNION chain — that's PlanModel's
// job) through FROM, WHERE, GROUP BY, the projection list, ORDER BY, and
// LIMIT/OFFSET in source order.
func planSelect(sel *parser.SelectStatement, cat *catalog.Catalog, udfs map[string]UDFStub) (ir.Plan, error) {
	if len(sel.From) == 0 {
		return nil, errPlannerFailure("SELECT has no FROM clause")
	}

	plan, scope, err := planFrom(sel.From[0], cat)
	if err != nil {
		return nil, err
	}
	for _, extra := range sel.From[1:] {
		// A comma-separated FROM list is an implicit cross join; fold each
		// additional entry in the same way planFrom handles an explicit one.
		rp, rscope, err := planFrom(extra, cat)
		if err != nil {
			return nil, err
		}
		merged := Scope{columns: append(append([]scopeColumn(nil), scope.columns...), rscope.columns...)}
		plan = ir.NewJoinNode(plan, rp, parser.JoinCross, nil, merged.Schema())
		scope = merged
	}

	if sel.Where != nil {
		if _, err := inferExpr(sel.Where, scope, udfs); err != nil {
			return nil, err
		}
		plan = ir.NewFilterNode(plan, sel.Where)
	}

	isAggregate := len(sel.GroupBy) > 0 || projectionHasAggregate(sel.Items)
	if isAggregate {
		for _, g := range sel.GroupBy {
			if _, err := inferExpr(g, scope, udfs); err != nil {
				return nil, err
			}
		}
		// The aggregate node's carried schema is a simplification: it
		// copies the input scope's schema rather than modeling the
		// grouped/aggregated output shape on its own, since the
		// following ProjectNode is what actually determines the model's
		// real output columns and types.
		plan = ir.NewAggregateNode(plan, sel.GroupBy, scope.Schema())
	}

	if sel.Having != nil {
		if _, err := inferExpr(sel.Having, scope, udfs); err != nil {
			return nil, err
		}
	}

	projSchema, err := projectSchema(sel.Items, scope, udfs)
	if err != nil {
		return nil, err
	}
	plan = ir.NewProjectNode(plan, sel.Items, projSchema)

	if len(sel.OrderBy) > 0 {
		for _, o := range sel.OrderBy {
			if _, err := inferExpr(o.Expr, scope, udfs); err != nil {
				return nil, err
			}
		}
		plan = ir.NewSortNode(plan, sel.OrderBy)
	}

	if sel.Limit != nil || sel.Offset != nil {
		for _, bound := range []parser.Expr{sel.Limit, sel.Offset} {
			if bound == nil {
				continue
			}
			if n, ok := parseIntLiteral(bound); ok && n < 0 {
				return nil, errPlannerFailure("LIMIT/OFFSET must not be negative, got %d", n)
			}
		}
		plan = ir.NewLimitNode(plan, sel.Limit, sel.Offset)
	}

	return plan, nil
}

// planFrom lowers one top-level FROM entry: a base table (Scan) or a join
// tree, returning both the plan and the scope visible above it.
func planFrom(ref parser.TableRef, cat *catalog.Catalog) (ir.Plan, Scope, error) {
	if ref.Join != nil {
		return planJoin(*ref.Join, cat)
	}

	// Derived tables (subqueries in FROM) are rejected upstream by S006;
	// only a base table reaches the planner.
	schema, ok := cat.Lookup(qualifiedTable(ref))
	if !ok {
		return nil, Scope{}, errUnknownTable(qualifiedTable(ref))
	}

	alias := ref.Alias
	if alias == "" {
		alias = ref.Table
	}

	scan := ir.NewScanNode(qualifiedTable(ref), alias, schema)
	scope := NewScope().Add(alias, schema)
	return scan, scope, nil
}

func planJoin(j parser.JoinRef, cat *catalog.Catalog) (ir.Plan, Scope, error) {
	left, lscope, err := planFrom(j.Left, cat)
	if err != nil {
		return nil, Scope{}, err
	}
	right, rscope, err := planFrom(j.Right, cat)
	if err != nil {
		return nil, Scope{}, err
	}

	merged := Scope{columns: append(append([]scopeColumn(nil), lscope.columns...), rscope.columns...)}
	node := ir.NewJoinNode(left, right, j.Kind, j.On, merged.Schema())
	return node, merged, nil
}

func qualifiedTable(ref parser.TableRef) string {
	if ref.Schema != "" {
		return ref.Schema + "." + ref.Table
	}
	return ref.Table
}

// projectionHasAggregate reports whether any item in the SELECT list calls
// a registered aggregate function without an OVER clause (a window call
// over an aggregate function doesn't force grouping).
func projectionHasAggregate(items []parser.SelectItem) bool {
	for _, it := range items {
		if exprHasAggregate(it.Expr) {
			return true
		}
	}
	return false
}

func exprHasAggregate(e parser.Expr) bool {
	switch n := e.(type) {
	case *parser.FunctionCall:
		if n.Over == nil {
			if sig, ok := featherflow.BuiltinFunctions[strings.ToUpper(n.Name)]; ok && sig.Kind == featherflow.FunctionAggregate {
				return true
			}
		}
		for _, a := range n.Args {
			if exprHasAggregate(a) {
				return true
			}
		}
	case *parser.UnaryExpr:
		return exprHasAggregate(n.Operand)
	case *parser.BinaryExpr:
		return exprHasAggregate(n.Left) || exprHasAggregate(n.Right)
	case *parser.CaseExpr:
		for _, w := range n.Whens {
			if exprHasAggregate(w.Condition) || exprHasAggregate(w.Result) {
				return true
			}
		}
		if n.Else != nil {
			return exprHasAggregate(n.Else)
		}
	}
	return false
}

// projectSchema computes a ProjectNode's output RelSchema from the SELECT
// list: "*"/"table.*" expand against scope, everything else is typed via
// inferExpr and named via its alias or a generated name.
func projectSchema(items []parser.SelectItem, scope Scope, udfs map[string]UDFStub) (featherflow.RelSchema, error) {
	var cols []featherflow.ColumnDecl
	anon := 0

	for _, it := range items {
		if it.Star {
			table := ""
			if se, ok := it.Expr.(*parser.Star); ok {
				table = se.Table
			}
			cols = append(cols, scope.Expand(table)...)
			continue
		}

		t, err := inferExpr(it.Expr, scope, udfs)
		if err != nil {
			return featherflow.RelSchema{}, err
		}

		name := it.Alias
		if name == "" {
			name = projectionName(it.Expr, &anon)
		}

		nullability := featherflow.Unknown
		if !t.Nullable {
			nullability = featherflow.NotNull
		}
		cols = append(cols, featherflow.ColumnDecl{Name: name, SQLType: t.Type, Nullability: nullability})
	}

	return featherflow.RelSchema{Columns: cols}, nil
}

// projectionName derives an output column name for an unaliased
// projection item: a bare column keeps its own name, a function call
// takes the function's name, anything else falls back to a generated
// "col_N" the way a model author would be expected to alias manually.
func projectionName(e parser.Expr, anon *int) string {
	switch n := e.(type) {
	case *parser.ColumnRef:
		return n.Column
	case *parser.FunctionCall:
		return strings.ToLower(n.Name)
	default:
		*anon++
		return fmt.Sprintf("col_%d", *anon)
	}
}
