// Package ephemeral implements the Ephemeral Inliner (§4.14): ephemeral
// models are never materialized, so every reference to one is rewritten
// into a WITH prefix on whichever statement actually consumes it.
package ephemeral

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// inlined is what an already-processed ephemeral model leaves behind: the
// full, flattened chain of CTEs (its own transitive ephemeral
// dependencies, in dependency order, followed by its own definition)
// needed to stand its body up on its own.
type inlined struct {
	ctes []parser.CTEDefinition
}

// Inline rewrites every model's AST in place, turning FROM/subquery
// references to an ephemeral model into a reference to a same-named CTE,
// and attaching the CTE definitions it pulled in to that statement's own
// WITH clause. order must be a topological build order: an ephemeral
// model's own upstream ephemeral references are resolved before it is
// itself eligible to be inlined into anything downstream, so a chain of
// ephemeral-on-ephemeral models is fully flattened by the time it
// reaches its first non-ephemeral consumer.
func Inline(order []string, nodes map[string]*featherflow.Node) {
	known := make(map[string]inlined)

	for _, name := range order {
		node, ok := nodes[name]
		if !ok || node.Kind != featherflow.KindModel || node.Statement == nil || node.Statement.Select == nil {
			continue
		}
		sel := node.Statement.Select
		merged, used := processSelect(sel, known)

		if node.IsEphemeral() {
			own := append(append([]parser.CTEDefinition{}, merged...),
				parser.CTEDefinition{Name: node.Name, Query: sel})
			known[strings.ToLower(name)] = inlined{ctes: own}
			continue
		}

		if used {
			sel.With = &parser.WithClause{CTEs: merged}
		}
	}
}

// processSelect rewrites every ephemeral reference reachable from sel's
// own FROM list and expressions, returning the deduplicated, ordered set
// of CTEs sel itself needs attached to run standalone.
func processSelect(sel *parser.SelectStatement, known map[string]inlined) ([]parser.CTEDefinition, bool) {
	var merged []parser.CTEDefinition
	seen := map[string]bool{}
	used := false

	for i := range sel.From {
		if walkTableRef(&sel.From[i], known, &merged, seen) {
			used = true
		}
	}

	for _, item := range sel.Items {
		walkExprForSubqueries(item.Expr, known)
	}
	walkExprForSubqueries(sel.Where, known)
	for _, g := range sel.GroupBy {
		walkExprForSubqueries(g, known)
	}
	walkExprForSubqueries(sel.Having, known)
	for _, o := range sel.OrderBy {
		walkExprForSubqueries(o.Expr, known)
	}

	return merged, used
}

func walkTableRef(ref *parser.TableRef, known map[string]inlined, merged *[]parser.CTEDefinition, seen map[string]bool) bool {
	if ref.Join != nil {
		l := walkTableRef(&ref.Join.Left, known, merged, seen)
		r := walkTableRef(&ref.Join.Right, known, merged, seen)
		return l || r
	}
	if ref.Table == "" {
		return false
	}
	in, ok := known[strings.ToLower(ref.Table)]
	if !ok {
		return false
	}

	for _, c := range in.ctes {
		key := strings.ToLower(c.Name)
		if seen[key] {
			continue
		}
		seen[key] = true
		*merged = append(*merged, c)
	}

	ref.Catalog = ""
	ref.Schema = ""
	ref.Table = in.ctes[len(in.ctes)-1].Name
	return true
}

// walkExprForSubqueries resolves ephemeral references inside a scalar
// subquery onto that subquery's own WITH clause. A scalar subquery's
// CTEs never bubble up to the statement around it: the subquery is a
// self-contained SELECT, the same way the SQL parser already treats it.
func walkExprForSubqueries(e parser.Expr, known map[string]inlined) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *parser.UnaryExpr:
		walkExprForSubqueries(n.Operand, known)
	case *parser.BinaryExpr:
		walkExprForSubqueries(n.Left, known)
		walkExprForSubqueries(n.Right, known)
	case *parser.FunctionCall:
		for _, a := range n.Args {
			walkExprForSubqueries(a, known)
		}
		if n.Over != nil {
			for _, p := range n.Over.PartitionBy {
				walkExprForSubqueries(p, known)
			}
			for _, o := range n.Over.OrderBy {
				walkExprForSubqueries(o.Expr, known)
			}
		}
	case *parser.CaseExpr:
		walkExprForSubqueries(n.Operand, known)
		for _, w := range n.Whens {
			walkExprForSubqueries(w.Condition, known)
			walkExprForSubqueries(w.Result, known)
		}
		walkExprForSubqueries(n.Else, known)
	case *parser.ScalarSubquery:
		merged, used := processSelect(n.Query, known)
		if used {
			n.Query.With = &parser.WithClause{CTEs: merged}
		}
	}
}
