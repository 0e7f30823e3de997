package parser

import (
	"fmt"

	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// Finding is one structural violation. The compile pipeline's diagnostic
// layer wraps these into its own Diagnostic type (carrying model name and
// severity); this package stays unaware of the project-wide diagnostic shape
// so it can be exercised standalone.
type Finding struct {
	Code     string
	Message  string
	Position tokenizer.Position
}

var disallowedLeadingKeywords = map[string]bool{
	"INSERT":   true,
	"UPDATE":   true,
	"DELETE":   true,
	"DROP":     true,
	"TRUNCATE": true,
}

// Validate walks a parsed Statement and returns every structural violation:
// disallowed DML anywhere in the body (S003), a CTE at any depth (S005), or
// a derived table used as a FROM table factor (S006). Scalar subqueries in
// SELECT/WHERE/HAVING are left untouched; only FROM-position subqueries are
// derived tables.
func Validate(stmt *Statement) []Finding {
	var findings []Finding

	if disallowedLeadingKeywords[stmt.Kind] {
		findings = append(findings, Finding{
			Code:    "S003",
			Message: fmt.Sprintf("disallowed statement kind %q; only SELECT models are supported", stmt.Kind),
		})
	}
	if stmt.TrailingKind != "" && disallowedLeadingKeywords[stmt.TrailingKind] {
		findings = append(findings, Finding{
			Code:    "S003",
			Message: fmt.Sprintf("disallowed statement kind %q found after the model body", stmt.TrailingKind),
		})
	}

	if stmt.Select == nil {
		return findings
	}

	walkSelect(stmt.Select, &findings)
	return findings
}

func walkSelect(sel *SelectStatement, findings *[]Finding) {
	if sel == nil {
		return
	}
	if sel.With != nil {
		*findings = append(*findings, Finding{
			Code:     "S005",
			Message:  "WITH (CTE) clauses are not supported",
			Position: sel.With.Position(),
		})
		for _, cte := range sel.With.CTEs {
			walkSelect(cte.Query, findings)
		}
	}

	for _, item := range sel.Items {
		walkExpr(item.Expr, findings)
	}
	for _, ref := range sel.From {
		walkTableRef(ref, findings)
	}
	walkExpr(sel.Where, findings)
	for _, e := range sel.GroupBy {
		walkExpr(e, findings)
	}
	walkExpr(sel.Having, findings)
	for _, o := range sel.OrderBy {
		walkExpr(o.Expr, findings)
	}
}

// walkTableRef is the only place a ScalarSubquery-shaped node is rejected:
// a SelectStatement reached via TableRef.Subquery is, by construction, a
// derived table (it only appears here when the parser saw "(SELECT ...)" in
// FROM/JOIN position).
func walkTableRef(ref TableRef, findings *[]Finding) {
	if ref.Subquery != nil {
		*findings = append(*findings, Finding{
			Code:     "S006",
			Message:  "derived tables (subqueries in FROM) are not supported",
			Position: ref.Position(),
		})
		walkSelect(ref.Subquery, findings)
		return
	}
	if ref.Join != nil {
		walkTableRef(ref.Join.Left, findings)
		walkTableRef(ref.Join.Right, findings)
		walkExpr(ref.Join.On, findings)
	}
}

// walkExpr descends into scalar subqueries (SELECT/WHERE/HAVING position)
// without flagging them — only their own nested FROM clauses can still
// contain a derived table or CTE, which is why this keeps recursing.
func walkExpr(e Expr, findings *[]Finding) {
	switch n := e.(type) {
	case nil:
		return
	case *BinaryExpr:
		walkExpr(n.Left, findings)
		walkExpr(n.Right, findings)
	case *UnaryExpr:
		walkExpr(n.Operand, findings)
	case *FunctionCall:
		for _, a := range n.Args {
			walkExpr(a, findings)
		}
		if n.Over != nil {
			for _, p := range n.Over.PartitionBy {
				walkExpr(p, findings)
			}
			for _, o := range n.Over.OrderBy {
				walkExpr(o.Expr, findings)
			}
		}
	case *CaseExpr:
		walkExpr(n.Operand, findings)
		for _, w := range n.Whens {
			walkExpr(w.Condition, findings)
			walkExpr(w.Result, findings)
		}
		walkExpr(n.Else, findings)
	case *ScalarSubquery:
		walkSelect(n.Query, findings)
	}
}
