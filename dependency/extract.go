// Package dependency implements the Dependency Extractor and Dependency
// Categorizer phases (§4.5, §4.6): turning a parsed statement into the raw
// table-reference strings it touches, then classifying each against the
// project's known nodes and declared external tables.
package dependency

import (
	"strings"

	"github.com/datastx/Feather-Flow-sub001/parser"
)

// RawRef is one table reference as written in the source, before
// classification: the dot-joined schema-qualified name plus the
// case-folded last component used for matching.
type RawRef struct {
	Name string // as written, e.g. "raw.orders" or "orders"
	Key  string // strings.ToLower of the last dot-separated component
}

// Extract visits every relation in stmt's FROM/JOIN tree, plus any scalar
// subquery reachable from the projection list, WHERE, and HAVING clauses,
// and returns the set of raw table references with CTE-local names
// excluded (§4.5). Order is stable (first-seen) and each name appears once.
func Extract(stmt *parser.Statement) []RawRef {
	if stmt == nil || stmt.Select == nil {
		return nil
	}

	c := &collector{seen: make(map[string]bool)}
	c.walkSelect(stmt.Select)

	return c.refs
}

type collector struct {
	refs []RawRef
	seen map[string]bool
}

func (c *collector) walkSelect(sel *parser.SelectStatement) {
	if sel == nil {
		return
	}

	cteNames := make(map[string]bool)
	if sel.With != nil {
		for _, cte := range sel.With.CTEs {
			cteNames[strings.ToLower(cte.Name)] = true
			c.walkSelect(cte.Query)
		}
	}

	for _, ref := range sel.From {
		c.walkTableRef(ref, cteNames)
	}

	for _, item := range sel.Items {
		c.walkExpr(item.Expr)
	}
	c.walkExpr(sel.Where)
	c.walkExpr(sel.Having)
}

func (c *collector) walkTableRef(ref parser.TableRef, cteNames map[string]bool) {
	switch {
	case ref.Join != nil:
		c.walkTableRef(ref.Join.Left, cteNames)
		c.walkTableRef(ref.Join.Right, cteNames)
		c.walkExpr(ref.Join.On)
	case ref.Subquery != nil:
		c.walkSelect(ref.Subquery)
	case ref.Table != "":
		key := strings.ToLower(ref.Table)
		if cteNames[key] {
			return
		}

		name := ref.Table
		if ref.Schema != "" {
			name = ref.Schema + "." + ref.Table
		}
		c.add(name, key)
	}
}

// walkExpr only needs to find ScalarSubquery nodes: every other Expr kind
// either has no table references or recurses through one that does.
func (c *collector) walkExpr(e parser.Expr) {
	if e == nil {
		return
	}

	switch v := e.(type) {
	case *parser.ScalarSubquery:
		c.walkSelect(v.Query)
	case *parser.UnaryExpr:
		c.walkExpr(v.Operand)
	case *parser.BinaryExpr:
		c.walkExpr(v.Left)
		c.walkExpr(v.Right)
	case *parser.FunctionCall:
		for _, arg := range v.Args {
			c.walkExpr(arg)
		}
		if v.Over != nil {
			for _, p := range v.Over.PartitionBy {
				c.walkExpr(p)
			}
		}
	case *parser.CaseExpr:
		c.walkExpr(v.Operand)
		for _, when := range v.Whens {
			c.walkExpr(when.Condition)
			c.walkExpr(when.Result)
		}
		c.walkExpr(v.Else)
	}
}

func (c *collector) add(name, key string) {
	if c.seen[key] {
		return
	}
	c.seen[key] = true
	c.refs = append(c.refs, RawRef{Name: name, Key: key})
}
