// Package sqlwriter renders a parsed, qualified, inlined Statement back to
// SQL text (§4.15). Every earlier phase (Qualifier, Ephemeral Inliner)
// mutates the AST in place rather than the original source string, so the
// Emitter needs a writer that walks the final tree and produces the SQL
// actually compiled, not the SQL the project author typed.
package sqlwriter

import (
	"strconv"
	"strings"

	"github.com/datastx/Feather-Flow-sub001/parser"
)

// Write renders stmt's SELECT back to SQL text.
func Write(stmt *parser.Statement) string {
	var b strings.Builder
	writeSelect(&b, stmt.Select, 0)
	return b.String()
}

func indent(b *strings.Builder, depth int) {
	b.WriteString(strings.Repeat("  ", depth))
}

func writeSelect(b *strings.Builder, sel *parser.SelectStatement, depth int) {
	if sel.With != nil && len(sel.With.CTEs) > 0 {
		b.WriteString("WITH ")
		if sel.With.Recursive {
			b.WriteString("RECURSIVE ")
		}
		for i, cte := range sel.With.CTEs {
			if i > 0 {
				b.WriteString(",\n")
				indent(b, depth)
			}
			b.WriteString(cte.Name)
			b.WriteString(" AS (\n")
			indent(b, depth+1)
			writeSelect(b, cte.Query, depth+1)
			b.WriteString("\n")
			indent(b, depth)
			b.WriteString(")")
		}
		b.WriteString("\n")
		indent(b, depth)
	}

	b.WriteString("SELECT ")
	if sel.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, item := range sel.Items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeSelectItem(b, item)
	}

	if len(sel.From) > 0 {
		b.WriteString("\nFROM ")
		indent(b, depth)
		for i, ref := range sel.From {
			if i > 0 {
				b.WriteString(", ")
			}
			writeTableRef(b, ref, depth)
		}
	}

	if sel.Where != nil {
		b.WriteString("\nWHERE ")
		indent(b, depth)
		writeExpr(b, sel.Where)
	}

	if len(sel.GroupBy) > 0 {
		b.WriteString("\nGROUP BY ")
		indent(b, depth)
		for i, g := range sel.GroupBy {
			if i > 0 {
				b.WriteString(", ")
			}
			writeExpr(b, g)
		}
	}

	if sel.Having != nil {
		b.WriteString("\nHAVING ")
		indent(b, depth)
		writeExpr(b, sel.Having)
	}

	if len(sel.OrderBy) > 0 {
		b.WriteString("\nORDER BY ")
		indent(b, depth)
		writeOrderBy(b, sel.OrderBy)
	}

	if sel.Limit != nil {
		b.WriteString("\nLIMIT ")
		writeExpr(b, sel.Limit)
	}

	if sel.Offset != nil {
		b.WriteString("\nOFFSET ")
		writeExpr(b, sel.Offset)
	}
}

func writeSelectItem(b *strings.Builder, item parser.SelectItem) {
	if item.Star {
		writeExpr(b, item.Expr)
		return
	}
	writeExpr(b, item.Expr)
	if item.Alias != "" {
		b.WriteString(" AS ")
		b.WriteString(item.Alias)
	}
}

func writeOrderBy(b *strings.Builder, items []parser.OrderItem) {
	for i, o := range items {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, o.Expr)
		if o.Desc {
			b.WriteString(" DESC")
		}
	}
}

// qualifiedTableName renders a TableRef's own catalog/schema/table
// components, ignoring any Join/Subquery it might also carry.
func qualifiedTableName(ref parser.TableRef) string {
	parts := make([]string, 0, 3)
	if ref.Catalog != "" {
		parts = append(parts, ref.Catalog)
	}
	if ref.Schema != "" {
		parts = append(parts, ref.Schema)
	}
	parts = append(parts, ref.Table)
	return strings.Join(parts, ".")
}

func writeTableRef(b *strings.Builder, ref parser.TableRef, depth int) {
	switch {
	case ref.Join != nil:
		writeTableRef(b, ref.Join.Left, depth)
		b.WriteString(" ")
		b.WriteString(joinKeyword(ref.Join.Kind))
		b.WriteString(" ")
		writeTableRef(b, ref.Join.Right, depth)
		if ref.Join.On != nil {
			b.WriteString(" ON ")
			writeExpr(b, ref.Join.On)
		}
	case ref.Subquery != nil:
		b.WriteString("(\n")
		indent(b, depth+1)
		writeSelect(b, ref.Subquery, depth+1)
		b.WriteString("\n")
		indent(b, depth)
		b.WriteString(")")
		if ref.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(ref.Alias)
		}
	default:
		b.WriteString(qualifiedTableName(ref))
		if ref.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(ref.Alias)
		}
	}
}

func joinKeyword(kind parser.JoinKind) string {
	switch kind {
	case parser.JoinLeft:
		return "LEFT JOIN"
	case parser.JoinRight:
		return "RIGHT JOIN"
	case parser.JoinFull:
		return "FULL JOIN"
	case parser.JoinCross:
		return "CROSS JOIN"
	default:
		return "JOIN"
	}
}

func writeExpr(b *strings.Builder, e parser.Expr) {
	switch n := e.(type) {
	case *parser.ColumnRef:
		if n.Table != "" {
			b.WriteString(n.Table)
			b.WriteString(".")
		}
		b.WriteString(n.Column)
	case *parser.Star:
		if n.Table != "" {
			b.WriteString(n.Table)
			b.WriteString(".")
		}
		b.WriteString("*")
	case *parser.Literal:
		b.WriteString(n.Value)
	case *parser.UnaryExpr:
		b.WriteString(n.Op)
		b.WriteString(" ")
		writeExpr(b, n.Operand)
	case *parser.BinaryExpr:
		b.WriteString("(")
		writeExpr(b, n.Left)
		b.WriteString(" ")
		b.WriteString(n.Op)
		b.WriteString(" ")
		if rng, ok := n.Right.(*parser.BinaryExpr); ok && strings.HasSuffix(n.Op, "BETWEEN") && rng.Op == "AND" {
			// BETWEEN's "low AND high" range is written bare, not parenthesized.
			writeExpr(b, rng.Left)
			b.WriteString(" AND ")
			writeExpr(b, rng.Right)
		} else {
			writeExpr(b, n.Right)
		}
		b.WriteString(")")
	case *parser.FunctionCall:
		writeFunctionCall(b, n)
	case *parser.CaseExpr:
		writeCaseExpr(b, n)
	case *parser.ScalarSubquery:
		b.WriteString("(")
		writeSelect(b, n.Query, 0)
		b.WriteString(")")
	default:
		b.WriteString(strconv.Quote("unsupported expression"))
	}
}

func writeFunctionCall(b *strings.Builder, f *parser.FunctionCall) {
	if f.Name != "__in_list" { // an IN list is written as a bare parenthesized list
		b.WriteString(f.Name)
	}
	b.WriteString("(")
	if f.Distinct {
		b.WriteString("DISTINCT ")
	}
	for i, a := range f.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		writeExpr(b, a)
	}
	b.WriteString(")")

	if f.Over != nil {
		b.WriteString(" OVER (")
		if len(f.Over.PartitionBy) > 0 {
			b.WriteString("PARTITION BY ")
			for i, p := range f.Over.PartitionBy {
				if i > 0 {
					b.WriteString(", ")
				}
				writeExpr(b, p)
			}
		}
		if len(f.Over.OrderBy) > 0 {
			if len(f.Over.PartitionBy) > 0 {
				b.WriteString(" ")
			}
			b.WriteString("ORDER BY ")
			writeOrderBy(b, f.Over.OrderBy)
		}
		b.WriteString(")")
	}
}

func writeCaseExpr(b *strings.Builder, c *parser.CaseExpr) {
	b.WriteString("CASE")
	if c.Operand != nil {
		b.WriteString(" ")
		writeExpr(b, c.Operand)
	}
	for _, w := range c.Whens {
		b.WriteString(" WHEN ")
		writeExpr(b, w.Condition)
		b.WriteString(" THEN ")
		writeExpr(b, w.Result)
	}
	if c.Else != nil {
		b.WriteString(" ELSE ")
		writeExpr(b, c.Else)
	}
	b.WriteString(" END")
}
