package passes

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// nullabilityPass implements the Nullability check (§4.12 A010-A012):
// A010 a column from an outer join's nullable side used without a null
// guard, A011 a YAML-declared NOT NULL column whose projected value
// actually comes straight from such a nullable side, A012 a redundant
// "IS NULL"/"IS NOT NULL" test against a column the catalog already
// knows is NOT NULL.
type nullabilityPass struct{}

func (nullabilityPass) Name() string { return "nullability" }

func (p nullabilityPass) RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	if node.Statement == nil || node.Statement.Select == nil {
		return nil
	}
	sel := node.Statement.Select

	aliasTable := map[string]string{}
	collectAliasTable(sel.From, aliasTable)

	nullableSides := map[string]bool{}
	walkJoins(sel.From, func(j *parser.JoinRef) {
		switch j.Kind {
		case parser.JoinLeft:
			nullableSides[strings.ToLower(tableAlias(j.Right))] = true
		case parser.JoinRight:
			nullableSides[strings.ToLower(tableAlias(j.Left))] = true
		case parser.JoinFull:
			nullableSides[strings.ToLower(tableAlias(j.Left))] = true
			nullableSides[strings.ToLower(tableAlias(j.Right))] = true
		}
	})

	var out []featherflow.Diagnostic
	out = append(out, p.checkRedundantIsNull(node, cat, cfg, aliasTable, sel.Where)...)
	out = append(out, p.checkRedundantIsNull(node, cat, cfg, aliasTable, sel.Having)...)

	if len(nullableSides) > 0 {
		out = append(out, p.checkUnguardedReferences(node, cfg, nullableSides, sel)...)
		out = append(out, p.checkDeclaredNotNullFromNullableSide(node, nullableSides, sel, cfg)...)
	}
	return out
}

func (p nullabilityPass) checkRedundantIsNull(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config, aliasTable map[string]string, e parser.Expr) []featherflow.Diagnostic {
	if e == nil {
		return nil
	}
	var out []featherflow.Diagnostic
	switch n := e.(type) {
	case *parser.BinaryExpr:
		if strings.EqualFold(n.Op, "IS") && isNullLiteral(n.Right) {
			if col, ok := n.Left.(*parser.ColumnRef); ok {
				if nb, found := columnNullability(cat, aliasTable, col); found && nb == featherflow.NotNull {
					out = append(out, diag(cfg, "A012", node.Name,
						"%s.%s is declared NOT NULL; this IS [NOT] NULL test can never change outcome", col.Table, col.Column))
				}
			}
		}
		out = append(out, p.checkRedundantIsNull(node, cat, cfg, aliasTable, n.Left)...)
		out = append(out, p.checkRedundantIsNull(node, cat, cfg, aliasTable, n.Right)...)
	case *parser.UnaryExpr:
		out = append(out, p.checkRedundantIsNull(node, cat, cfg, aliasTable, n.Operand)...)
	}
	return out
}

// checkUnguardedReferences flags any nullable-side column referenced in
// the projection or WHERE outside of a COALESCE(...) call or an IS
// (NOT) NULL test against it, once per offending alias.
func (nullabilityPass) checkUnguardedReferences(node *featherflow.Node, cfg *featherflow.Config, nullableSides map[string]bool, sel *parser.SelectStatement) []featherflow.Diagnostic {
	guarded := map[string]bool{}
	markGuarded(sel.Where, guarded)

	flagged := map[string]bool{}
	var out []featherflow.Diagnostic
	var refs []*parser.ColumnRef
	for _, it := range sel.Items {
		collectColumnRefs(it.Expr, &refs)
	}
	collectColumnRefs(sel.Where, &refs)
	for _, r := range refs {
		alias := strings.ToLower(r.Table)
		if !nullableSides[alias] || guarded[alias] || flagged[alias] {
			continue
		}
		flagged[alias] = true
		out = append(out, diag(cfg, "A010", node.Name,
			"%q is the nullable side of an outer join; %s.%s is used without a null guard", r.Table, r.Table, r.Column))
	}
	return out
}

// markGuarded records which aliases appear as the left side of an IS
// (NOT) NULL test or inside a COALESCE(...) call anywhere in e.
func markGuarded(e parser.Expr, guarded map[string]bool) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *parser.BinaryExpr:
		if strings.EqualFold(n.Op, "IS") && isNullLiteral(n.Right) {
			if col, ok := n.Left.(*parser.ColumnRef); ok {
				guarded[strings.ToLower(col.Table)] = true
			}
		}
		markGuarded(n.Left, guarded)
		markGuarded(n.Right, guarded)
	case *parser.UnaryExpr:
		markGuarded(n.Operand, guarded)
	case *parser.FunctionCall:
		if strings.EqualFold(n.Name, "COALESCE") {
			var refs []*parser.ColumnRef
			for _, a := range n.Args {
				collectColumnRefs(a, &refs)
			}
			for _, r := range refs {
				guarded[strings.ToLower(r.Table)] = true
			}
		}
		for _, a := range n.Args {
			markGuarded(a, guarded)
		}
	case *parser.CaseExpr:
		markGuarded(n.Operand, guarded)
		for _, w := range n.Whens {
			markGuarded(w.Condition, guarded)
			markGuarded(w.Result, guarded)
		}
		markGuarded(n.Else, guarded)
	}
}

func (nullabilityPass) checkDeclaredNotNullFromNullableSide(node *featherflow.Node, nullableSides map[string]bool, sel *parser.SelectStatement, cfg *featherflow.Config) []featherflow.Diagnostic {
	var out []featherflow.Diagnostic
	for _, it := range sel.Items {
		col, ok := it.Expr.(*parser.ColumnRef)
		if !ok || !nullableSides[strings.ToLower(col.Table)] {
			continue
		}
		outputName := it.Alias
		if outputName == "" {
			outputName = col.Column
		}
		declared, ok := node.DeclaredSchema.Lookup(outputName)
		if ok && declared.Nullability == featherflow.NotNull {
			out = append(out, diag(cfg, "A011", node.Name,
				"column %q is declared NOT NULL but is projected straight from %q, the nullable side of an outer join", outputName, col.Table))
		}
	}
	return out
}

// isNullLiteral reports whether e is the Right side parseIsPredicate
// produces for "IS NULL" (a bare NULL Literal) or "IS NOT NULL" (a NOT
// UnaryExpr wrapping one).
func isNullLiteral(e parser.Expr) bool {
	switch n := e.(type) {
	case *parser.Literal:
		return strings.EqualFold(n.Value, "NULL")
	case *parser.UnaryExpr:
		return strings.EqualFold(n.Op, "NOT") && isNullLiteral(n.Operand)
	}
	return false
}

func columnNullability(cat *catalog.Catalog, aliasTable map[string]string, ref *parser.ColumnRef) (featherflow.Nullability, bool) {
	if ref.Table == "" {
		return featherflow.Unknown, false
	}
	table, ok := aliasTable[strings.ToLower(ref.Table)]
	if !ok {
		return featherflow.Unknown, false
	}
	rel, ok := cat.Lookup(table)
	if !ok {
		return featherflow.Unknown, false
	}
	col, ok := rel.Lookup(ref.Column)
	if !ok {
		return featherflow.Unknown, false
	}
	return col.Nullability, true
}
