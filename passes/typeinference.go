package passes

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// typeInferencePass implements the narrower half of the Type inference
// check (§4.12 A004/A005): SUM/AVG called on a text-family column, and a
// comparison between a string-family column and a bare numeric literal
// (a cast the database will perform implicitly, and silently, at every
// query). A002 (UNION branch column-type mismatch) and A003 (UNION
// branch column-count mismatch) are enforced earlier, as a hard AE008
// planning failure rather than a configurable diagnostic here — a
// mismatched union can't produce one coherent schema for anything
// downstream to consult, so there is no useful "warning and continue"
// path for it.
var comparisonOps = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
}

type typeInferencePass struct{}

func (typeInferencePass) Name() string { return "type-inference" }

func (p typeInferencePass) RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	if node.Statement == nil || node.Statement.Select == nil {
		return nil
	}
	sel := node.Statement.Select

	aliasTable := map[string]string{}
	collectAliasTable(sel.From, aliasTable)

	var out []featherflow.Diagnostic
	for _, it := range sel.Items {
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, it.Expr)...)
	}
	out = append(out, p.checkExpr(node, cat, cfg, aliasTable, sel.Where)...)
	out = append(out, p.checkExpr(node, cat, cfg, aliasTable, sel.Having)...)
	return out
}

func (p typeInferencePass) checkExpr(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config, aliasTable map[string]string, e parser.Expr) []featherflow.Diagnostic {
	var out []featherflow.Diagnostic
	switch n := e.(type) {
	case nil:
		return nil
	case *parser.FunctionCall:
		name := strings.ToUpper(n.Name)
		if (name == "SUM" || name == "AVG") && len(n.Args) == 1 {
			if col, ok := n.Args[0].(*parser.ColumnRef); ok {
				if fam, found := columnFamily(cat, aliasTable, col); found && fam == "string" {
					out = append(out, diag(cfg, "A004", node.Name,
						"%s(%s.%s) aggregates a text-family column", name, col.Table, col.Column))
				}
			}
		}
		for _, a := range n.Args {
			out = append(out, p.checkExpr(node, cat, cfg, aliasTable, a)...)
		}
	case *parser.BinaryExpr:
		out = append(out, p.checkComparison(node, cat, cfg, aliasTable, n)...)
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, n.Left)...)
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, n.Right)...)
	case *parser.UnaryExpr:
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, n.Operand)...)
	case *parser.CaseExpr:
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, n.Operand)...)
		for _, w := range n.Whens {
			out = append(out, p.checkExpr(node, cat, cfg, aliasTable, w.Condition)...)
			out = append(out, p.checkExpr(node, cat, cfg, aliasTable, w.Result)...)
		}
		out = append(out, p.checkExpr(node, cat, cfg, aliasTable, n.Else)...)
	}
	return out
}

func (typeInferencePass) checkComparison(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config, aliasTable map[string]string, b *parser.BinaryExpr) []featherflow.Diagnostic {
	if !comparisonOps[strings.ToUpper(b.Op)] {
		return nil
	}
	col, lit := asColumnAndLiteral(b.Left, b.Right)
	if col == nil || lit == nil {
		return nil
	}
	fam, found := columnFamily(cat, aliasTable, col)
	if !found || fam != "string" {
		return nil
	}
	if lit.Kind != tokenizer.NUMBER {
		return nil
	}
	return []featherflow.Diagnostic{diag(cfg, "A005", node.Name,
		"comparing text-family column %s.%s to a bare numeric literal relies on an implicit cast", col.Table, col.Column)}
}

func asColumnAndLiteral(a, b parser.Expr) (*parser.ColumnRef, *parser.Literal) {
	if c, ok := a.(*parser.ColumnRef); ok {
		if l, ok := b.(*parser.Literal); ok {
			return c, l
		}
	}
	if c, ok := b.(*parser.ColumnRef); ok {
		if l, ok := a.(*parser.Literal); ok {
			return c, l
		}
	}
	return nil, nil
}

func collectAliasTable(refs []parser.TableRef, out map[string]string) {
	for _, r := range refs {
		if r.Join != nil {
			collectAliasTable([]parser.TableRef{r.Join.Left, r.Join.Right}, out)
			continue
		}
		out[strings.ToLower(tableAlias(r))] = r.Table
	}
}
