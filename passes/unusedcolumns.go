package passes

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// unusedColumnPass implements the Unused columns check (§4.12 A020): a
// table joined into a model's FROM clause whose alias is never referenced
// anywhere else in the statement contributes nothing and is very likely a
// copy-paste leftover.
type unusedColumnPass struct{}

func (unusedColumnPass) Name() string { return "unused-columns" }

func (unusedColumnPass) RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	if node.Statement == nil || node.Statement.Select == nil {
		return nil
	}
	sel := node.Statement.Select

	aliases := map[string]bool{}
	for _, ref := range sel.From {
		collectAliases(ref, aliases)
	}
	if len(aliases) <= 1 {
		// A single-table FROM has nothing to be "unused" relative to.
		return nil
	}

	used := map[string]bool{}
	markUsedAliases(sel, used)

	var out []featherflow.Diagnostic
	for alias := range aliases {
		if !used[strings.ToLower(alias)] {
			out = append(out, diag(cfg, "A020", node.Name,
				"joined table %q is never referenced in the projection, filter, or ordering", alias))
		}
	}
	return out
}

func collectAliases(ref parser.TableRef, out map[string]bool) {
	if ref.Join != nil {
		collectAliases(ref.Join.Left, out)
		collectAliases(ref.Join.Right, out)
		return
	}
	out[strings.ToLower(tableAlias(ref))] = true
}

func markUsedAliases(sel *parser.SelectStatement, used map[string]bool) {
	var refs []*parser.ColumnRef
	for _, it := range sel.Items {
		if it.Star {
			if s, ok := it.Expr.(*parser.Star); ok && s.Table != "" {
				used[strings.ToLower(s.Table)] = true
			}
			continue
		}
		collectColumnRefs(it.Expr, &refs)
	}
	collectColumnRefs(sel.Where, &refs)
	collectColumnRefs(sel.Having, &refs)
	for _, g := range sel.GroupBy {
		collectColumnRefs(g, &refs)
	}
	for _, o := range sel.OrderBy {
		collectColumnRefs(o.Expr, &refs)
	}

	// Join ON conditions reference their own sides regardless of whether
	// the outer statement uses them; an alias used only to key its own
	// join condition is not "used" in the sense this pass means, so ON
	// expressions are deliberately excluded here (walkJoins is not called).

	for _, r := range refs {
		if r.Table != "" {
			used[strings.ToLower(r.Table)] = true
		}
	}
}
