package passes

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// joinKeyPass implements the Join keys checks (§4.12 A030/A032/A033):
// A030 for a join with no recoverable condition, A032 for a condition that
// only references one side, A033 for an equality key whose two sides
// resolve to mismatched catalog types.
type joinKeyPass struct{}

func (joinKeyPass) Name() string { return "join-keys" }

func (p joinKeyPass) RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	if node.Statement == nil || node.Statement.Select == nil {
		return nil
	}

	var out []featherflow.Diagnostic
	walkJoins(node.Statement.Select.From, func(j *parser.JoinRef) {
		out = append(out, p.checkJoin(node, cat, cfg, j)...)
	})
	return out
}

func (joinKeyPass) checkJoin(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config, j *parser.JoinRef) []featherflow.Diagnostic {
	var out []featherflow.Diagnostic

	if j.On == nil {
		if j.Kind != parser.JoinCross {
			// On is also nil when the join used USING(...): the parser
			// discards the USING column list rather than recording it, so
			// this condition can't tell a real condition-less join apart
			// from one written with USING. Either way it's worth a human
			// a second look, so both are reported under the same code.
			out = append(out, diag(cfg, "A030", node.Name,
				"join has no recoverable ON condition (or used USING, whose columns this pass can't see)"))
		}
		return out
	}

	leftAlias := tableAlias(j.Left)
	rightAlias := tableAlias(j.Right)

	var refs []*parser.ColumnRef
	collectColumnRefs(j.On, &refs)

	usesLeft, usesRight := false, false
	for _, r := range refs {
		switch {
		case strings.EqualFold(r.Table, leftAlias):
			usesLeft = true
		case strings.EqualFold(r.Table, rightAlias):
			usesRight = true
		}
	}
	if !usesLeft || !usesRight {
		out = append(out, diag(cfg, "A032", node.Name,
			"join condition does not reference both %q and %q", leftAlias, rightAlias))
	}

	aliasTable := map[string]string{}
	if j.Left.Join == nil {
		aliasTable[strings.ToLower(leftAlias)] = j.Left.Table
	}
	if j.Right.Join == nil {
		aliasTable[strings.ToLower(rightAlias)] = j.Right.Table
	}

	out = append(out, checkEqualityKeyTypes(node, cat, cfg, j.On, aliasTable, leftAlias, rightAlias)...)
	return out
}

// checkEqualityKeyTypes flattens an AND-chain of conditions looking for
// direct "a.col = b.col" equalities between the two join sides and
// compares their catalog types. Only base-table sides are resolved
// (aliasTable maps an alias to its underlying table name); a side that is
// itself a nested join is skipped since there is no single table name to
// resolve a bare alias against.
func checkEqualityKeyTypes(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config, on parser.Expr, aliasTable map[string]string, leftAlias, rightAlias string) []featherflow.Diagnostic {
	var out []featherflow.Diagnostic
	for _, cond := range flattenAnd(on) {
		bin, ok := cond.(*parser.BinaryExpr)
		if !ok || bin.Op != "=" {
			continue
		}
		lc, lok := bin.Left.(*parser.ColumnRef)
		rc, rok := bin.Right.(*parser.ColumnRef)
		if !lok || !rok {
			continue
		}

		lt, lfound := columnFamily(cat, aliasTable, lc)
		rt, rfound := columnFamily(cat, aliasTable, rc)
		if lfound && rfound && lt != rt && lt != "any" && rt != "any" {
			out = append(out, diag(cfg, "A033", node.Name,
				"join key %s.%s (%s) does not match %s.%s (%s)",
				leftAlias, lc.Column, lt, rightAlias, rc.Column, rt))
		}
	}
	return out
}

func flattenAnd(e parser.Expr) []parser.Expr {
	bin, ok := e.(*parser.BinaryExpr)
	if !ok || !strings.EqualFold(bin.Op, "AND") {
		return []parser.Expr{e}
	}
	return append(flattenAnd(bin.Left), flattenAnd(bin.Right)...)
}

func columnFamily(cat *catalog.Catalog, aliasTable map[string]string, ref *parser.ColumnRef) (string, bool) {
	if ref.Table == "" {
		return "", false
	}
	table, ok := aliasTable[strings.ToLower(ref.Table)]
	if !ok {
		return "", false
	}
	rel, ok := cat.Lookup(table)
	if !ok {
		return "", false
	}
	col, ok := rel.Lookup(ref.Column)
	if !ok || col.SQLType == "" {
		return "", false
	}
	return catalog.ParseSQLType(col.SQLType).Family(), true
}
