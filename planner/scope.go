package planner

import (
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// scopeColumn tags a catalog column with the table alias it came through,
// so a bare "o.total"-style reference can be resolved to the right side of
// a join even when two inputs share a column name.
type scopeColumn struct {
	Table string
	featherflow.ColumnDecl
}

// Scope is the set of columns visible at one point in a plan tree: the
// concatenation of every FROM input's schema, each tagged with its alias.
// It is distinct from a plain featherflow.RelSchema because resolving
// "alias.column" and "table.*" needs the alias, and resolving a bare
// column needs to detect ambiguity across inputs.
type Scope struct {
	columns []scopeColumn
}

// NewScope builds an empty scope.
func NewScope() Scope { return Scope{} }

// Add appends one input's schema to the scope under the given alias (the
// table name itself when the FROM entry carries no AS clause).
func (s Scope) Add(alias string, schema featherflow.RelSchema) Scope {
	cols := make([]scopeColumn, len(s.columns), len(s.columns)+len(schema.Columns))
	copy(cols, s.columns)
	for _, c := range schema.Columns {
		cols = append(cols, scopeColumn{Table: alias, ColumnDecl: c})
	}
	return Scope{columns: cols}
}

// Lookup resolves a (possibly table-qualified) column reference. An empty
// table qualifier matches any input; more than one match with no
// qualifier is ambiguous and reported as AE004, the same code an outright
// miss uses, since both are "this reference doesn't name one column."
func (s Scope) Lookup(table, column string) (featherflow.ColumnDecl, error) {
	var found *featherflow.ColumnDecl
	for _, c := range s.columns {
		if table != "" && !strings.EqualFold(c.Table, table) {
			continue
		}
		if !strings.EqualFold(c.Name, column) {
			continue
		}
		if found != nil {
			return featherflow.ColumnDecl{}, errUnresolvedColumn(qualify(table, column) + " (ambiguous)")
		}
		col := c.ColumnDecl
		found = &col
	}
	if found == nil {
		return featherflow.ColumnDecl{}, errUnresolvedColumn(qualify(table, column))
	}
	return *found, nil
}

// Expand returns every column visible through alias, in input order; an
// empty alias returns every column in the scope (bare "*").
func (s Scope) Expand(alias string) []featherflow.ColumnDecl {
	cols := make([]featherflow.ColumnDecl, 0, len(s.columns))
	for _, c := range s.columns {
		if alias != "" && !strings.EqualFold(c.Table, alias) {
			continue
		}
		cols = append(cols, c.ColumnDecl)
	}
	return cols
}

// Schema flattens the scope into a plain RelSchema, the shape a ScanNode
// or JoinNode carries as its output.
func (s Scope) Schema() featherflow.RelSchema {
	return featherflow.RelSchema{Columns: s.Expand("")}
}

func qualify(table, column string) string {
	if table == "" {
		return column
	}
	return table + "." + column
}
