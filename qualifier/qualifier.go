// Package qualifier implements the Qualifier pass (§4.13): after schema
// propagation, every bare (single-component) relation name in every
// model's AST is rewritten to a three-part catalog.schema.table form, so
// the Emitter never writes out a table name that depends on whatever
// search_path happened to be active when it runs.
package qualifier

import (
	"path/filepath"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// Mapping is built once per compile and knows how to resolve any node's
// bare name to its catalog and schema.
type Mapping struct {
	catalog       string
	defaultSchema string
	schemaOf      map[string]string // lowercased node name -> schema
}

// Build derives the mapping from the active target's database (for the
// catalog name) and default schema, and from every model/seed/source
// node's own TargetSchema (falling back to the target default).
//
// targetName selects the Config.Targets entry; an empty value falls back
// to Config.DefaultTarget. A nil Config, or a target that isn't declared,
// yields an in-memory catalog ("memory") with schema "public" — the same
// defaults a project with no targets configured at all would compile
// under.
func Build(cfg *featherflow.Config, targetName string, nodes map[string]*featherflow.Node) *Mapping {
	database := ""
	defaultSchema := "public"

	if cfg != nil {
		name := targetName
		if name == "" {
			name = cfg.DefaultTarget
		}
		if t, ok := cfg.Targets[name]; ok {
			database = t.Database
			if t.Schema != "" {
				defaultSchema = t.Schema
			}
		}
	}

	m := &Mapping{
		catalog:       catalogName(database),
		defaultSchema: defaultSchema,
		schemaOf:      make(map[string]string, len(nodes)),
	}

	for name, node := range nodes {
		switch node.Kind {
		case featherflow.KindModel, featherflow.KindSeed, featherflow.KindSource:
			schema := node.TargetSchema
			if schema == "" {
				schema = defaultSchema
			}
			m.schemaOf[strings.ToLower(name)] = schema
		}
	}

	return m
}

// catalogName derives the catalog name from a database file path: its
// stem with any extension stripped ("dev.duckdb" -> "dev"). An empty
// path names an in-memory database, which catalogs as "memory".
func catalogName(database string) string {
	if database == "" {
		return "memory"
	}
	base := filepath.Base(database)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Qualify rewrites every bare relation reference reachable from stmt in
// place. Already-qualified (>= 2-part) references are left untouched.
func (m *Mapping) Qualify(stmt *parser.Statement) {
	if stmt == nil {
		return
	}
	m.qualifySelect(stmt.Select)
}

func (m *Mapping) qualifySelect(sel *parser.SelectStatement) {
	if sel == nil {
		return
	}
	for i := range sel.From {
		m.qualifyTableRef(&sel.From[i])
	}
	for _, item := range sel.Items {
		m.qualifyExpr(item.Expr)
	}
	m.qualifyExpr(sel.Where)
	for _, g := range sel.GroupBy {
		m.qualifyExpr(g)
	}
	m.qualifyExpr(sel.Having)
	for _, o := range sel.OrderBy {
		m.qualifyExpr(o.Expr)
	}
	m.qualifyExpr(sel.Limit)
	m.qualifyExpr(sel.Offset)
}

func (m *Mapping) qualifyTableRef(ref *parser.TableRef) {
	switch {
	case ref.Join != nil:
		m.qualifyTableRef(&ref.Join.Left)
		m.qualifyTableRef(&ref.Join.Right)
		m.qualifyExpr(ref.Join.On)
	case ref.Subquery != nil:
		m.qualifySelect(ref.Subquery)
	default:
		if ref.Qualified() {
			return
		}
		ref.Catalog = m.catalog
		ref.Schema = m.schemaFor(ref.Table)
	}
}

func (m *Mapping) schemaFor(table string) string {
	if s, ok := m.schemaOf[strings.ToLower(table)]; ok {
		return s
	}
	return m.defaultSchema
}

func (m *Mapping) qualifyExpr(e parser.Expr) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *parser.UnaryExpr:
		m.qualifyExpr(n.Operand)
	case *parser.BinaryExpr:
		m.qualifyExpr(n.Left)
		m.qualifyExpr(n.Right)
	case *parser.FunctionCall:
		for _, a := range n.Args {
			m.qualifyExpr(a)
		}
		if n.Over != nil {
			for _, p := range n.Over.PartitionBy {
				m.qualifyExpr(p)
			}
			for _, o := range n.Over.OrderBy {
				m.qualifyExpr(o.Expr)
			}
		}
	case *parser.CaseExpr:
		m.qualifyExpr(n.Operand)
		for _, w := range n.Whens {
			m.qualifyExpr(w.Condition)
			m.qualifyExpr(w.Result)
		}
		m.qualifyExpr(n.Else)
	case *parser.ScalarSubquery:
		m.qualifySelect(n.Query)
	}
}

// QualifiedName renders a TableRef's post-Qualify identity as it should
// appear in emitted SQL.
func QualifiedName(ref parser.TableRef) string {
	switch {
	case ref.Catalog != "" && ref.Schema != "":
		return ref.Catalog + "." + ref.Schema + "." + ref.Table
	case ref.Schema != "":
		return ref.Schema + "." + ref.Table
	default:
		return ref.Table
	}
}
