package passes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func parseSQL(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	return stmt
}

func hasCode(ds []featherflow.Diagnostic, code string) bool {
	for _, d := range ds {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestJoinKeyPassFlagsMissingCondition(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id FROM orders o JOIN customers c")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := joinKeyPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	assert.True(t, hasCode(ds, "A030"))
}

func TestJoinKeyPassFlagsOneSidedCondition(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id FROM orders o JOIN customers c ON o.id = o.customer_id")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := joinKeyPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	assert.True(t, hasCode(ds, "A032"))
}

func TestJoinKeyPassFlagsMismatchedKeyTypes(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"orders": {Name: "orders", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "customer_id", SQLType: "VARCHAR(36)"}},
		}},
		"customers": {Name: "customers", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "id", SQLType: "INTEGER"}},
		}},
	}
	cat := catalog.Build(nodes, nil)

	stmt := parseSQL(t, "SELECT o.customer_id FROM orders o JOIN customers c ON o.customer_id = c.id")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := joinKeyPass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A033"))
}

func TestUnusedColumnPassFlagsUnjoinedAlias(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := unusedColumnPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	require.True(t, hasCode(ds, "A020"))
}

func TestUnusedColumnPassSkipsSingleTableFrom(t *testing.T) {
	stmt := parseSQL(t, "SELECT id FROM orders")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := unusedColumnPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	assert.Empty(t, ds)
}

func TestDescriptionDriftPassFlagsMismatch(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"orders": {Name: "orders", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "total", Description: "order grand total"}},
		}},
	}
	cat := catalog.Build(nodes, nil)

	node := &featherflow.Node{
		Name: "stg_orders", Kind: featherflow.KindModel,
		DeclaredSchema: featherflow.RelSchema{Columns: []featherflow.ColumnDecl{
			{Name: "total", RefNode: "orders", Description: "total amount, no tax"},
		}},
	}
	ds := descriptionDriftPass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A050"))
}

func TestDescriptionDriftPassFlagsStaleRef(t *testing.T) {
	cat := catalog.Build(nil, nil)
	node := &featherflow.Node{
		Name: "stg_orders", Kind: featherflow.KindModel,
		DeclaredSchema: featherflow.RelSchema{Columns: []featherflow.ColumnDecl{
			{Name: "total", RefNode: "does_not_exist"},
		}},
	}
	ds := descriptionDriftPass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A051"))
}

func TestCrossModelConsistencyPassFlagsTypeDisagreement(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"stg_a": {
			Name: "stg_a", Kind: featherflow.KindModel,
			DeclaredSchema: featherflow.RelSchema{Columns: []featherflow.ColumnDecl{
				{Name: "customer_id", RefNode: "orders", SQLType: "INTEGER"},
			}},
		},
		"stg_b": {
			Name: "stg_b", Kind: featherflow.KindModel,
			DeclaredSchema: featherflow.RelSchema{Columns: []featherflow.ColumnDecl{
				{Name: "customer_id", RefNode: "orders", SQLType: "VARCHAR(36)"},
			}},
		},
	}
	ds := crossModelConsistencyPass{}.RunDAG(nodes, []string{"stg_a", "stg_b"}, catalog.Build(nil, nil), nil)
	require.True(t, hasCode(ds, "A040"))
}

func TestTypeInferencePassFlagsAggregateOnTextColumn(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"orders": {Name: "orders", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "status", SQLType: "VARCHAR(20)"}},
		}},
	}
	cat := catalog.Build(nodes, nil)
	stmt := parseSQL(t, "SELECT SUM(o.status) AS total FROM orders o")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := typeInferencePass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A004"))
}

func TestTypeInferencePassFlagsImplicitCast(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"orders": {Name: "orders", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "status", SQLType: "VARCHAR(20)"}},
		}},
	}
	cat := catalog.Build(nodes, nil)
	stmt := parseSQL(t, "SELECT o.status FROM orders o WHERE o.status = 1")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := typeInferencePass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A005"))
}

func TestNullabilityPassFlagsRedundantIsNull(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"orders": {Name: "orders", Kind: featherflow.KindModel, DeclaredSchema: featherflow.RelSchema{
			Columns: []featherflow.ColumnDecl{{Name: "id", SQLType: "INTEGER", Nullability: featherflow.NotNull}},
		}},
	}
	cat := catalog.Build(nodes, nil)
	stmt := parseSQL(t, "SELECT o.id FROM orders o WHERE o.id IS NULL")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := nullabilityPass{}.RunModel(node, cat, nil)
	assert.True(t, hasCode(ds, "A012"))
}

func TestNullabilityPassFlagsUnguardedOuterJoinColumn(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id, c.name FROM orders o LEFT JOIN customers c ON o.customer_id = c.id")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := nullabilityPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	assert.True(t, hasCode(ds, "A010"))
}

func TestNullabilityPassAllowsCoalesceGuardedColumn(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id, COALESCE(c.name, 'unknown') AS name FROM orders o LEFT JOIN customers c ON o.customer_id = c.id")
	node := &featherflow.Node{Name: "m", Kind: featherflow.KindModel, Statement: stmt}
	ds := nullabilityPass{}.RunModel(node, catalog.Build(nil, nil), nil)
	assert.False(t, hasCode(ds, "A010"))
}

func TestRunAppendsDiagnosticsToNodes(t *testing.T) {
	stmt := parseSQL(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id")
	nodes := map[string]*featherflow.Node{
		"m": {Name: "m", Kind: featherflow.KindModel, Statement: stmt},
	}
	cat := catalog.Build(nodes, nil)
	Run(nodes, []string{"m"}, cat, nil)
	assert.NotEmpty(t, nodes["m"].Diagnostics)
}
