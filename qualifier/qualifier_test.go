package qualifier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func parseSQL(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	return stmt
}

func TestCatalogNameFromDatabaseFile(t *testing.T) {
	assert.Equal(t, "dev", catalogName("dev.duckdb"))
	assert.Equal(t, "dev", catalogName("/var/data/dev.duckdb"))
	assert.Equal(t, "memory", catalogName(""))
}

func TestQualifyRewritesBareTable(t *testing.T) {
	cfg := &featherflow.Config{
		DefaultTarget: "dev",
		Targets: map[string]featherflow.Target{
			"dev": {Database: "dev.duckdb", Schema: "analytics"},
		},
	}
	nodes := map[string]*featherflow.Node{
		"stg_orders": {Name: "stg_orders", Kind: featherflow.KindModel},
	}
	m := Build(cfg, "", nodes)

	stmt := parseSQL(t, "SELECT id FROM stg_orders")
	m.Qualify(stmt)

	ref := stmt.Select.From[0]
	assert.Equal(t, "dev", ref.Catalog)
	assert.Equal(t, "analytics", ref.Schema)
	assert.Equal(t, "stg_orders", ref.Table)
	assert.Equal(t, "dev.analytics.stg_orders", QualifiedName(ref))
}

func TestQualifyLeavesAlreadyQualifiedAlone(t *testing.T) {
	cfg := &featherflow.Config{
		DefaultTarget: "dev",
		Targets:       map[string]featherflow.Target{"dev": {Database: "dev.duckdb", Schema: "analytics"}},
	}
	m := Build(cfg, "", nil)

	stmt := parseSQL(t, "SELECT id FROM raw.orders")
	m.Qualify(stmt)

	ref := stmt.Select.From[0]
	assert.Empty(t, ref.Catalog)
	assert.Equal(t, "raw", ref.Schema)
	assert.Equal(t, "orders", ref.Table)
}

func TestQualifyUsesNodeTargetSchemaOverDefault(t *testing.T) {
	cfg := &featherflow.Config{
		DefaultTarget: "dev",
		Targets:       map[string]featherflow.Target{"dev": {Database: "dev.duckdb", Schema: "public"}},
	}
	nodes := map[string]*featherflow.Node{
		"dim_customers": {Name: "dim_customers", Kind: featherflow.KindModel, TargetSchema: "marts"},
	}
	m := Build(cfg, "", nodes)

	stmt := parseSQL(t, "SELECT id FROM dim_customers")
	m.Qualify(stmt)

	assert.Equal(t, "marts", stmt.Select.From[0].Schema)
}

func TestQualifyWalksJoinsAndSubqueries(t *testing.T) {
	cfg := &featherflow.Config{}
	m := Build(cfg, "", map[string]*featherflow.Node{
		"orders":    {Name: "orders", Kind: featherflow.KindModel},
		"customers": {Name: "customers", Kind: featherflow.KindModel},
	})

	stmt := parseSQL(t, "SELECT o.id FROM orders o JOIN customers c ON o.customer_id = c.id WHERE o.id IN (SELECT id FROM orders)")
	m.Qualify(stmt)

	join := stmt.Select.From[0].Join
	require.NotNil(t, join)
	assert.Equal(t, "memory", join.Left.Catalog)
	assert.Equal(t, "memory", join.Right.Catalog)

	where, ok := stmt.Select.Where.(*parser.BinaryExpr)
	require.True(t, ok)
	sub, ok := where.Right.(*parser.ScalarSubquery)
	require.True(t, ok)
	assert.Equal(t, "memory", sub.Query.From[0].Catalog)
}
