package dependency

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func parse(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	return stmt
}

func TestExtractSimpleFrom(t *testing.T) {
	stmt := parse(t, "SELECT id FROM raw_orders")
	refs := Extract(stmt)
	require.Len(t, refs, 1)
	assert.Equal(t, "raw_orders", refs[0].Name)
	assert.Equal(t, "raw_orders", refs[0].Key)
}

func TestExtractSchemaQualified(t *testing.T) {
	stmt := parse(t, "SELECT id FROM raw.orders")
	refs := Extract(stmt)
	require.Len(t, refs, 1)
	assert.Equal(t, "raw.orders", refs[0].Name)
	assert.Equal(t, "orders", refs[0].Key)
}

func TestExtractJoinCollectsBothSides(t *testing.T) {
	stmt := parse(t, "SELECT a.id FROM stg_a a LEFT JOIN stg_b b ON a.id = b.a_id")
	refs := Extract(stmt)
	require.Len(t, refs, 2)
	assert.Equal(t, "stg_a", refs[0].Key)
	assert.Equal(t, "stg_b", refs[1].Key)
}

func TestExtractScalarSubqueryInWhere(t *testing.T) {
	stmt := parse(t, "SELECT id FROM orders WHERE id IN (SELECT order_id FROM refunds)")
	refs := Extract(stmt)

	keys := map[string]bool{}
	for _, r := range refs {
		keys[r.Key] = true
	}
	assert.True(t, keys["orders"])
	assert.True(t, keys["refunds"])
}

func TestExtractDeduplicatesRepeatedReferences(t *testing.T) {
	stmt := parse(t, "SELECT a.id FROM orders a JOIN orders b ON a.id <> b.id")
	refs := Extract(stmt)
	assert.Len(t, refs, 1)
}

func TestCategorizeSplitsByKnownSets(t *testing.T) {
	refs := []RawRef{
		{Name: "stg_a", Key: "stg_a"},
		{Name: "raw.orders", Key: "orders"},
		{Name: "mystery", Key: "mystery"},
	}
	known := KnownNames{
		Models:   map[string]bool{"stg_a": true},
		External: map[string]bool{"orders": true},
	}

	got := Categorize(refs, known)
	assert.Equal(t, []string{"stg_a"}, got.ModelDeps)
	assert.Equal(t, []string{"orders"}, got.ExternalDeps)
	assert.Equal(t, []string{"mystery"}, got.UnknownDeps)
}

func TestCategorizeModelTakesPriorityOverExternal(t *testing.T) {
	refs := []RawRef{{Name: "orders", Key: "orders"}}
	known := KnownNames{
		Models:   map[string]bool{"orders": true},
		External: map[string]bool{"orders": true},
	}

	got := Categorize(refs, known)
	assert.Equal(t, []string{"orders"}, got.ModelDeps)
	assert.Empty(t, got.ExternalDeps)
}

func TestBuildKnownNamesFromNodes(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"stg_a":     {Name: "stg_a", Kind: featherflow.KindModel},
		"regions":   {Name: "regions", Kind: featherflow.KindSeed},
		"raw_orders": {Name: "raw_orders", Kind: featherflow.KindSource},
	}

	known := BuildKnownNames(nodes, []string{"raw.legacy_customers"})
	assert.True(t, known.Models["stg_a"])
	assert.True(t, known.Models["regions"])
	assert.True(t, known.Sources["raw_orders"])
	assert.True(t, known.External["legacy_customers"])
}

func TestApplyPopulatesNodeDependencyFields(t *testing.T) {
	stmt := parse(t, "SELECT a.name, b.a_id FROM stg_a a LEFT JOIN stg_b b ON a.id = b.a_id")
	node := &featherflow.Node{Name: "fct", Kind: featherflow.KindModel, Statement: stmt}

	known := KnownNames{Models: map[string]bool{"stg_a": true, "stg_b": true}}
	Apply(node, known)

	assert.ElementsMatch(t, []string{"stg_a", "stg_b"}, node.ModelDeps)
	assert.Empty(t, node.ExternalDeps)
	assert.Empty(t, node.UnknownDeps)
	assert.ElementsMatch(t, []string{"stg_a", "stg_b"}, node.RawDeps)
}
