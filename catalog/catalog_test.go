package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

func TestBuildRegistersModelSourceSeed(t *testing.T) {
	nodes := map[string]*featherflow.Node{
		"stg_a": {
			Name: "stg_a", Kind: featherflow.KindModel,
			DeclaredSchema: featherflow.RelSchema{Columns: []featherflow.ColumnDecl{{Name: "id", SQLType: "INTEGER"}}},
		},
		"raw_orders": {Name: "raw_orders", Kind: featherflow.KindSource},
		"full_name":  {Name: "full_name", Kind: featherflow.KindFunction},
	}

	c := Build(nodes, nil)

	rel, ok := c.Lookup("stg_a")
	require.True(t, ok)
	assert.Len(t, rel.Columns, 1)

	_, ok = c.Lookup("raw_orders")
	assert.True(t, ok)

	_, ok = c.Lookup("full_name")
	assert.False(t, ok)
}

func TestBuildRegistersExternalTablesWithEmptySchema(t *testing.T) {
	c := Build(map[string]*featherflow.Node{}, []string{"raw.legacy_customers"})

	rel, ok := c.Lookup("legacy_customers")
	require.True(t, ok)
	assert.Empty(t, rel.Columns)
}

func TestUpdateOverwritesEntry(t *testing.T) {
	c := Build(map[string]*featherflow.Node{
		"stg_a": {Name: "stg_a", Kind: featherflow.KindModel},
	}, nil)

	c.Update("stg_a", featherflow.RelSchema{Columns: []featherflow.ColumnDecl{{Name: "id"}}})

	rel, ok := c.Lookup("stg_a")
	require.True(t, ok)
	assert.Len(t, rel.Columns, 1)
}

func TestLookupIsCaseInsensitiveOnLastComponent(t *testing.T) {
	c := Build(map[string]*featherflow.Node{
		"stg_a": {Name: "stg_a", Kind: featherflow.KindModel},
	}, nil)

	_, ok := c.Lookup("PUBLIC.STG_A")
	assert.True(t, ok)
}

func TestParseSQLTypeParameterized(t *testing.T) {
	pt := ParseSQLType("DECIMAL(10,2)")
	assert.Equal(t, "DECIMAL", pt.Base)
	require.NotNil(t, pt.Precision)
	require.NotNil(t, pt.Scale)
	assert.Equal(t, 10, *pt.Precision)
	assert.Equal(t, 2, *pt.Scale)
	assert.Equal(t, "decimal", pt.Family())
}

func TestParseSQLTypeSingleParam(t *testing.T) {
	pt := ParseSQLType("varchar(255)")
	assert.Equal(t, "VARCHAR", pt.Base)
	require.NotNil(t, pt.Length)
	assert.Equal(t, 255, *pt.Length)
	assert.Equal(t, "string", pt.Family())
}

func TestParseSQLTypeNoParams(t *testing.T) {
	pt := ParseSQLType("INTEGER")
	assert.Equal(t, "INTEGER", pt.Base)
	assert.Nil(t, pt.Length)
	assert.Equal(t, "int", pt.Family())
}

func TestParseSQLTypeUnknownFamilyDefaultsToAny(t *testing.T) {
	pt := ParseSQLType("HSTORE")
	assert.Equal(t, "any", pt.Family())
}
