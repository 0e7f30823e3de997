package compile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

func writeFile(t *testing.T, path, contents string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
}

func baseConfig() *featherflow.Config {
	return &featherflow.Config{
		ModelsDir:     "models",
		SeedsDir:      "seeds",
		SourcesDir:    "sources",
		FunctionsDir:  "functions",
		MacrosDir:     "macros",
		DefaultTarget: "dev",
		Targets: map[string]featherflow.Target{
			"dev": {Database: "dev.duckdb", Schema: "analytics"},
		},
	}
}

// TestCompileEndToEnd lays out a small project exercising every phase:
// a source, a seed, a non-ephemeral model depending on both, an
// ephemeral staging model, and a consumer of the ephemeral model, so the
// returned build order, catalog, and final qualified/inlined SQL all
// reflect the whole pipeline having run.
func TestCompileEndToEnd(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "sources", "raw.yml"), ""+
		"kind: sources\n"+
		"name: raw\n"+
		"schema: raw\n"+
		"tables:\n"+
		"  - name: raw_orders\n"+
		"    columns:\n"+
		"      - name: id\n"+
		"        data_type: INTEGER\n"+
		"      - name: customer_id\n"+
		"        data_type: INTEGER\n")

	writeFile(t, filepath.Join(root, "seeds", "country_codes.csv"), "code,name\nUS,United States\n")

	writeFile(t, filepath.Join(root, "models", "stg_orders", "stg_orders.sql"),
		"SELECT id, customer_id FROM raw_orders")
	writeFile(t, filepath.Join(root, "models", "stg_orders", "stg_orders.yml"), ""+
		"description: staged orders\n"+
		"config:\n"+
		"  materialized: ephemeral\n"+
		"columns:\n"+
		"  - name: id\n"+
		"    data_type: INTEGER\n"+
		"  - name: customer_id\n"+
		"    data_type: INTEGER\n")

	writeFile(t, filepath.Join(root, "models", "fct_orders", "fct_orders.sql"),
		"SELECT o.id, o.customer_id, c.code FROM stg_orders o JOIN country_codes c ON o.customer_id = c.code")
	writeFile(t, filepath.Join(root, "models", "fct_orders", "fct_orders.yml"), ""+
		"description: fact orders\n"+
		"config:\n"+
		"  materialized: table\n"+
		"columns:\n"+
		"  - name: id\n"+
		"    data_type: INTEGER\n"+
		"  - name: customer_id\n"+
		"    data_type: INTEGER\n"+
		"  - name: code\n"+
		"    data_type: TEXT\n")

	outDir := filepath.Join(root, "target")
	result, err := Compile(baseConfig(), root, Options{Target: "dev", OutDir: outDir})
	require.NoError(t, err)
	require.NotNil(t, result)

	assert.Contains(t, result.Order, "stg_orders")
	assert.Contains(t, result.Order, "fct_orders")
	assert.Contains(t, result.Order, "country_codes")

	stgIdx := indexOf(result.Order, "stg_orders")
	fctIdx := indexOf(result.Order, "fct_orders")
	assert.Less(t, stgIdx, fctIdx)

	fct := result.Nodes["fct_orders"]
	require.NotNil(t, fct)
	require.NotNil(t, fct.Statement)

	sel := fct.Statement.Select
	require.NotNil(t, sel.With)
	require.Len(t, sel.With.CTEs, 1)
	assert.Equal(t, "stg_orders", sel.With.CTEs[0].Name)

	join := sel.From[0].Join
	require.NotNil(t, join)
	assert.Empty(t, join.Left.Catalog)
	assert.Empty(t, join.Left.Schema)
	assert.Equal(t, "stg_orders", join.Left.Table)

	assert.Equal(t, "dev", join.Right.Catalog)
	assert.Equal(t, "analytics", join.Right.Schema)
	assert.Equal(t, "country_codes", join.Right.Table)

	stg := result.Nodes["stg_orders"]
	require.NotNil(t, stg)
	assert.True(t, stg.IsEphemeral())

	require.NotNil(t, result.Catalog)

	require.NotNil(t, result.Manifest)
	assert.FileExists(t, filepath.Join(outDir, "fct_orders.sql"))
	assert.NoFileExists(t, filepath.Join(outDir, "stg_orders.sql"))
	assert.FileExists(t, filepath.Join(outDir, "manifest.json"))

	compiledSQL, err := os.ReadFile(filepath.Join(outDir, "fct_orders.sql"))
	require.NoError(t, err)
	assert.Contains(t, string(compiledSQL), "WITH stg_orders AS")
	assert.Contains(t, string(compiledSQL), "dev.analytics.country_codes")
}

func indexOf(order []string, name string) int {
	for i, n := range order {
		if n == name {
			return i
		}
	}
	return -1
}

func TestCompileRejectsUnknownDependency(t *testing.T) {
	root := t.TempDir()

	writeFile(t, filepath.Join(root, "models", "bad", "bad.sql"), "SELECT id FROM nonexistent_thing")
	writeFile(t, filepath.Join(root, "models", "bad", "bad.yml"), ""+
		"description: broken model\n"+
		"columns:\n"+
		"  - name: id\n"+
		"    data_type: INTEGER\n")

	_, err := Compile(baseConfig(), root, Options{Target: "dev"})
	require.Error(t, err)
}
