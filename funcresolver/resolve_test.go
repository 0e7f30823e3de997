package funcresolver

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/dependency"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func parseStmt(t *testing.T, sql string) *parser.Statement {
	t.Helper()
	stmt, err := parser.Parse(sql, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	return stmt
}

func TestResolveExpandsFunctionIntoModelDeps(t *testing.T) {
	functions := map[string]*featherflow.Node{
		"active_customers": {Name: "active_customers", RawSQL: "SELECT id FROM customers WHERE active"},
	}
	known := dependency.KnownNames{Models: map[string]bool{"customers": true}}

	node := &featherflow.Node{
		Name:      "report",
		Statement: parseStmt(t, "SELECT id FROM active_customers"),
	}
	dependency.Apply(node, dependency.KnownNames{})

	r := New(functions, known, tokenizer.NewPostgresDialect())
	require.NoError(t, r.Resolve(node))

	assert.Contains(t, node.ModelDeps, "customers")
	assert.Contains(t, node.FunctionResolvedDeps, "active_customers")
	assert.Empty(t, node.UnknownDeps)
}

func TestResolveSurfacesUnresolvedReferences(t *testing.T) {
	known := dependency.KnownNames{}
	node := &featherflow.Node{
		Name:      "report",
		Statement: parseStmt(t, "SELECT id FROM mystery"),
	}
	dependency.Apply(node, dependency.KnownNames{})

	r := New(map[string]*featherflow.Node{}, known, tokenizer.NewPostgresDialect())
	err := r.Resolve(node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, featherflow.ErrUnknownDependency))
	assert.Contains(t, err.Error(), "mystery")
}

func TestResolveTransitiveFunctionChain(t *testing.T) {
	functions := map[string]*featherflow.Node{
		"outer_fn": {Name: "outer_fn", RawSQL: "SELECT id FROM inner_fn"},
		"inner_fn": {Name: "inner_fn", RawSQL: "SELECT id FROM base_table"},
	}
	known := dependency.KnownNames{Models: map[string]bool{"base_table": true}}

	node := &featherflow.Node{
		Name:      "report",
		Statement: parseStmt(t, "SELECT id FROM outer_fn"),
	}
	dependency.Apply(node, dependency.KnownNames{})

	r := New(functions, known, tokenizer.NewPostgresDialect())
	require.NoError(t, r.Resolve(node))

	assert.Contains(t, node.ModelDeps, "base_table")
	assert.ElementsMatch(t, []string{"outer_fn"}, node.FunctionResolvedDeps)
}

func TestResolveFunctionCycleFails(t *testing.T) {
	functions := map[string]*featherflow.Node{
		"a_fn": {Name: "a_fn", RawSQL: "SELECT id FROM b_fn"},
		"b_fn": {Name: "b_fn", RawSQL: "SELECT id FROM a_fn"},
	}
	known := dependency.KnownNames{}

	node := &featherflow.Node{
		Name:      "report",
		Statement: parseStmt(t, "SELECT id FROM a_fn"),
	}
	dependency.Apply(node, dependency.KnownNames{})

	r := New(functions, known, tokenizer.NewPostgresDialect())
	err := r.Resolve(node)
	require.Error(t, err)
	assert.True(t, errors.Is(err, featherflow.ErrFunctionCycle))
}
