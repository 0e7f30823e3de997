package template

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func render(t *testing.T, src string, vars map[string]any, incremental bool) (string, map[string]any) {
	t.Helper()

	tpl, err := Parse(src)
	require.NoError(t, err)

	env := NewEnvironment(vars, func() bool { return incremental })

	out, captured, err := Render(tpl, env)
	require.NoError(t, err)

	return out, captured
}

func TestRenderPlainText(t *testing.T) {
	out, _ := render(t, "SELECT 1 FROM orders", nil, false)
	assert.Equal(t, "SELECT 1 FROM orders", out)
}

func TestRenderVarSubstitution(t *testing.T) {
	out, _ := render(t, "SELECT * FROM orders WHERE region = {{ quote(var('region')) }}", map[string]any{"region": "us-east"}, false)
	assert.Equal(t, "SELECT * FROM orders WHERE region = 'us-east'", out)
}

func TestRenderVarMissingFailsWithJ002(t *testing.T) {
	tpl, err := Parse("{{ var('missing') }}")
	require.NoError(t, err)

	env := NewEnvironment(map[string]any{}, func() bool { return false })
	_, _, err = Render(tpl, env)
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "J002", renderErr.Code)
}

func TestRenderVarWithDefault(t *testing.T) {
	out, _ := render(t, "{{ var('region', 'us-west') }}", map[string]any{}, false)
	assert.Equal(t, "us-west", out)
}

func TestRenderUnknownIdentifierFailsWithJ001(t *testing.T) {
	tpl, err := Parse("{{ totally_unknown() }}")
	require.NoError(t, err)

	env := NewEnvironment(nil, func() bool { return false })
	_, _, err = Render(tpl, env)
	require.Error(t, err)

	var renderErr *RenderError
	require.ErrorAs(t, err, &renderErr)
	assert.Equal(t, "J001", renderErr.Code)
}

func TestRenderConfigCapturesKwargsAndRendersEmpty(t *testing.T) {
	out, captured := render(t, `{{ config(materialized="incremental", unique_key="id") }}SELECT 1`, nil, false)
	assert.Equal(t, "SELECT 1", out)
	assert.Equal(t, "incremental", captured["materialized"])
	assert.Equal(t, "id", captured["unique_key"])
}

func TestRenderIsIncremental(t *testing.T) {
	out, _ := render(t, "{% if is_incremental() %}AND updated_at > last_run(){% else %}{% endif %}", nil, true)
	assert.Equal(t, "AND updated_at > last_run()", out)

	out, _ = render(t, "{% if is_incremental() %}AND updated_at > last_run(){% else %}{% endif %}", nil, false)
	assert.Equal(t, "", out)
}

func TestRenderIfElifElse(t *testing.T) {
	src := "{% if region == 'us' %}A{% elif region == 'eu' %}B{% else %}C{% endif %}"

	out, _ := render(t, src, map[string]any{"region": "eu"}, false)
	assert.Equal(t, "B", out)

	out, _ = render(t, src, map[string]any{"region": "jp"}, false)
	assert.Equal(t, "C", out)
}

func TestRenderForLoop(t *testing.T) {
	src := "SELECT {% for col in columns %}{{ col }}, {% endfor %}1 FROM t"
	tpl, err := Parse(src)
	require.NoError(t, err)

	env := NewEnvironment(map[string]any{
		"columns": []any{"a", "b", "c"},
	}, func() bool { return false })

	out, _, err := Render(tpl, env)
	require.NoError(t, err)
	assert.Equal(t, "SELECT a, b, c, 1 FROM t", out)
}

func TestRenderProjectMacro(t *testing.T) {
	macroSrc := `{% macro wrap_upper(name) %}UPPER({{ name }}){% endmacro %}`
	macroTpl, err := Parse(macroSrc)
	require.NoError(t, err)

	env := NewEnvironment(nil, func() bool { return false })
	env.RegisterMacros(macroTpl)

	modelTpl, err := Parse("SELECT {{ wrap_upper('email') }} FROM users")
	require.NoError(t, err)

	out, _, err := Render(modelTpl, env)
	require.NoError(t, err)
	assert.Equal(t, "SELECT UPPER(email) FROM users", out)
}

func TestTestMacroDiscovery(t *testing.T) {
	macroTpl, err := Parse(`{% macro test_not_null(column_name) %}SELECT * FROM t WHERE {{ column_name }} IS NULL{% endmacro %}`)
	require.NoError(t, err)

	env := NewEnvironment(nil, func() bool { return false })
	env.RegisterMacros(macroTpl)

	tests := env.TestMacros()
	require.Contains(t, tests, "not_null")
}

func TestParseUnclosedTagFails(t *testing.T) {
	_, err := Parse("SELECT {{ 1")
	require.Error(t, err)
}

func TestParseMismatchedBlockFails(t *testing.T) {
	_, err := Parse("{% if true %}a{% endfor %}")
	require.Error(t, err)
}
