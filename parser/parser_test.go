package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func TestParseSimpleSelect(t *testing.T) {
	stmt, err := Parse("SELECT id, name AS full_name FROM users WHERE id > 10", tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	require.NotNil(t, stmt.Select)

	sel := stmt.Select
	require.Len(t, sel.Items, 2)
	assert.Equal(t, "id", sel.Items[0].Expr.(*ColumnRef).Column)
	assert.Equal(t, "full_name", sel.Items[1].Alias)

	require.Len(t, sel.From, 1)
	assert.Equal(t, "users", sel.From[0].Table)

	require.NotNil(t, sel.Where)
	bin, ok := sel.Where.(*BinaryExpr)
	require.True(t, ok)
	assert.Equal(t, ">", bin.Op)
}

func TestParseJoin(t *testing.T) {
	stmt, err := Parse(`SELECT o.id FROM orders o LEFT JOIN customers c ON o.customer_id = c.id`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	require.Len(t, stmt.Select.From, 1)

	join := stmt.Select.From[0].Join
	require.NotNil(t, join)
	assert.Equal(t, JoinLeft, join.Kind)
	assert.Equal(t, "orders", join.Left.Table)
	assert.Equal(t, "customers", join.Right.Table)
	require.NotNil(t, join.On)
}

func TestParseAggregateAndGroupBy(t *testing.T) {
	stmt, err := Parse(`SELECT customer_id, COUNT(*) AS n FROM orders GROUP BY customer_id HAVING COUNT(*) > 1`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	sel := stmt.Select
	require.Len(t, sel.Items, 2)
	call, ok := sel.Items[1].Expr.(*FunctionCall)
	require.True(t, ok)
	assert.Equal(t, "COUNT", call.Name)
	require.Len(t, sel.GroupBy, 1)
	require.NotNil(t, sel.Having)
}

func TestParseWindowFunction(t *testing.T) {
	stmt, err := Parse(`SELECT id, ROW_NUMBER() OVER (PARTITION BY customer_id ORDER BY created_at DESC) AS rn FROM orders`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	call := stmt.Select.Items[1].Expr.(*FunctionCall)
	require.NotNil(t, call.Over)
	assert.Len(t, call.Over.PartitionBy, 1)
	assert.Len(t, call.Over.OrderBy, 1)
	assert.True(t, call.Over.OrderBy[0].Desc)
}

func TestParseScalarSubqueryAllowedInSelect(t *testing.T) {
	stmt, err := Parse(`SELECT id, (SELECT MAX(amount) FROM payments p WHERE p.order_id = o.id) AS max_paid FROM orders o`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	sub, ok := stmt.Select.Items[1].Expr.(*ScalarSubquery)
	require.True(t, ok)
	assert.NotNil(t, sub.Query)
}

func TestParseCaseExpression(t *testing.T) {
	stmt, err := Parse(`SELECT CASE WHEN amount > 100 THEN 'big' ELSE 'small' END AS bucket FROM orders`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	ce, ok := stmt.Select.Items[0].Expr.(*CaseExpr)
	require.True(t, ok)
	require.Len(t, ce.Whens, 1)
	require.NotNil(t, ce.Else)
}

func TestParseTrailingStatementDetected(t *testing.T) {
	stmt, err := Parse(`SELECT 1; DROP TABLE users`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	assert.Equal(t, "DROP", stmt.TrailingKind)
}

func TestParseEmptyBodyFails(t *testing.T) {
	_, err := Parse("   ", tokenizer.NewPostgresDialect())
	assert.ErrorIs(t, err, ErrEmptyStatement)
}
