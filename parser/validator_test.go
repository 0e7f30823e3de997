package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

func TestValidateRejectsDML(t *testing.T) {
	tests := []struct {
		name string
		sql  string
		want string
	}{
		{"insert", "INSERT INTO t (a) VALUES (1)", "INSERT"},
		{"update", "UPDATE t SET a = 1", "UPDATE"},
		{"delete", "DELETE FROM t", "DELETE"},
		{"drop", "DROP TABLE t", "DROP"},
		{"truncate", "TRUNCATE TABLE t", "TRUNCATE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stmt, err := Parse(tt.sql, tokenizer.NewPostgresDialect())
			require.NoError(t, err)
			findings := Validate(stmt)
			require.NotEmpty(t, findings)
			assert.Equal(t, "S003", findings[0].Code)
		})
	}
}

func TestValidateRejectsCTE(t *testing.T) {
	stmt, err := Parse(`WITH recent AS (SELECT 1 AS x) SELECT x FROM recent`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	findings := Validate(stmt)
	require.NotEmpty(t, findings)
	assert.Equal(t, "S005", findings[0].Code)
}

func TestValidateRejectsDerivedTable(t *testing.T) {
	stmt, err := Parse(`SELECT x.id FROM (SELECT id FROM orders) x`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	findings := Validate(stmt)
	require.NotEmpty(t, findings)
	assert.Equal(t, "S006", findings[0].Code)
}

func TestValidateAllowsScalarSubqueries(t *testing.T) {
	tests := []string{
		`SELECT (SELECT MAX(amount) FROM payments) AS m FROM orders`,
		`SELECT id FROM orders WHERE amount > (SELECT AVG(amount) FROM orders)`,
		`SELECT customer_id FROM orders GROUP BY customer_id HAVING COUNT(*) > (SELECT 1)`,
	}
	for _, sql := range tests {
		stmt, err := Parse(sql, tokenizer.NewPostgresDialect())
		require.NoError(t, err)
		findings := Validate(stmt)
		assert.Empty(t, findings, sql)
	}
}

func TestValidateCleanSelectHasNoFindings(t *testing.T) {
	stmt, err := Parse(`SELECT id, name FROM users WHERE active = true ORDER BY name LIMIT 10`, tokenizer.NewPostgresDialect())
	require.NoError(t, err)
	findings := Validate(stmt)
	assert.Empty(t, findings)
}
