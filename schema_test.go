package featherflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRelSchemaLookupCaseInsensitive(t *testing.T) {
	s := RelSchema{Columns: []ColumnDecl{
		{Name: "OrderId", Nullability: NotNull},
		{Name: "total", Nullability: Unknown},
	}}

	col, ok := s.Lookup("orderid")
	assert.True(t, ok)
	assert.Equal(t, "OrderId", col.Name)
	assert.Equal(t, NotNull, col.Nullability)

	_, ok = s.Lookup("missing")
	assert.False(t, ok)
}

func TestRelSchemaColumnNames(t *testing.T) {
	s := RelSchema{Columns: []ColumnDecl{{Name: "a"}, {Name: "b"}}}
	assert.Equal(t, []string{"a", "b"}, s.ColumnNames())
}
