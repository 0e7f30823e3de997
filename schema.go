package featherflow

import "strings"

// Nullability is a column's inferred or declared null-admitting state.
// Unknown means no evidence either way yet (§4.9): a declared column only
// becomes NotNull when its declaration carries a not_null test, while the
// planner marks an inferred output column NotNull when its expression
// cannot produce NULL.
type Nullability int

const (
	Unknown Nullability = iota
	NotNull
	Nullable
)

func (n Nullability) String() string {
	switch n {
	case NotNull:
		return "not_null"
	case Nullable:
		return "nullable"
	default:
		return "unknown"
	}
}

// ColumnDecl is one declared or inferred column (§3 "Column declaration").
type ColumnDecl struct {
	Name        string
	SQLType     string // raw declared/inferred type, e.g. "DECIMAL(10,2)"
	Nullability Nullability
	Description string
	// RefNode/RefColumn point at another node's column this one documents
	// itself against (a "ref" in YAML); empty when undeclared.
	RefNode   string
	RefColumn string
	Tests     []string
	Tags      []string
}

// RelSchema is an ordered list of typed, nullable columns: the schema
// catalog's unit of storage (§3 "Schema catalog") and every logical plan
// node's output shape (§3 "Logical plan (IR)").
type RelSchema struct {
	Columns []ColumnDecl
}

// ColumnNames returns the schema's column names in declared order.
func (s RelSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// Lookup finds a column by case-insensitive name.
func (s RelSchema) Lookup(name string) (ColumnDecl, bool) {
	for _, c := range s.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return ColumnDecl{}, false
}
