package catalog

import (
	"strconv"
	"strings"
)

// ParsedType is a declared or inferred SQL type split into its base name
// and parameters (§4.9 "a SQL-type grammar that understands parameterized
// types"). Precision/Scale are set only for a two-argument type like
// DECIMAL(10,2); Length only for a one-argument type like VARCHAR(255).
type ParsedType struct {
	Base      string
	Length    *int
	Precision *int
	Scale     *int
}

// ParseSQLType splits a raw declared type string into its base name and
// parenthesized parameters. Matching is case-insensitive and whitespace
// tolerant; an unparenthesized type like "INTEGER" yields just Base.
func ParseSQLType(raw string) ParsedType {
	s := strings.TrimSpace(raw)

	open := strings.Index(s, "(")
	if open < 0 {
		return ParsedType{Base: strings.ToUpper(s)}
	}

	base := strings.ToUpper(strings.TrimSpace(s[:open]))
	close := strings.LastIndex(s, ")")
	if close < open {
		return ParsedType{Base: base}
	}

	args := strings.Split(s[open+1:close], ",")
	nums := make([]int, 0, len(args))
	for _, a := range args {
		n, err := strconv.Atoi(strings.TrimSpace(a))
		if err != nil {
			continue
		}
		nums = append(nums, n)
	}

	pt := ParsedType{Base: base}
	switch len(nums) {
	case 1:
		pt.Length = &nums[0]
	case 2:
		pt.Precision = &nums[0]
		pt.Scale = &nums[1]
	}

	return pt
}

// normalizedFamily groups DB-flavored type spellings into one of the
// handful of families the planner's type inference and the Schema
// Propagator's divergence checks compare against, following the same
// split-on-"("-then-map idiom the teacher's database type mappers use.
var normalizedFamily = map[string]string{
	"INT": "int", "INTEGER": "int", "SMALLINT": "int", "BIGINT": "int",
	"INT2": "int", "INT4": "int", "INT8": "int", "SERIAL": "int", "BIGSERIAL": "int",
	"DECIMAL": "decimal", "NUMERIC": "decimal", "REAL": "float", "FLOAT": "float",
	"DOUBLE": "float", "DOUBLE PRECISION": "float",
	"VARCHAR": "string", "CHAR": "string", "TEXT": "string", "CHARACTER VARYING": "string",
	"BOOLEAN": "bool", "BOOL": "bool",
	"DATE": "date", "TIME": "time",
	"TIMESTAMP": "timestamp", "TIMESTAMPTZ": "timestamp", "DATETIME": "timestamp",
	"JSON": "json", "JSONB": "json",
	"UUID": "string", "BYTEA": "binary", "BLOB": "binary",
}

// Family normalizes the type's base name to one of the families planner
// comparisons use, or "any" for a base name it doesn't recognize.
func (t ParsedType) Family() string {
	if fam, ok := normalizedFamily[t.Base]; ok {
		return fam
	}
	return "any"
}
