package featherflow

// FunctionKind classifies how the planner treats a built-in function call.
type FunctionKind int

const (
	FunctionScalar FunctionKind = iota
	FunctionAggregate
	FunctionWindow
)

// FunctionSignature describes a built-in function's return-type and
// nullability rule, consulted by the IR lowerer's function registry
// (§4.10). ReturnTypeByArg/NullableByArg propagate the first argument's
// type/nullability rather than using a fixed ReturnType/Nullable.
type FunctionSignature struct {
	Kind            FunctionKind
	ReturnType      string
	ReturnTypeByArg bool
	Nullable        bool
	NullableByArg   bool
	CastType        bool // true for CAST: typed as its first argument's type; the AST carries no target type to read
}

// BuiltinFunctions is the scalar/aggregate/window registry for Featherflow's
// primary dialect. User-defined functions (kind: function nodes) are
// layered on top of this at plan time as stubs carrying only name,
// argument types, and return type (§4.10); they never appear here.
var BuiltinFunctions = map[string]FunctionSignature{
	// Scalar
	"LENGTH":    {Kind: FunctionScalar, ReturnType: "int", NullableByArg: true},
	"COALESCE":  {Kind: FunctionScalar, ReturnTypeByArg: true, NullableByArg: true},
	"NULLIF":    {Kind: FunctionScalar, ReturnTypeByArg: true, Nullable: true},
	"CAST":      {Kind: FunctionScalar, CastType: true, NullableByArg: true},
	"UPPER":     {Kind: FunctionScalar, ReturnType: "string", NullableByArg: true},
	"LOWER":     {Kind: FunctionScalar, ReturnType: "string", NullableByArg: true},
	"NOW":       {Kind: FunctionScalar, ReturnType: "timestamp", Nullable: false},
	"DATE_ADD":  {Kind: FunctionScalar, ReturnType: "timestamp", NullableByArg: true},
	"SUBSTRING": {Kind: FunctionScalar, ReturnType: "string", NullableByArg: true},
	"TRIM":      {Kind: FunctionScalar, ReturnType: "string", NullableByArg: true},
	"ARRAY":     {Kind: FunctionScalar, ReturnType: "array", NullableByArg: true},
	"UNNEST":    {Kind: FunctionScalar, ReturnType: "any", NullableByArg: true},

	// Aggregate
	"SUM":   {Kind: FunctionAggregate, ReturnTypeByArg: true, NullableByArg: true},
	"AVG":   {Kind: FunctionAggregate, ReturnTypeByArg: true, NullableByArg: true},
	"COUNT": {Kind: FunctionAggregate, ReturnType: "bigint", Nullable: false},
	"MIN":   {Kind: FunctionAggregate, ReturnTypeByArg: true, NullableByArg: true},
	"MAX":   {Kind: FunctionAggregate, ReturnTypeByArg: true, NullableByArg: true},

	// Window (aggregate functions also validly appear with an OVER clause;
	// the planner checks FunctionCall.Over, not this table, to decide)
	"ROW_NUMBER":  {Kind: FunctionWindow, ReturnType: "bigint", Nullable: false},
	"RANK":        {Kind: FunctionWindow, ReturnType: "bigint", Nullable: false},
	"DENSE_RANK":  {Kind: FunctionWindow, ReturnType: "bigint", Nullable: false},
	"FIRST_VALUE": {Kind: FunctionWindow, ReturnTypeByArg: true, NullableByArg: true},
	"LAST_VALUE":  {Kind: FunctionWindow, ReturnTypeByArg: true, NullableByArg: true},
	"LEAD":        {Kind: FunctionWindow, ReturnTypeByArg: true, Nullable: true},
	"LAG":         {Kind: FunctionWindow, ReturnTypeByArg: true, Nullable: true},
}
