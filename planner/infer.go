package planner

import (
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// UDFStub is a user-defined table function's signature, derived from its
// kind: function node at plan time (§4.10 "argument types, return type").
// Unlike featherflow.FunctionSignature it carries no Kind/CastType bits:
// a kind: function node is always a plain scalar-returning call from the
// planner's point of view.
type UDFStub struct {
	ReturnType string
	Nullable   bool
}

// exprType is the planner's lightweight per-node type result: a SQL type
// family string (matching catalog.ParsedType.Family's vocabulary) plus
// nullability.
type exprType struct {
	Type     string
	Nullable bool
}

var comparisonOps = map[string]bool{
	"=": true, "!=": true, "<>": true, "<": true, "<=": true, ">": true, ">=": true,
	"LIKE": true, "IN": true, "IS": true, "BETWEEN": true,
	"NOT LIKE": true, "NOT IN": true, "NOT BETWEEN": true,
}

var logicalOps = map[string]bool{"AND": true, "OR": true}

// inferExpr walks e against scope, resolving column references there and
// function calls against funcs (built-ins) then udfs (user-defined table
// functions promoted to scalar stubs). It implements the type-inference
// and nullability diagnostic passes' shared groundwork (§4.10, A002-A012).
func inferExpr(e parser.Expr, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	switch n := e.(type) {
	case *parser.Literal:
		return inferLiteral(n)

	case *parser.ColumnRef:
		col, err := scope.Lookup(n.Table, n.Column)
		if err != nil {
			return exprType{}, err
		}
		return exprType{Type: col.SQLType, Nullable: col.Nullability != featherflow.NotNull}, nil

	case *parser.UnaryExpr:
		operand, err := inferExpr(n.Operand, scope, udfs)
		if err != nil {
			return exprType{}, err
		}
		if strings.EqualFold(n.Op, "NOT") {
			return exprType{Type: "bool", Nullable: operand.Nullable}, nil
		}
		return operand, nil

	case *parser.BinaryExpr:
		return inferBinary(n, scope, udfs)

	case *parser.FunctionCall:
		return inferFunctionCall(n, scope, udfs)

	case *parser.CaseExpr:
		return inferCase(n, scope, udfs)

	case *parser.ScalarSubquery:
		return inferScalarSubquery(n, scope, udfs)

	case *parser.Star:
		return exprType{}, errPlannerFailure("star expression has no scalar type")

	default:
		return exprType{}, errPlannerFailure("unrecognized expression node %T", e)
	}
}

// inferLiteral types a literal token. DECIMAL-family literals are folded
// through shopspring/decimal.NewFromString rather than just pattern-matched
// on "contains a dot": this both rejects malformed numeric literals the
// tokenizer's grammar lets through unnoticed (e.g. "12.34.56") and
// canonicalizes the value the same way the Emitter's manifest reports it,
// so a DECIMAL literal's folded string and its rendered SQL never diverge.
func inferLiteral(l *parser.Literal) (exprType, error) {
	switch l.Kind {
	case tokenizer.NUMBER:
		if strings.Contains(l.Value, ".") {
			if _, err := decimal.NewFromString(l.Value); err != nil {
				return exprType{}, errPlannerFailure("invalid decimal literal %q: %v", l.Value, err)
			}
			return exprType{Type: "decimal", Nullable: false}, nil
		}
		return exprType{Type: "int", Nullable: false}, nil
	case tokenizer.STRING:
		return exprType{Type: "string", Nullable: false}, nil
	default: // tokenizer.KEYWORD: NULL, TRUE, FALSE
		if strings.EqualFold(l.Value, "NULL") {
			return exprType{Type: "any", Nullable: true}, nil
		}
		return exprType{Type: "bool", Nullable: false}, nil
	}
}

func inferBinary(b *parser.BinaryExpr, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	op := strings.ToUpper(b.Op)

	left, err := inferExpr(b.Left, scope, udfs)
	if err != nil {
		return exprType{}, err
	}
	// BETWEEN/IN's right operand may be a list built via the __in_list
	// synthetic function; inferExpr already resolves that through the
	// FunctionCall case, so no special-casing is needed here.
	right, err := inferExpr(b.Right, scope, udfs)
	if err != nil {
		return exprType{}, err
	}

	if comparisonOps[op] || logicalOps[op] {
		return exprType{Type: "bool", Nullable: left.Nullable || right.Nullable}, nil
	}

	// Arithmetic: promote to the wider numeric family, decimal winning
	// over int, and propagate nullability from either side.
	result := left.Type
	if left.Type == "int" && right.Type == "decimal" {
		result = "decimal"
	}
	return exprType{Type: result, Nullable: left.Nullable || right.Nullable}, nil
}

func inferFunctionCall(f *parser.FunctionCall, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	name := strings.ToUpper(f.Name)

	if name == "__IN_LIST" {
		// Synthetic list-of-values node built for "x IN (a, b, c)"; its own
		// type is never consulted (the enclosing BinaryExpr resolves to
		// bool), but every element must still resolve so bad references are
		// still caught.
		for _, a := range f.Args {
			if _, err := inferExpr(a, scope, udfs); err != nil {
				return exprType{}, err
			}
		}
		return exprType{Type: "any", Nullable: false}, nil
	}

	if sig, ok := featherflow.BuiltinFunctions[name]; ok {
		return inferBuiltinCall(sig, f, scope, udfs)
	}

	if stub, ok := udfs[strings.ToLower(f.Name)]; ok {
		for _, a := range f.Args {
			if _, err := inferExpr(a, scope, udfs); err != nil {
				return exprType{}, err
			}
		}
		return exprType{Type: stub.ReturnType, Nullable: stub.Nullable}, nil
	}

	return exprType{}, errPlannerFailure("unknown function %q", f.Name)
}

func inferBuiltinCall(sig featherflow.FunctionSignature, f *parser.FunctionCall, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	var first exprType
	haveFirst := false
	for i, a := range f.Args {
		t, err := inferExpr(a, scope, udfs)
		if err != nil {
			return exprType{}, err
		}
		if i == 0 {
			first, haveFirst = t, true
		}
	}

	result := exprType{Type: sig.ReturnType, Nullable: sig.Nullable}

	// CAST(x AS type) has no dedicated AST node in this grammar (the
	// parenthesized "x AS type" form never reaches a parser.Expr as a
	// target-type-carrying node), so CastType degrades to ReturnTypeByArg:
	// the cast is modeled as a no-op that keeps its argument's type rather
	// than the explicit target type a full CAST would report.
	if (sig.ReturnTypeByArg || sig.CastType) && haveFirst {
		result.Type = first.Type
	}
	if sig.NullableByArg && haveFirst {
		result.Nullable = first.Nullable
	}
	return result, nil
}

func inferCase(c *parser.CaseExpr, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	if c.Operand != nil {
		if _, err := inferExpr(c.Operand, scope, udfs); err != nil {
			return exprType{}, err
		}
	}

	var result exprType
	have := false
	nullable := c.Else == nil // no ELSE means an unmatched row yields NULL
	for _, w := range c.Whens {
		if _, err := inferExpr(w.Condition, scope, udfs); err != nil {
			return exprType{}, err
		}
		t, err := inferExpr(w.Result, scope, udfs)
		if err != nil {
			return exprType{}, err
		}
		if !have {
			result, have = t, true
		}
		nullable = nullable || t.Nullable
	}
	if c.Else != nil {
		t, err := inferExpr(c.Else, scope, udfs)
		if err != nil {
			return exprType{}, err
		}
		if !have {
			result, have = t, true
		}
		nullable = nullable || t.Nullable
	}
	result.Nullable = nullable
	return result, nil
}

func inferScalarSubquery(s *parser.ScalarSubquery, scope Scope, udfs map[string]UDFStub) (exprType, error) {
	// A scalar subquery's column set is resolved by the caller through a
	// full planSelect, not by this lightweight scope; since inferExpr has
	// no catalog/aggregate-detection access, it can only report the
	// subquery as a nullable value of unknown type (a correlated subquery
	// can always yield zero rows). The planner's top-level planSelect
	// plans the subquery separately when it needs the concrete schema.
	_ = s
	return exprType{Type: "any", Nullable: true}, nil
}

// parseIntLiteral is a small helper used by LIMIT/OFFSET validation; kept
// here since it's only ever needed alongside literal type inference.
func parseIntLiteral(e parser.Expr) (int, bool) {
	lit, ok := e.(*parser.Literal)
	if !ok || lit.Kind != tokenizer.NUMBER {
		return 0, false
	}
	n, err := strconv.Atoi(lit.Value)
	if err != nil {
		return 0, false
	}
	return n, true
}
