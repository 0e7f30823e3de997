package template

import (
	"fmt"
	"strings"
)

// BuiltinFunc is a built-in macro's Go implementation: positional args
// plus keyword args in, one rendered value out.
type BuiltinFunc func(args []any, kwargs map[string]any) (any, error)

// BuiltinFuncs is the string/math/utility/cross-DB macro table every
// Environment starts with; it has no date helpers. These render SQL text or literal-ish values;
// none of them touch a clock or a database, since compiled output must
// stay deterministic and the compiler never executes SQL.
var BuiltinFuncs = map[string]BuiltinFunc{
	// string
	"upper":   wrapStringFn(strings.ToUpper),
	"lower":   wrapStringFn(strings.ToLower),
	"trim":    wrapStringFn(strings.TrimSpace),
	"length":  builtinLength,
	"replace": builtinReplace,
	"join":    builtinJoin,

	// math
	"abs": builtinAbs,
	"min": builtinMin,
	"max": builtinMax,

	// utility
	"default":  builtinDefault,
	"quote":    builtinQuote,
	"as_list":  builtinAsList,

	// cross-DB
	"current_timestamp_expr": builtinCurrentTimestampExpr,
	"quote_identifier":       builtinQuoteIdentifier,
}

func wrapStringFn(f func(string) string) BuiltinFunc {
	return func(args []any, _ map[string]any) (any, error) {
		s, err := argString(args, 0, "")
		if err != nil {
			return nil, err
		}

		return f(s), nil
	}
}

func builtinLength(args []any, _ map[string]any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("length() requires one argument")
	}

	switch v := args[0].(type) {
	case string:
		return float64(len(v)), nil
	case []any:
		return float64(len(v)), nil
	default:
		return nil, fmt.Errorf("length() argument must be a string or list")
	}
}

func builtinReplace(args []any, _ map[string]any) (any, error) {
	if len(args) != 3 {
		return nil, fmt.Errorf("replace() requires (value, old, new)")
	}

	s, ok1 := args[0].(string)
	oldS, ok2 := args[1].(string)
	newS, ok3 := args[2].(string)

	if !ok1 || !ok2 || !ok3 {
		return nil, fmt.Errorf("replace() arguments must be strings")
	}

	return strings.ReplaceAll(s, oldS, newS), nil
}

func builtinJoin(args []any, _ map[string]any) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("join() requires a list argument")
	}

	list, ok := args[0].([]any)
	if !ok {
		return nil, fmt.Errorf("join() first argument must be a list")
	}

	sep := ", "
	if len(args) > 1 {
		s, ok := args[1].(string)
		if !ok {
			return nil, fmt.Errorf("join() separator must be a string")
		}

		sep = s
	}

	parts := make([]string, 0, len(list))
	for _, item := range list {
		parts = append(parts, toDisplayString(item))
	}

	return strings.Join(parts, sep), nil
}

func builtinAbs(args []any, _ map[string]any) (any, error) {
	n, err := argNumber(args, 0)
	if err != nil {
		return nil, err
	}

	if n < 0 {
		return -n, nil
	}

	return n, nil
}

func builtinMin(args []any, _ map[string]any) (any, error) {
	return numericFold(args, func(a, b float64) bool { return a < b })
}

func builtinMax(args []any, _ map[string]any) (any, error) {
	return numericFold(args, func(a, b float64) bool { return a > b })
}

func numericFold(args []any, keep func(a, b float64) bool) (any, error) {
	if len(args) == 0 {
		return nil, fmt.Errorf("requires at least one numeric argument")
	}

	best, err := toNumber(args[0])
	if err != nil {
		return nil, err
	}

	for _, a := range args[1:] {
		n, err := toNumber(a)
		if err != nil {
			return nil, err
		}

		if keep(n, best) {
			best = n
		}
	}

	return best, nil
}

func builtinDefault(args []any, _ map[string]any) (any, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("default() requires (value, fallback)")
	}

	if args[0] == nil || args[0] == "" {
		return args[1], nil
	}

	return args[0], nil
}

func builtinQuote(args []any, _ map[string]any) (any, error) {
	s, err := argString(args, 0, "")
	if err != nil {
		return nil, err
	}

	return "'" + strings.ReplaceAll(s, "'", "''") + "'", nil
}

func builtinAsList(args []any, _ map[string]any) (any, error) {
	return args, nil
}

func builtinCurrentTimestampExpr(_ []any, _ map[string]any) (any, error) {
	return "CURRENT_TIMESTAMP", nil
}

func builtinQuoteIdentifier(args []any, _ map[string]any) (any, error) {
	s, err := argString(args, 0, "")
	if err != nil {
		return nil, err
	}

	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`, nil
}

func argString(args []any, idx int, fallback string) (string, error) {
	if idx >= len(args) {
		return fallback, nil
	}

	s, ok := args[idx].(string)
	if !ok {
		return "", fmt.Errorf("argument %d must be a string", idx)
	}

	return s, nil
}

func argNumber(args []any, idx int) (float64, error) {
	if idx >= len(args) {
		return 0, fmt.Errorf("missing argument %d", idx)
	}

	return toNumber(args[idx])
}
