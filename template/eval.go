package template

import (
	"fmt"
	"strconv"
	"strings"
)

// Render renders tpl against env, returning the final SQL text and the
// key/value pairs any `config(...)` call captured along the way. Any
// project macros the model's own body defines (`{% macro %}` blocks
// co-located with SQL) are registered into env before the rest of the
// body renders, same as RegisterMacros does for a dedicated macro file.
func Render(tpl *Template, env *Environment) (string, map[string]any, error) {
	env.captured = make(map[string]any)
	env.RegisterMacros(tpl)

	var sb strings.Builder
	if err := renderNodes(tpl.Nodes, env, &sb); err != nil {
		return "", nil, err
	}

	return sb.String(), env.captured, nil
}

func renderNodes(nodes []Node, env *Environment, sb *strings.Builder) error {
	for _, n := range nodes {
		if err := renderNode(n, env, sb); err != nil {
			return err
		}
	}

	return nil
}

func renderNode(n Node, env *Environment, sb *strings.Builder) error {
	switch node := n.(type) {
	case TextNode:
		sb.WriteString(node.Text)
	case MacroDef:
		// already registered in a pre-pass; a macro block renders nothing inline.
	case ExprNode:
		val, err := eval(node.Expr, env)
		if err != nil {
			return err
		}

		sb.WriteString(toDisplayString(val))
	case IfNode:
		for _, branch := range node.Branches {
			cond, err := eval(branch.Cond, env)
			if err != nil {
				return err
			}

			if toBool(cond) {
				return renderNodes(branch.Body, env, sb)
			}
		}

		return renderNodes(node.Else, env, sb)
	case ForNode:
		iterable, err := eval(node.Iterable, env)
		if err != nil {
			return err
		}

		items, ok := iterable.([]any)
		if !ok {
			return renderFailure(node.Pos, "for-loop target %q is not a list", exprSummary(node.Iterable))
		}

		for _, item := range items {
			env.pushScope(map[string]any{node.Var: item})
			err := renderNodes(node.Body, env, sb)
			env.popScope()

			if err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("template: unhandled node type %T", n)
	}

	return nil
}

func eval(e Expr, env *Environment) (any, error) {
	switch expr := e.(type) {
	case *Literal:
		return expr.Value, nil
	case *Ident:
		if v, ok := env.lookup(expr.Name); ok {
			return v, nil
		}

		// bare is_incremental may be referenced without a call when used as
		// a plain boolean condition, e.g. `{% if is_incremental %}`.
		if expr.Name == "is_incremental" {
			return env.Incremental(), nil
		}

		return nil, unknownIdentifier(expr.Pos, expr.Name)
	case *Member:
		target, err := eval(expr.Target, env)
		if err != nil {
			if expr.Safe {
				return nil, nil
			}

			return nil, err
		}

		m, ok := target.(map[string]any)
		if !ok {
			if expr.Safe {
				return nil, nil
			}

			return nil, renderFailure(expr.Pos, "cannot access field %q on non-object value", expr.Property)
		}

		v, ok := m[expr.Property]
		if !ok {
			if expr.Safe {
				return nil, nil
			}

			return nil, renderFailure(expr.Pos, "unknown field %q", expr.Property)
		}

		return v, nil
	case *Index:
		target, err := eval(expr.Target, env)
		if err != nil {
			if expr.Safe {
				return nil, nil
			}

			return nil, err
		}

		list, ok := target.([]any)
		if !ok || expr.Idx < 0 || expr.Idx >= len(list) {
			if expr.Safe {
				return nil, nil
			}

			return nil, renderFailure(expr.Pos, "index %d out of range", expr.Idx)
		}

		return list[expr.Idx], nil
	case *ListExpr:
		items := make([]any, 0, len(expr.Items))

		for _, item := range expr.Items {
			v, err := eval(item, env)
			if err != nil {
				return nil, err
			}

			items = append(items, v)
		}

		return items, nil
	case *UnaryExpr:
		v, err := eval(expr.Operand, env)
		if err != nil {
			return nil, err
		}

		if expr.Op == "not" {
			return !toBool(v), nil
		}

		n, err := toNumber(v)
		if err != nil {
			return nil, renderFailure(expr.Pos, "%v", err)
		}

		return -n, nil
	case *BinaryExpr:
		return evalBinary(expr, env)
	case *Call:
		return evalCall(expr, env)
	default:
		return nil, fmt.Errorf("template: unhandled expr type %T", e)
	}
}

func evalBinary(expr *BinaryExpr, env *Environment) (any, error) {
	if expr.Op == "and" {
		left, err := eval(expr.Left, env)
		if err != nil {
			return nil, err
		}

		if !toBool(left) {
			return false, nil
		}

		right, err := eval(expr.Right, env)

		return toBool(right), err
	}

	if expr.Op == "or" {
		left, err := eval(expr.Left, env)
		if err != nil {
			return nil, err
		}

		if toBool(left) {
			return true, nil
		}

		right, err := eval(expr.Right, env)

		return toBool(right), err
	}

	left, err := eval(expr.Left, env)
	if err != nil {
		return nil, err
	}

	right, err := eval(expr.Right, env)
	if err != nil {
		return nil, err
	}

	switch expr.Op {
	case "~":
		return toDisplayString(left) + toDisplayString(right), nil
	case "==":
		return valuesEqual(left, right), nil
	case "!=":
		return !valuesEqual(left, right), nil
	case "+", "-", "*", "/", "<", "<=", ">", ">=":
		ln, err1 := toNumber(left)
		rn, err2 := toNumber(right)

		if err1 != nil || err2 != nil {
			return nil, renderFailure(expr.Pos, "operator %q requires numeric operands", expr.Op)
		}

		switch expr.Op {
		case "+":
			return ln + rn, nil
		case "-":
			return ln - rn, nil
		case "*":
			return ln * rn, nil
		case "/":
			if rn == 0 {
				return nil, renderFailure(expr.Pos, "division by zero")
			}

			return ln / rn, nil
		case "<":
			return ln < rn, nil
		case "<=":
			return ln <= rn, nil
		case ">":
			return ln > rn, nil
		case ">=":
			return ln >= rn, nil
		}
	}

	return nil, renderFailure(expr.Pos, "unsupported operator %q", expr.Op)
}

func evalCall(call *Call, env *Environment) (any, error) {
	args := make([]any, 0, len(call.Args))

	for _, a := range call.Args {
		v, err := eval(a, env)
		if err != nil {
			return nil, err
		}

		args = append(args, v)
	}

	kwargs := make(map[string]any, len(call.Kwargs))

	for k, a := range call.Kwargs {
		v, err := eval(a, env)
		if err != nil {
			return nil, err
		}

		kwargs[k] = v
	}

	switch call.Name {
	case "config":
		for k, v := range kwargs {
			env.captured[k] = v
		}

		return "", nil
	case "var":
		return evalVarCall(call, args, env)
	case "is_incremental":
		return env.Incremental(), nil
	}

	if macro, ok := env.Macros[call.Name]; ok {
		return callMacro(macro, args, env, call.Pos)
	}

	if fn, ok := env.Builtins[call.Name]; ok {
		v, err := fn(args, kwargs)
		if err != nil {
			return nil, renderFailure(call.Pos, "%v", err)
		}

		return v, nil
	}

	return nil, unknownIdentifier(call.Pos, call.Name)
}

func evalVarCall(call *Call, args []any, env *Environment) (any, error) {
	if len(args) == 0 {
		return nil, renderFailure(call.Pos, "var() requires a name argument")
	}

	name, ok := args[0].(string)
	if !ok {
		return nil, renderFailure(call.Pos, "var() name must be a string")
	}

	if v, ok := env.Vars[name]; ok {
		return v, nil
	}

	if len(args) > 1 {
		return args[1], nil
	}

	return nil, undefinedVariable(call.Pos, name)
}

func callMacro(macro *Macro, args []any, env *Environment, pos Position) (string, error) {
	if len(args) > len(macro.Params) {
		return "", renderFailure(pos, "too many arguments: macro takes %d, got %d", len(macro.Params), len(args))
	}

	scope := make(map[string]any, len(macro.Params))
	for i, name := range macro.Params {
		if i < len(args) {
			scope[name] = args[i]
		}
	}

	env.pushScope(scope)
	defer env.popScope()

	var sb strings.Builder
	if err := renderNodes(macro.Body, env, &sb); err != nil {
		return "", err
	}

	return sb.String(), nil
}

func toBool(v any) bool {
	switch val := v.(type) {
	case nil:
		return false
	case bool:
		return val
	case string:
		return val != ""
	case float64:
		return val != 0
	case []any:
		return len(val) > 0
	default:
		return true
	}
}

func toNumber(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case int:
		return float64(val), nil
	case string:
		n, err := strconv.ParseFloat(val, 64)

		return n, err
	default:
		return 0, fmt.Errorf("value %v is not numeric", v)
	}
}

func valuesEqual(a, b any) bool {
	an, aerr := toNumber(a)
	bn, berr := toNumber(b)

	if aerr == nil && berr == nil {
		return an == bn
	}

	return fmt.Sprint(a) == fmt.Sprint(b)
}

func toDisplayString(v any) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	case float64:
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}

		return strconv.FormatFloat(val, 'g', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return fmt.Sprint(val)
	}
}

func exprSummary(e Expr) string {
	switch expr := e.(type) {
	case *Ident:
		return expr.Name
	case *Member:
		return exprSummary(expr.Target) + "." + expr.Property
	default:
		return "<expr>"
	}
}
