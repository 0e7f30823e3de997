package template

import "strings"

// Macro is a registered, callable template macro defined by a `{% macro %}`
// block (from a `.sql` file under the macros directory or the model body
// itself). Built-ins are not Macros: they live in Environment.Builtins as
// BuiltinFunc values.
type Macro struct {
	Params []string
	Body   []Node
}

// Environment is the rendering context for one model: the project's
// configured variables, the project macro table, the built-in function
// table, the
// incrementality predicate for `is_incremental()`, and a capture sink
// that `config(...)` calls write into.
type Environment struct {
	Vars      map[string]any
	Macros    map[string]*Macro
	Builtins  map[string]BuiltinFunc
	Incremental func() bool

	scopes   []map[string]any
	captured map[string]any
}

// NewEnvironment builds an Environment seeded with the configured vars
// and the standard built-in macro table. incremental is the closure the
// caller binds from Config.IsIncremental for the model currently being
// rendered.
func NewEnvironment(vars map[string]any, incremental func() bool) *Environment {
	return &Environment{
		Vars:        vars,
		Macros:      make(map[string]*Macro),
		Builtins:    BuiltinFuncs,
		Incremental: incremental,
	}
}

// RegisterMacros loads every top-level {% macro %} definition found in
// tpl into the environment's macro table, overwriting a prior
// registration with the same name (the last-loaded macro file wins, the
// same "later paths override earlier ones" rule the project loader
// applies to config merging).
func (e *Environment) RegisterMacros(tpl *Template) {
	for _, n := range tpl.Nodes {
		if m, ok := n.(MacroDef); ok {
			e.Macros[m.Name] = &Macro{Params: m.Params, Body: m.Body}
		}
	}
}

// TestMacros returns the subset of the macro table discovered as custom
// tests: project macros named `test_<name>`, keyed by the bare `<name>`
// the schema catalog's `tests:` list refers to.
func (e *Environment) TestMacros() map[string]*Macro {
	const prefix = "test_"

	tests := make(map[string]*Macro)

	for name, m := range e.Macros {
		if strings.HasPrefix(name, prefix) {
			tests[strings.TrimPrefix(name, prefix)] = m
		}
	}

	return tests
}

func (e *Environment) pushScope(scope map[string]any) {
	e.scopes = append(e.scopes, scope)
}

func (e *Environment) popScope() {
	e.scopes = e.scopes[:len(e.scopes)-1]
}

func (e *Environment) lookup(name string) (any, bool) {
	for i := len(e.scopes) - 1; i >= 0; i-- {
		if v, ok := e.scopes[i][name]; ok {
			return v, true
		}
	}

	v, ok := e.Vars[name]

	return v, ok
}
