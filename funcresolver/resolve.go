// Package funcresolver implements the Function Resolver phase (§4.7): for
// each unknown dependency that names a declared table function, it parses
// the function body and recursively pulls in whatever that body itself
// depends on, contributing the result to the calling model's dependency
// lists instead of leaving the reference unknown.
package funcresolver

import (
	"fmt"
	"sort"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/dependency"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// resolved is the memoized outcome of resolving one function's body: the
// model/external deps it contributes, plus whatever it could still not
// resolve (a reference that is neither a model/seed/source/external nor
// another declared function).
type resolved struct {
	modelDeps    []string
	externalDeps []string
	unknownDeps  []string
}

// Resolver recursively resolves table-function dependencies against a
// fixed set of declared functions and known project names.
type Resolver struct {
	functions map[string]*featherflow.Node
	known     dependency.KnownNames
	dialect   tokenizer.SqlDialect

	cache    map[string]resolved
	resolving map[string]bool
}

// New builds a Resolver. functions maps a function's case-folded bare name
// to its Node (RawSQL holding the function's body).
func New(functions map[string]*featherflow.Node, known dependency.KnownNames, dialect tokenizer.SqlDialect) *Resolver {
	return &Resolver{
		functions: functions,
		known:     known,
		dialect:   dialect,
		cache:     make(map[string]resolved),
		resolving: make(map[string]bool),
	}
}

// Resolve walks node's UnknownDeps, expanding every one that names a
// declared function, and merges the result into node's ModelDeps/
// ExternalDeps/FunctionResolvedDeps. Any reference that still cannot be
// classified after function expansion is reported together in a single
// hard error naming every offending identifier, per §4.7's "any unknown
// reference that survives function resolution causes a hard failure."
func (r *Resolver) Resolve(node *featherflow.Node) error {
	var (
		stillUnknown []string
		funcDeps     []string
	)

	modelSet := toSet(node.ModelDeps)
	externalSet := toSet(node.ExternalDeps)

	for _, dep := range node.UnknownDeps {
		fn, ok := r.functions[dep]
		if !ok {
			stillUnknown = append(stillUnknown, dep)
			continue
		}

		res, err := r.resolveFunction(dep, fn, []string{node.Name})
		if err != nil {
			return err
		}

		funcDeps = append(funcDeps, dep)
		for _, d := range res.modelDeps {
			modelSet[d] = true
		}
		for _, d := range res.externalDeps {
			externalSet[d] = true
		}
		stillUnknown = append(stillUnknown, res.unknownDeps...)
	}

	if len(stillUnknown) > 0 {
		sort.Strings(stillUnknown)
		return fmt.Errorf("%w: %s", featherflow.ErrUnknownDependency, strings.Join(dedupe(stillUnknown), ", "))
	}

	node.ModelDeps = fromSet(modelSet)
	node.ExternalDeps = fromSet(externalSet)
	node.FunctionResolvedDeps = funcDeps
	node.UnknownDeps = nil

	return nil
}

// resolveFunction returns fn's transitive model/external/unknown
// contribution, memoized by function name. stack carries the chain of
// names currently being resolved so a function that (directly or
// indirectly) calls itself fails with ErrFunctionCycle instead of
// recursing forever.
func (r *Resolver) resolveFunction(name string, fn *featherflow.Node, stack []string) (resolved, error) {
	if cached, ok := r.cache[name]; ok {
		return cached, nil
	}

	if r.resolving[name] {
		return resolved{}, fmt.Errorf("%w: %s", featherflow.ErrFunctionCycle, strings.Join(append(stack, name), " -> "))
	}
	r.resolving[name] = true
	defer delete(r.resolving, name)

	stmt, err := parser.Parse(fn.RawSQL, r.dialect)
	if err != nil {
		return resolved{}, fmt.Errorf("function %s: %w", name, err)
	}

	refs := dependency.Extract(stmt)
	cat := dependency.Categorize(refs, r.known)

	out := resolved{
		modelDeps:    cat.ModelDeps,
		externalDeps: cat.ExternalDeps,
	}

	for _, dep := range cat.UnknownDeps {
		nested, ok := r.functions[dep]
		if !ok {
			out.unknownDeps = append(out.unknownDeps, dep)
			continue
		}

		nestedRes, err := r.resolveFunction(dep, nested, append(append([]string{}, stack...), name))
		if err != nil {
			return resolved{}, err
		}

		out.modelDeps = append(out.modelDeps, nestedRes.modelDeps...)
		out.externalDeps = append(out.externalDeps, nestedRes.externalDeps...)
		out.unknownDeps = append(out.unknownDeps, nestedRes.unknownDeps...)
	}

	r.cache[name] = out

	return out, nil
}

func toSet(ss []string) map[string]bool {
	m := make(map[string]bool, len(ss))
	for _, s := range ss {
		m[s] = true
	}
	return m
}

func fromSet(m map[string]bool) []string {
	if len(m) == 0 {
		return nil
	}
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func dedupe(ss []string) []string {
	seen := make(map[string]bool, len(ss))
	out := make([]string, 0, len(ss))
	for _, s := range ss {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
