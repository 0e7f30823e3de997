// Package passes implements the Diagnostic Pass Manager (§4.12): a set of
// built-in checks run over every model (per-model passes) or over the
// whole dependency graph at once (DAG-level passes), each producing
// Diagnostics whose severity a Config can override per-code.
package passes

import (
	"fmt"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/parser"
)

// Pass is one diagnostic check. PerModel passes run once per model node;
// DAG passes run once over the whole node set and need the topological
// order to reason about producer/consumer relationships.
type Pass interface {
	Name() string
}

// ModelPass inspects a single model node.
type ModelPass interface {
	Pass
	RunModel(node *featherflow.Node, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic
}

// DAGPass inspects the whole node set together.
type DAGPass interface {
	Pass
	RunDAG(nodes map[string]*featherflow.Node, order []string, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic
}

// BuiltinModelPasses is the default per-model pass set (§4.12): join keys
// and an unused-join heuristic run directly against the statement a model
// parsed to, independent of the planner's own hard AE00x failures.
func BuiltinModelPasses() []ModelPass {
	return []ModelPass{joinKeyPass{}, unusedColumnPass{}, descriptionDriftPass{}, typeInferencePass{}, nullabilityPass{}}
}

// BuiltinDAGPasses is the default whole-graph pass set.
func BuiltinDAGPasses() []DAGPass {
	return []DAGPass{crossModelConsistencyPass{}}
}

// Run executes every built-in pass over nodes in DAG order, appending each
// finding to the offending node's own Diagnostics log (the same log the
// Schema Propagator already writes SA01/SA02/A041 to) and returning the
// flat list for a caller that wants to report without re-walking nodes.
func Run(nodes map[string]*featherflow.Node, order []string, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	var all []featherflow.Diagnostic

	for _, name := range order {
		node, ok := nodes[name]
		if !ok || node.Kind != featherflow.KindModel {
			continue
		}
		for _, p := range BuiltinModelPasses() {
			found := p.RunModel(node, cat, cfg)
			node.Diagnostics = append(node.Diagnostics, found...)
			all = append(all, found...)
		}
	}

	for _, p := range BuiltinDAGPasses() {
		found := p.RunDAG(nodes, order, cat, cfg)
		all = append(all, found...)
		for _, d := range found {
			if n, ok := nodes[d.Model]; ok {
				n.AddDiagnostic(d)
			}
		}
	}

	return all
}

func diag(cfg *featherflow.Config, code, model, format string, args ...any) featherflow.Diagnostic {
	return featherflow.NewDiagnostic(cfg, code, model, fmt.Sprintf(format, args...), nil)
}

// walkJoins visits every JoinRef reachable from a SELECT's FROM list,
// including nested joins on either side.
func walkJoins(refs []parser.TableRef, visit func(*parser.JoinRef)) {
	for _, r := range refs {
		walkJoinRef(r, visit)
	}
}

func walkJoinRef(ref parser.TableRef, visit func(*parser.JoinRef)) {
	if ref.Join == nil {
		return
	}
	visit(ref.Join)
	walkJoinRef(ref.Join.Left, visit)
	walkJoinRef(ref.Join.Right, visit)
}

// collectColumnRefs gathers every ColumnRef reachable from e.
func collectColumnRefs(e parser.Expr, out *[]*parser.ColumnRef) {
	if e == nil {
		return
	}
	switch n := e.(type) {
	case *parser.ColumnRef:
		*out = append(*out, n)
	case *parser.UnaryExpr:
		collectColumnRefs(n.Operand, out)
	case *parser.BinaryExpr:
		collectColumnRefs(n.Left, out)
		collectColumnRefs(n.Right, out)
	case *parser.FunctionCall:
		for _, a := range n.Args {
			collectColumnRefs(a, out)
		}
		if n.Over != nil {
			for _, p := range n.Over.PartitionBy {
				collectColumnRefs(p, out)
			}
			for _, o := range n.Over.OrderBy {
				collectColumnRefs(o.Expr, out)
			}
		}
	case *parser.CaseExpr:
		collectColumnRefs(n.Operand, out)
		for _, w := range n.Whens {
			collectColumnRefs(w.Condition, out)
			collectColumnRefs(w.Result, out)
		}
		collectColumnRefs(n.Else, out)
	case *parser.ScalarSubquery:
		// A subquery's own column references resolve against its own
		// scope, not the outer statement's joined tables; it never
		// contributes to an outer join's usage count.
	}
}

func tableAlias(ref parser.TableRef) string {
	if ref.Alias != "" {
		return ref.Alias
	}
	return ref.Table
}

func lastComponent(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}
