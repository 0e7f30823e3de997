// Package propagator implements the Schema Propagator phase (§4.11):
// walking models in topological order, planning each one's SQL, and
// feeding its inferred schema forward into the catalog so the next model
// downstream sees what its upstream dependency actually produces rather
// than only what was declared in YAML.
package propagator

import (
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/planner"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// Propagate walks order (the DAG Builder's topological order, model and
// seed vertices only) and, for every entry that names a model node in
// nodes, plans its rendered SQL against cat, records the inferred schema
// on the node and in cat, and appends SA01/SA02/A041 diagnostics comparing
// the declared schema to what the SQL actually produces. Seeds and
// sources have no SQL to plan and are skipped; a planning failure is
// returned immediately since every later phase assumes every model has an
// inferred schema.
func Propagate(order []string, nodes map[string]*featherflow.Node, cat *catalog.Catalog, dialect tokenizer.SqlDialect, udfs map[string]planner.UDFStub, cfg *featherflow.Config) error {
	for _, name := range order {
		node, ok := nodes[name]
		if !ok || node.Kind != featherflow.KindModel {
			continue
		}

		plan, err := planner.PlanModel(node.RenderedSQL, dialect, cat, udfs)
		if err != nil {
			return fmt.Errorf("propagating schema for %s: %w", name, err)
		}

		inferred := plan.Schema()
		node.InferredSchema = inferred
		cat.Update(name, inferred)

		emitDivergence(cfg, node, inferred)
	}
	return nil
}

// emitDivergence compares a model's declared schema against its inferred
// one and appends the three contract diagnostics §4.11 names: SA01 for a
// declared column missing from the SQL output, SA02 for a column the SQL
// produces that wasn't declared (or whose type/nullability disagrees),
// and A041 for the same divergence framed as a general cross-model
// consistency warning.
func emitDivergence(cfg *featherflow.Config, node *featherflow.Node, inferred featherflow.RelSchema) {
	declared := node.DeclaredSchema
	if len(declared.Columns) == 0 {
		// Nothing was declared for this model; there is no contract to
		// check against.
		return
	}

	for _, d := range declared.Columns {
		actual, ok := inferred.Lookup(d.Name)
		if !ok {
			node.AddDiagnostic(featherflow.NewDiagnostic(cfg, "SA01", node.Name,
				fmt.Sprintf("declared column %q is not produced by this model's SQL", d.Name), nil))
			continue
		}

		if d.SQLType != "" && actual.SQLType != "" && d.SQLType != actual.SQLType {
			node.AddDiagnostic(featherflow.NewDiagnostic(cfg, "SA02", node.Name,
				fmt.Sprintf("column %q declared as %s but SQL produces %s", d.Name, d.SQLType, actual.SQLType), nil))
		}
		if d.Nullability == featherflow.NotNull && actual.Nullability != featherflow.NotNull {
			node.AddDiagnostic(featherflow.NewDiagnostic(cfg, "SA02", node.Name,
				fmt.Sprintf("column %q declared not_null but SQL produces a nullable result", d.Name), nil))
		}
	}

	for _, a := range inferred.Columns {
		if _, ok := declared.Lookup(a.Name); !ok {
			node.AddDiagnostic(featherflow.NewDiagnostic(cfg, "SA02", node.Name,
				fmt.Sprintf("column %q is produced by this model's SQL but not declared", a.Name), nil))
		}
	}

	if len(declared.Columns) != len(inferred.Columns) {
		node.AddDiagnostic(featherflow.NewDiagnostic(cfg, "A041", node.Name,
			fmt.Sprintf("declared schema has %d column(s), inferred schema has %d", len(declared.Columns), len(inferred.Columns)), nil))
	}
}
