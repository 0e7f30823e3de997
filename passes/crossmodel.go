package passes

import (
	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
)

// crossModelConsistencyPass implements the Cross-model consistency check
// (§4.12 A040): two sibling models that both declare a column by the same
// name, sourced from the same upstream node (one of them via ref), but
// disagree on its type. A041 (the declared-vs-inferred column-count
// divergence) is emitted by the Schema Propagator directly, since it
// already has both schemas in hand at the moment it would otherwise have
// to recompute them here.
type crossModelConsistencyPass struct{}

func (crossModelConsistencyPass) Name() string { return "cross-model-consistency" }

func (p crossModelConsistencyPass) RunDAG(nodes map[string]*featherflow.Node, order []string, cat *catalog.Catalog, cfg *featherflow.Config) []featherflow.Diagnostic {
	// refKey -> (model, column, type) of the first sighting, so the second
	// sighting of the same upstream ref can compare against it.
	type sighting struct {
		model, column, sqlType string
	}
	seen := map[string]sighting{}

	var out []featherflow.Diagnostic
	for _, name := range order {
		node, ok := nodes[name]
		if !ok || node.Kind != featherflow.KindModel {
			continue
		}
		for _, col := range node.DeclaredSchema.Columns {
			if col.RefNode == "" || col.SQLType == "" {
				continue
			}
			refColumn := col.RefColumn
			if refColumn == "" {
				refColumn = col.Name
			}
			key := lastComponent(col.RefNode) + "." + lastComponent(refColumn)

			prior, ok := seen[key]
			if !ok {
				seen[key] = sighting{model: node.Name, column: col.Name, sqlType: col.SQLType}
				continue
			}
			if prior.sqlType != col.SQLType {
				out = append(out, diag(cfg, "A040", node.Name,
					"column %q (ref %s) is declared %s here but %s in %s's %q",
					col.Name, key, col.SQLType, prior.sqlType, prior.model, prior.column))
			}
		}
	}
	return out
}
