package dag

import featherflow "github.com/datastx/Feather-Flow-sub001"

// DepsFromNodes extracts the {name -> model_deps} map Build expects from a
// loaded project's nodes. Only model and seed nodes become vertices — a
// source node is a known name for categorization purposes but the DAG
// itself only orders the things Featherflow actually compiles.
func DepsFromNodes(nodes map[string]*featherflow.Node) map[string][]string {
	deps := make(map[string][]string, len(nodes))
	for name, n := range nodes {
		if n.Kind != featherflow.KindModel && n.Kind != featherflow.KindSeed {
			continue
		}
		deps[name] = n.ModelDeps
	}
	return deps
}
