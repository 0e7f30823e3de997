package dependency

import (
	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// BuildKnownNames derives the case-folded name sets the Categorizer
// resolves against from the loaded project: every model and seed node
// becomes a "model" vertex, every source node its own bucket, and the
// configured external table declarations round out the third.
func BuildKnownNames(nodes map[string]*featherflow.Node, externalTables []string) KnownNames {
	known := KnownNames{
		Models:   make(map[string]bool),
		Sources:  make(map[string]bool),
		External: make(map[string]bool),
	}

	for name, n := range nodes {
		key := lastComponent(name)
		switch n.Kind {
		case featherflow.KindModel, featherflow.KindSeed:
			known.Models[key] = true
		case featherflow.KindSource:
			known.Sources[key] = true
		}
	}

	for _, t := range externalTables {
		known.External[lastComponent(t)] = true
	}

	return known
}

// Apply runs Extract and Categorize against node.Statement and writes the
// resulting dependency lists back onto it (§4.5, §4.6). Only meaningful
// for model nodes; seeds, sources, and functions have no statement to walk.
func Apply(node *featherflow.Node, known KnownNames) {
	refs := Extract(node.Statement)

	raw := make([]string, 0, len(refs))
	for _, r := range refs {
		raw = append(raw, r.Name)
	}
	node.RawDeps = raw

	cat := Categorize(refs, known)
	node.ModelDeps = cat.ModelDeps
	node.ExternalDeps = cat.ExternalDeps
	node.UnknownDeps = cat.UnknownDeps
}
