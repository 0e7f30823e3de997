package dependency

import "strings"

// lastComponent folds name to the case-insensitive last dot-separated
// component used for matching throughout this package (§3 "Dependency
// reference").
func lastComponent(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	return strings.ToLower(name)
}

// KnownNames is the case-folded last-component name set the Categorizer
// resolves raw references against. Models and seeds are both "known" (§4.6
// groups seeds into the model/seed resolution bucket since both are DAG
// vertices); sources are kept separate only because a source table is
// still a managed node but never a compile target. Function names are
// intentionally absent here: §4.6 only produces model_deps/external_deps/
// unknown_deps, and the Function Resolver (§4.7) is the one phase that
// looks a name up against the declared function set, scanning precisely
// the unknown_deps this step leaves behind.
type KnownNames struct {
	Models   map[string]bool
	Sources  map[string]bool
	External map[string]bool
}

// Categorized holds a node's dependency lists after classification.
type Categorized struct {
	ModelDeps    []string
	ExternalDeps []string
	UnknownDeps  []string
}

// Categorize classifies each raw reference by its case-folded last
// component (§4.6). A name that matches both a model/seed and a declared
// external table resolves to model_deps: models and seeds are DAG vertices
// the DAG Builder must see, so they take priority over a same-named
// external declaration.
func Categorize(refs []RawRef, known KnownNames) Categorized {
	var out Categorized

	for _, ref := range refs {
		switch {
		case known.Models[ref.Key], known.Sources[ref.Key]:
			out.ModelDeps = append(out.ModelDeps, ref.Key)
		case known.External[ref.Key]:
			out.ExternalDeps = append(out.ExternalDeps, ref.Key)
		default:
			out.UnknownDeps = append(out.UnknownDeps, ref.Key)
		}
	}

	return out
}
