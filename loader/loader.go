// Package loader implements the Project Loader phase: it walks the
// configured model, seed, source, function, and macro directories and
// produces typed Node records, leaving every dependency field empty for
// later phases to fill in.
package loader

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// Project is the loader's output: every discovered node keyed by its
// case-insensitive name, plus the macro source files found under
// MacrosDir (parsed later by the template engine, once per compile).
type Project struct {
	Nodes      map[string]*featherflow.Node
	MacroFiles []string
}

// Load walks every configured directory under root (the directory
// containing featherflow.yml) and returns the discovered project. Any
// E011/E012/MissingSchemaFile/duplicate-name violation aborts the load;
// every violation found in a single pass is collected and returned
// together via errors.Join ("collect, then fail once").
func Load(cfg *featherflow.Config, root string) (*Project, error) {
	proj := &Project{Nodes: make(map[string]*featherflow.Node)}

	var problems []error

	addNode := func(n *featherflow.Node) {
		key := lowerKey(n.Name)
		if _, exists := proj.Nodes[key]; exists {
			problems = append(problems, fmt.Errorf("%w: %q (from %s)", featherflow.ErrDuplicateNode, n.Name, n.SourcePath))

			return
		}

		proj.Nodes[key] = n
	}

	modelNodes, modelErrs := loadModels(filepath.Join(root, cfg.ModelsDir))
	problems = append(problems, modelErrs...)

	for _, n := range modelNodes {
		addNode(n)
	}

	seedNodes, seedErrs := loadSeeds(filepath.Join(root, cfg.SeedsDir))
	problems = append(problems, seedErrs...)

	for _, n := range seedNodes {
		addNode(n)
	}

	sourceNodes, sourceErrs := loadSources(filepath.Join(root, cfg.SourcesDir))
	problems = append(problems, sourceErrs...)

	for _, n := range sourceNodes {
		addNode(n)
	}

	functionNodes, functionErrs := loadFunctions(filepath.Join(root, cfg.FunctionsDir))
	problems = append(problems, functionErrs...)

	for _, n := range functionNodes {
		addNode(n)
	}

	macroFiles, err := findFiles(filepath.Join(root, cfg.MacrosDir), ".sql")
	if err != nil {
		problems = append(problems, err)
	}

	proj.MacroFiles = macroFiles

	if len(problems) > 0 {
		return nil, errors.Join(problems...)
	}

	return proj, nil
}

func lowerKey(name string) string {
	return strings.ToLower(name)
}
