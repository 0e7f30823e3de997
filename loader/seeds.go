package loader

import (
	"path/filepath"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// loadSeeds registers every .csv file under dir as a seed Node (§3
// "Seed"). Featherflow never reads seed rows (CSV loading is an external
// collaborator concern); a seed's schema is declared, optionally, in a
// sibling .yml of the same stem, reusing the model schema file shape
// minus the config block.
func loadSeeds(dir string) ([]*featherflow.Node, []error) {
	csvFiles, err := findFiles(dir, ".csv")
	if err != nil {
		return nil, []error{err}
	}

	var (
		nodes []*featherflow.Node
		errs  []error
	)

	for _, path := range csvFiles {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

		node := &featherflow.Node{
			Name:       stem,
			Kind:       featherflow.KindSeed,
			SourcePath: path,
		}

		ymlPath := filepath.Join(filepath.Dir(path), stem+".yml")
		if fileExists(ymlPath) {
			if schema, err := readModelSchema(ymlPath); err == nil {
				node.DeclaredSchema = schema.relSchema()
			}
		}

		nodes = append(nodes, node)
	}

	return nodes, errs
}
