package loader

import (
	"fmt"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// loadSources reads every .yml/.yaml file directly or nested under dir
// and turns each declared table into its own source Node (§6 "Source
// file"). Unlike models, source files are not one-per-directory; a
// single file may declare several tables.
func loadSources(dir string) ([]*featherflow.Node, []error) {
	paths, err := findAnyYAML(dir)
	if err != nil {
		return nil, []error{err}
	}

	var (
		nodes []*featherflow.Node
		errs  []error
	)

	for _, path := range paths {
		src, err := readSourceFile(path)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		for _, table := range src.Tables {
			cols := make([]featherflow.ColumnDecl, 0, len(table.Columns))
			for _, c := range table.Columns {
				cols = append(cols, c.toColumnDecl())
			}

			nodes = append(nodes, &featherflow.Node{
				Name:           table.Name,
				Kind:           featherflow.KindSource,
				SourcePath:     path,
				TargetSchema:   src.Schema,
				DeclaredSchema: featherflow.RelSchema{Columns: cols},
			})
		}

		if len(src.Tables) == 0 {
			errs = append(errs, fmt.Errorf("%s: source %q declares no tables", path, src.Name))
		}
	}

	return nodes, errs
}

func findAnyYAML(dir string) ([]string, error) {
	yml, err := findFiles(dir, ".yml")
	if err != nil {
		return nil, err
	}

	yaml, err := findFiles(dir, ".yaml")
	if err != nil {
		return nil, err
	}

	return append(yml, yaml...), nil
}
