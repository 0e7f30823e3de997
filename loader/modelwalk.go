package loader

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// loadModels walks dir looking for model directories: a model must live
// in its own directory named identically to its .sql/.yml pair, with no
// other files and no subdirectories (§4.1). Category directories (no
// files at all directly inside them) are recursed into but never become
// nodes themselves.
func loadModels(dir string) ([]*featherflow.Node, []error) {
	if !dirExists(dir) {
		return nil, nil
	}

	var (
		nodes []*featherflow.Node
		errs  []error
	)

	var walk func(string)
	walk = func(path string) {
		entries, err := os.ReadDir(path)
		if err != nil {
			errs = append(errs, fmt.Errorf("reading %s: %w", path, err))

			return
		}

		var files []os.DirEntry

		var subdirs []os.DirEntry

		for _, e := range entries {
			if e.IsDir() {
				subdirs = append(subdirs, e)
			} else {
				files = append(files, e)
			}
		}

		if len(files) == 0 {
			for _, d := range subdirs {
				walk(filepath.Join(path, d.Name()))
			}

			return
		}

		node, nodeErrs := buildModelNode(path, files)
		errs = append(errs, nodeErrs...)

		if node != nil {
			nodes = append(nodes, node)
		}

		if len(subdirs) > 0 {
			errs = append(errs, fmt.Errorf("%w: %s: model directories may not contain subdirectories", featherflow.ErrLooseFile, path))
		}
	}

	walk(dir)

	return nodes, errs
}

func buildModelNode(dir string, files []os.DirEntry) (*featherflow.Node, []error) {
	name := filepath.Base(dir)

	var (
		sqlFile, ymlFile string
		mismatched       []string
		loose            []string
	)

	for _, f := range files {
		fname := f.Name()

		switch {
		case fname == name+".sql":
			sqlFile = fname
		case fname == name+".yml" || fname == name+".yaml":
			ymlFile = fname
		case strings.HasSuffix(fname, ".sql") || strings.HasSuffix(fname, ".yml") || strings.HasSuffix(fname, ".yaml"):
			mismatched = append(mismatched, fname)
		default:
			loose = append(loose, fname)
		}
	}

	var errs []error

	for _, f := range mismatched {
		errs = append(errs, fmt.Errorf("%w: %s: file %q does not match directory name %q", featherflow.ErrNameMismatch, dir, f, name))
	}

	for _, f := range loose {
		errs = append(errs, fmt.Errorf("%w: %s: unexpected file %q", featherflow.ErrLooseFile, dir, f))
	}

	if sqlFile == "" {
		if len(mismatched) == 0 && len(loose) == 0 {
			errs = append(errs, fmt.Errorf("%w: %s: no .sql file found", featherflow.ErrLooseFile, dir))
		}

		return nil, errs
	}

	if ymlFile == "" {
		errs = append(errs, fmt.Errorf("%w: %s", featherflow.ErrMissingSchemaFile, dir))

		return nil, errs
	}

	sqlPath := filepath.Join(dir, sqlFile)

	rawSQL, err := os.ReadFile(sqlPath)
	if err != nil {
		errs = append(errs, fmt.Errorf("reading %s: %w", sqlPath, err))

		return nil, errs
	}

	schema, modelErr := readModelSchema(filepath.Join(dir, ymlFile))
	if modelErr != nil {
		errs = append(errs, modelErr)

		return nil, errs
	}

	node := &featherflow.Node{
		Name:            name,
		Kind:            featherflow.KindModel,
		SourcePath:      sqlPath,
		RawSQL:          string(rawSQL),
		Materialization: schema.materialization(),
		TargetSchema:    schema.targetSchema(),
		DeclaredSchema:  schema.relSchema(),
	}

	if len(errs) > 0 {
		return nil, errs
	}

	return node, nil
}

func dirExists(path string) bool {
	info, err := os.Stat(path)

	return err == nil && info.IsDir()
}
