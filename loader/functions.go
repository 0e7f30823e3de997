package loader

import (
	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// loadFunctions reads every function YAML file under dir (§6 "Function
// file") into a KindFunction node. The function's SQL body becomes the
// node's RawSQL, and function-specific metadata is attached to
// CapturedConfig for the Function Resolver and IR lowerer's registry to
// consult.
func loadFunctions(dir string) ([]*featherflow.Node, []error) {
	paths, err := findAnyYAML(dir)
	if err != nil {
		return nil, []error{err}
	}

	var (
		nodes []*featherflow.Node
		errs  []error
	)

	for _, path := range paths {
		fn, err := readFunctionFile(path)
		if err != nil {
			errs = append(errs, err)

			continue
		}

		argNames := make([]any, 0, len(fn.Args))
		for _, a := range fn.Args {
			argNames = append(argNames, map[string]any{"name": a.Name, "type": a.Type})
		}

		nodes = append(nodes, &featherflow.Node{
			Name:       fn.Name,
			Kind:       featherflow.KindFunction,
			SourcePath: path,
			RawSQL:     fn.SQL,
			CapturedConfig: map[string]any{
				"function_type": fn.FunctionType,
				"return_type":   fn.ReturnType,
				"args":          argNames,
			},
		})
	}

	return nodes, errs
}
