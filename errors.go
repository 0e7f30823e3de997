package featherflow

import "errors"

// Sentinel errors for the project-level failures the Project Loader, DAG
// Builder, and Function Resolver can raise (§4.1, §4.7, §4.8). These abort
// compilation immediately, unlike per-model Diagnostic values, because
// subsequent phases are undefined without a complete, acyclic node set.
var (
	// ErrLooseFile is E011: a file sits in a model directory that isn't the
	// model's own .sql/.yml pair.
	ErrLooseFile = errors.New("loose file in model directory")

	// ErrNameMismatch is E012: a model directory's name doesn't match its
	// .sql/.yml file names.
	ErrNameMismatch = errors.New("model directory name does not match its files")

	// ErrMissingSchemaFile fires when a model's .sql has no matching .yml.
	ErrMissingSchemaFile = errors.New("missing schema file")

	// ErrDuplicateNode fires when two nodes share a case-insensitive name.
	ErrDuplicateNode = errors.New("duplicate node name")

	// ErrUnknownDependency fires when a reference survives function
	// resolution without being classified as model, seed, source, or
	// external.
	ErrUnknownDependency = errors.New("unknown dependency")

	// ErrFunctionCycle fires when resolving a table function's body
	// recurses back into a function already on the call stack.
	ErrFunctionCycle = errors.New("function call cycle")

	// ErrCircularDependency is CircularDependency: the DAG has a cycle
	// after self-edge elision.
	ErrCircularDependency = errors.New("circular dependency")
)
