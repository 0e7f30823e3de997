package loader

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	featherflow "github.com/datastx/Feather-Flow-sub001"
)

// columnYAML is one entry of a schema file's `columns:` list (§6 "Schema
// file"). References holds a `model.column` string for a documented
// copy/rename lineage; constraints/classification/tags pass through to
// the description-drift and classification passes unchanged.
type columnYAML struct {
	Name           string   `yaml:"name"`
	DataType       string   `yaml:"data_type"`
	Description    string   `yaml:"description"`
	Tests          []string `yaml:"tests"`
	References     string   `yaml:"references"`
	Constraints    []string `yaml:"constraints"`
	Classification string   `yaml:"classification"`
	Tags           []string `yaml:"tags"`
}

func (c columnYAML) toColumnDecl() featherflow.ColumnDecl {
	decl := featherflow.ColumnDecl{
		Name:        c.Name,
		SQLType:     c.DataType,
		Description: c.Description,
		Tests:       c.Tests,
		Tags:        c.Tags,
	}

	for _, t := range c.Tests {
		if t == "not_null" {
			decl.Nullability = featherflow.NotNull
		}
	}

	if c.References != "" {
		decl.RefNode, decl.RefColumn = splitRef(c.References)
	}

	return decl
}

func splitRef(ref string) (string, string) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '.' {
			return ref[:i], ref[i+1:]
		}
	}

	return ref, ""
}

// configYAML is a model schema file's optional `config:` block: the
// materialization and target schema the Project Loader assigns a model
// node directly from YAML, separate from whatever the template's config()
// call captures at render time (that capture is stored as the node's
// CapturedConfig and does not change these fields).
type configYAML struct {
	Materialized string `yaml:"materialized"`
	Schema       string `yaml:"schema"`
}

type freshnessYAML struct {
	WarnAfter     string `yaml:"warn_after"`
	ErrorAfter    string `yaml:"error_after"`
	LoadedAtField string `yaml:"loaded_at_field"`
}

type contractYAML struct {
	Enforced bool `yaml:"enforced"`
}

// modelSchemaFile is the decoded shape of a model's `.yml` sidecar (§6
// "Schema file"). Shared as-is by seed schema files, which use the same
// description/owner/columns/tags shape but never carry a config block.
type modelSchemaFile struct {
	Description  string         `yaml:"description"`
	Owner        string         `yaml:"owner"`
	Columns      []columnYAML   `yaml:"columns"`
	Config       *configYAML    `yaml:"config"`
	Freshness    *freshnessYAML `yaml:"freshness"`
	Tags         []string       `yaml:"tags"`
	Contract     *contractYAML  `yaml:"contract"`
	Deprecated   bool           `yaml:"deprecated"`
	Deprecation  string         `yaml:"deprecation_message"`
}

func (s *modelSchemaFile) materialization() featherflow.Materialization {
	if s.Config == nil || s.Config.Materialized == "" {
		return featherflow.MaterializeView
	}

	return featherflow.Materialization(s.Config.Materialized)
}

func (s *modelSchemaFile) targetSchema() string {
	if s.Config == nil {
		return ""
	}

	return s.Config.Schema
}

func (s *modelSchemaFile) relSchema() featherflow.RelSchema {
	cols := make([]featherflow.ColumnDecl, 0, len(s.Columns))
	for _, c := range s.Columns {
		cols = append(cols, c.toColumnDecl())
	}

	return featherflow.RelSchema{Columns: cols}
}

func readModelSchema(path string) (*modelSchemaFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var schema modelSchemaFile
	if err := yaml.UnmarshalWithOptions(data, &schema, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &schema, nil
}

// sourceTableYAML is one table entry of a source file's `tables:` list.
type sourceTableYAML struct {
	Name        string         `yaml:"name"`
	Columns     []columnYAML   `yaml:"columns"`
	Freshness   *freshnessYAML `yaml:"freshness"`
	Description string         `yaml:"description"`
}

// sourceFile is the decoded shape of a `kind: sources` YAML file (§6
// "Source file"): one external-source descriptor naming a database/
// schema, with one or more tables, each of which becomes its own source
// Node.
type sourceFile struct {
	Kind     string            `yaml:"kind"`
	Name     string            `yaml:"name"`
	Schema   string            `yaml:"schema"`
	Database string            `yaml:"database"`
	Tables   []sourceTableYAML `yaml:"tables"`
}

func readSourceFile(path string) (*sourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var src sourceFile
	if err := yaml.UnmarshalWithOptions(data, &src, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &src, nil
}

// functionArgYAML is one argument of a function file's `args:` list.
type functionArgYAML struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// functionFile is the decoded shape of a `kind: function` YAML file (§6
// "Function file"): a scalar or table function's signature plus its SQL
// body, consumed by the Function Resolver to discover transitive model
// dependencies hidden inside a table function's body.
type functionFile struct {
	Kind         string            `yaml:"kind"`
	Name         string            `yaml:"name"`
	FunctionType string            `yaml:"function_type"`
	Args         []functionArgYAML `yaml:"args"`
	ReturnType   string            `yaml:"return_type"`
	SQL          string            `yaml:"sql"`
}

func readFunctionFile(path string) (*functionFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var fn functionFile
	if err := yaml.UnmarshalWithOptions(data, &fn, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return &fn, nil
}
