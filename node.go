package featherflow

import (
	"time"

	"github.com/datastx/Feather-Flow-sub001/parser"
)

// NodeKind is a project artifact's kind, set by the Project Loader from
// which configured directory it was discovered under.
type NodeKind string

const (
	KindModel    NodeKind = "model"
	KindSeed     NodeKind = "seed"
	KindSource   NodeKind = "source"
	KindFunction NodeKind = "function"
	KindSnapshot NodeKind = "snapshot"
)

// Materialization is how a model node's compiled SQL should be realized.
type Materialization string

const (
	MaterializeTable       Materialization = "table"
	MaterializeView        Materialization = "view"
	MaterializeIncremental Materialization = "incremental"
	MaterializeEphemeral   Materialization = "ephemeral"
)

// Node is a single project artifact, carried through every compile phase
// and mutated only by the pipeline stage responsible for that field (§3
// "Node", "Lifecycle"). Names are matched case-insensitively everywhere
// else in the pipeline, but Name itself preserves the declared casing.
type Node struct {
	Name       string
	Kind       NodeKind
	SourcePath string
	RawSQL     string

	// Populated by the Template Engine (§4.2).
	RenderedSQL string
	CapturedConfig map[string]any

	// CompileDuration is the wall-clock time this model's own render+parse
	// step took; surfaced in the Emitter's manifest as per-model run
	// metadata (SPEC_FULL §C).
	CompileDuration time.Duration

	// Populated by the SQL Parser / Structural Validator (§4.3, §4.4).
	Statement *parser.Statement

	// Populated by the Dependency Extractor / Categorizer (§4.5, §4.6).
	RawDeps      []string
	ModelDeps    []string
	ExternalDeps []string
	UnknownDeps  []string

	// Populated by the Function Resolver (§4.7); only meaningful for model
	// nodes that transitively call a table function.
	FunctionResolvedDeps []string

	// Model-only metadata, declared in the node's YAML.
	Materialization Materialization
	TargetSchema    string

	// DeclaredSchema comes from YAML; InferredSchema is produced by the
	// Schema Propagator and overrides it for downstream visibility (§4.11).
	DeclaredSchema RelSchema
	InferredSchema RelSchema

	Diagnostics []Diagnostic
}

// IsIncremental reports whether this node is a model materialized
// incrementally.
func (n *Node) IsIncremental() bool {
	return n.Kind == KindModel && n.Materialization == MaterializeIncremental
}

// IsEphemeral reports whether this node is a model that should be inlined
// into its consumers rather than compiled to its own statement (§4.14).
func (n *Node) IsEphemeral() bool {
	return n.Kind == KindModel && n.Materialization == MaterializeEphemeral
}

// AddDiagnostic appends to the node's append-only diagnostic log.
func (n *Node) AddDiagnostic(d Diagnostic) {
	n.Diagnostics = append(n.Diagnostics, d)
}
