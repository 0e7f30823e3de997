// Package compile implements the Featherflow compile pipeline (§2): it
// runs every phase in order over a loaded project and returns the fully
// resolved node set, build order, catalog, and accumulated diagnostics a
// driver needs to hand to the Emitter.
//
// Grounded on the teacher's intermediate.TokenPipeline (intermediate/pipeline.go):
// a small ordered list of named stages run over one shared context,
// stopping at the first stage that returns an error. Featherflow's own
// stages operate over the whole project's node set rather than one
// statement's token stream, so this orchestrator is a sequence of plain
// function calls rather than a TokenProcessor registry — there's a fixed,
// spec-mandated stage order (§2) to run through exactly once, not a
// pluggable set a caller assembles per statement kind.
package compile

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/catalog"
	"github.com/datastx/Feather-Flow-sub001/dag"
	"github.com/datastx/Feather-Flow-sub001/dependency"
	"github.com/datastx/Feather-Flow-sub001/emit"
	"github.com/datastx/Feather-Flow-sub001/ephemeral"
	"github.com/datastx/Feather-Flow-sub001/funcresolver"
	"github.com/datastx/Feather-Flow-sub001/loader"
	"github.com/datastx/Feather-Flow-sub001/parser"
	"github.com/datastx/Feather-Flow-sub001/passes"
	"github.com/datastx/Feather-Flow-sub001/planner"
	"github.com/datastx/Feather-Flow-sub001/propagator"
	"github.com/datastx/Feather-Flow-sub001/qualifier"
	"github.com/datastx/Feather-Flow-sub001/template"
	"github.com/datastx/Feather-Flow-sub001/tokenizer"
)

// Result is everything downstream of a compile needs: the project's
// nodes (each carrying its final parsed/qualified Statement, inferred
// schema, and diagnostic log), the topological build order, the schema
// catalog as it stood after propagation, the flat diagnostic list the
// Diagnostic Pass Manager produced, and the Emitter's manifest.
type Result struct {
	Nodes       map[string]*featherflow.Node
	Order       []string
	Catalog     *catalog.Catalog
	Diagnostics []featherflow.Diagnostic
	Manifest    *emit.Manifest
}

// Options configures one Compile call: which target to compile against
// and where the Emitter should write compiled SQL and the manifest. An
// empty OutDir skips emission entirely, for callers that only want
// validate()'s "compile without emission" behavior (§2).
type Options struct {
	Target string
	OutDir string
}

// Compile runs every pipeline phase over the project rooted at root.
// Options.Target selects which Config.Targets entry the Template
// Engine's is_incremental() and the Qualifier's catalog-name derivation
// resolve against; an empty value falls back to Config.DefaultTarget.
func Compile(cfg *featherflow.Config, root string, opts Options) (*Result, error) {
	runStart := time.Now()
	target := opts.Target
	if target == "" {
		target = cfg.DefaultTarget
	}
	proj, err := loader.Load(cfg, root)
	if err != nil {
		return nil, fmt.Errorf("loading project: %w", err)
	}

	dialect := cfg.SqlDialect()
	known := dependency.BuildKnownNames(proj.Nodes, cfg.ExternalTables)

	baseMacros, err := loadProjectMacros(proj.MacroFiles)
	if err != nil {
		return nil, fmt.Errorf("loading macros: %w", err)
	}

	var diags []featherflow.Diagnostic
	var hardErrs []error

	for name, node := range proj.Nodes {
		if node.Kind != featherflow.KindModel {
			continue
		}
		modelStart := time.Now()
		err := renderAndParse(cfg, node, dialect, baseMacros, target)
		node.CompileDuration = time.Since(modelStart)
		if err != nil {
			hardErrs = append(hardErrs, fmt.Errorf("model %s: %w", name, err))
			continue
		}
		for _, d := range structuralDiagnostics(cfg, node) {
			node.AddDiagnostic(d)
			diags = append(diags, d)
			if d.Severity == featherflow.SeverityError {
				hardErrs = append(hardErrs, fmt.Errorf("model %s: %s", name, d.Message))
			}
		}
	}
	if len(hardErrs) > 0 {
		return nil, errors.Join(hardErrs...)
	}

	for _, node := range proj.Nodes {
		if node.Kind == featherflow.KindModel {
			dependency.Apply(node, known)
		}
	}

	functions := make(map[string]*featherflow.Node)
	for name, node := range proj.Nodes {
		if node.Kind == featherflow.KindFunction {
			functions[name] = node
		}
	}
	resolver := funcresolver.New(functions, known, dialect)
	for name, node := range proj.Nodes {
		if node.Kind != featherflow.KindModel {
			continue
		}
		if err := resolver.Resolve(node); err != nil {
			hardErrs = append(hardErrs, fmt.Errorf("model %s: %w", name, err))
		}
	}
	if len(hardErrs) > 0 {
		return nil, errors.Join(hardErrs...)
	}

	deps := make(map[string][]string)
	for name, node := range proj.Nodes {
		if node.Kind == featherflow.KindModel || node.Kind == featherflow.KindSeed {
			deps[name] = node.ModelDeps
		}
	}
	graph := dag.Build(deps)
	order, err := graph.TopoOrder()
	if err != nil {
		return nil, fmt.Errorf("building DAG: %w", err)
	}

	cat := catalog.Build(proj.Nodes, cfg.ExternalTables)
	udfs := buildUDFStubs(functions)

	if err := propagator.Propagate(order, proj.Nodes, cat, dialect, udfs, cfg); err != nil {
		return nil, fmt.Errorf("propagating schemas: %w", err)
	}

	diags = append(diags, passes.Run(proj.Nodes, order, cat, cfg)...)

	qmap := qualifier.Build(cfg, target, proj.Nodes)
	for _, node := range proj.Nodes {
		if node.Kind == featherflow.KindModel {
			qmap.Qualify(node.Statement)
		}
	}

	ephemeral.Inline(order, proj.Nodes)

	result := &Result{
		Nodes:       proj.Nodes,
		Order:       order,
		Catalog:     cat,
		Diagnostics: diags,
	}

	if opts.OutDir != "" {
		meta := emit.RunMeta{
			RunID:     uuid.NewString(),
			StartedAt: runStart,
			Duration:  time.Since(runStart),
		}
		manifest, err := emit.Write(proj.Nodes, order, diags, opts.OutDir, meta)
		if err != nil {
			return nil, fmt.Errorf("emitting: %w", err)
		}
		result.Manifest = manifest
	}

	return result, nil
}

// renderAndParse runs the Template Engine and SQL Parser over one
// model's raw body, writing RenderedSQL, CapturedConfig, and Statement
// back onto node (§4.2, §4.3).
func renderAndParse(cfg *featherflow.Config, node *featherflow.Node, dialect tokenizer.SqlDialect, baseMacros map[string]*template.Macro, target string) error {
	tpl, err := template.Parse(node.RawSQL)
	if err != nil {
		return fmt.Errorf("parsing template: %w", err)
	}

	env := template.NewEnvironment(cfg.Vars, func() bool {
		return cfg.IsIncremental(target, node.Name, node.IsIncremental())
	})
	env.Macros = cloneMacros(baseMacros)

	rendered, captured, err := template.Render(tpl, env)
	if err != nil {
		return fmt.Errorf("rendering template: %w", err)
	}
	node.RenderedSQL = rendered
	node.CapturedConfig = captured

	stmt, err := parser.Parse(rendered, dialect)
	if err != nil {
		return fmt.Errorf("parsing SQL: %w", err)
	}
	node.Statement = stmt

	return nil
}

func loadProjectMacros(paths []string) (map[string]*template.Macro, error) {
	macros := make(map[string]*template.Macro)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading macro file %s: %w", path, err)
		}
		tpl, err := template.Parse(string(data))
		if err != nil {
			return nil, fmt.Errorf("parsing macro file %s: %w", path, err)
		}
		env := template.NewEnvironment(nil, nil)
		env.RegisterMacros(tpl)
		for name, m := range env.Macros {
			macros[name] = m
		}
	}
	return macros, nil
}

func cloneMacros(base map[string]*template.Macro) map[string]*template.Macro {
	out := make(map[string]*template.Macro, len(base))
	for k, v := range base {
		out[k] = v
	}
	return out
}

func structuralDiagnostics(cfg *featherflow.Config, node *featherflow.Node) []featherflow.Diagnostic {
	findings := parser.Validate(node.Statement)
	out := make([]featherflow.Diagnostic, 0, len(findings))
	for _, f := range findings {
		out = append(out, featherflow.NewDiagnostic(cfg, f.Code, node.Name, f.Message,
			&featherflow.Location{Line: f.Position.Line, Column: f.Position.Column}))
	}
	return out
}

func buildUDFStubs(functions map[string]*featherflow.Node) map[string]planner.UDFStub {
	stubs := make(map[string]planner.UDFStub, len(functions))
	for name, fn := range functions {
		returnType, _ := fn.CapturedConfig["return_type"].(string)
		stubs[strings.ToLower(name)] = planner.UDFStub{ReturnType: returnType, Nullable: true}
	}
	return stubs
}
