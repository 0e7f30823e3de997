// Command featherflow is the thin CLI driver around the compile core
// (§2 "Driver-facing entry points"). It never implements pipeline logic
// itself — every command is a few lines of glue over featherflow.LoadConfig,
// compile.Compile, and emit.PrintSummary.
package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	_ "github.com/marcboeker/go-duckdb"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/compile"
	"github.com/datastx/Feather-Flow-sub001/emit"
	"github.com/datastx/Feather-Flow-sub001/ir"
	"github.com/datastx/Feather-Flow-sub001/planner"
)

// Context is the global CLI context every command's Run receives.
type Context struct {
	Quiet bool
}

// CompileCmd runs the full pipeline, including emission (§2 "compile(project,
// options) → CompileResult").
type CompileCmd struct {
	Project string `arg:"" optional:"" default:"." help:"Project root directory (containing featherflow.yml)"`
	Target  string `help:"Target to compile against" default:""`
	Out     string `help:"Directory to write compiled .sql files and the manifest" default:"target"`
	Format  string `help:"Diagnostic report format" enum:"text,json" default:"text"`
}

func (c *CompileCmd) Run(ctx *Context) error {
	cfg, err := loadProjectConfig(c.Project)
	if err != nil {
		return err
	}

	outDir := c.Out
	if !filepath.IsAbs(outDir) {
		outDir = filepath.Join(c.Project, outDir)
	}

	result, err := compile.Compile(cfg, c.Project, compile.Options{Target: c.Target, OutDir: outDir})
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	if err := reportDiagnostics(c.Format, result.Diagnostics); err != nil {
		return err
	}
	if !ctx.Quiet && c.Format == "text" {
		if emit.PrintSummary(os.Stdout, result.Diagnostics) {
			os.Exit(1)
		}
	}

	return nil
}

// ValidateCmd runs every phase except emission (§2 "validate(project) →
// Diagnostics (compile without emission)").
type ValidateCmd struct {
	Project string `arg:"" optional:"" default:"." help:"Project root directory (containing featherflow.yml)"`
	Target  string `help:"Target to validate against" default:""`
	Format  string `help:"Diagnostic report format" enum:"text,json" default:"text"`
}

func (v *ValidateCmd) Run(ctx *Context) error {
	cfg, err := loadProjectConfig(v.Project)
	if err != nil {
		return err
	}

	result, err := compile.Compile(cfg, v.Project, compile.Options{Target: v.Target})
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	if err := reportDiagnostics(v.Format, result.Diagnostics); err != nil {
		return err
	}
	if !ctx.Quiet && v.Format == "text" {
		if emit.PrintSummary(os.Stdout, result.Diagnostics) {
			os.Exit(1)
		}
	}

	return nil
}

// PlanCmd prints one model's logical plan tree (§2 "plan_of(model) →
// LogicalPlan for lineage/explain consumers").
type PlanCmd struct {
	Project string `arg:"" help:"Project root directory (containing featherflow.yml)"`
	Model   string `arg:"" help:"Name of the model to plan"`
	Target  string `help:"Target to plan against" default:""`
}

func (p *PlanCmd) Run(ctx *Context) error {
	cfg, err := loadProjectConfig(p.Project)
	if err != nil {
		return err
	}

	result, err := compile.Compile(cfg, p.Project, compile.Options{Target: p.Target})
	if err != nil {
		return fmt.Errorf("compile failed: %w", err)
	}

	node, ok := result.Nodes[strings.ToLower(p.Model)]
	if !ok || node.Kind != featherflow.KindModel {
		return fmt.Errorf("no such model: %s", p.Model)
	}

	dialect := cfg.SqlDialect()
	plan, err := planner.PlanModel(node.RenderedSQL, dialect, result.Catalog, nil)
	if err != nil {
		return fmt.Errorf("planning %s: %w", p.Model, err)
	}

	printPlan(os.Stdout, plan, 0)

	return nil
}

// PingCmd opens the configured target's embedded database file and calls
// db.Ping() to confirm it is reachable (base spec §6's target-exists
// probe being an external-collaborator concern, not a compile-core one).
// The compile core never imports a database driver; this is the one place
// in the whole repo that does, and it stays out of the compile path
// entirely (§2 "row-level execution... must never execute SQL").
type PingCmd struct {
	Project string `arg:"" optional:"" default:"." help:"Project root directory (containing featherflow.yml)"`
	Target  string `help:"Target whose database file to ping" default:""`
}

func (p *PingCmd) Run(ctx *Context) error {
	cfg, err := loadProjectConfig(p.Project)
	if err != nil {
		return err
	}

	targetName := p.Target
	if targetName == "" {
		targetName = cfg.DefaultTarget
	}
	target, ok := cfg.Targets[targetName]
	if !ok {
		return fmt.Errorf("no such target: %s", targetName)
	}

	db, err := sql.Open("duckdb", target.Database)
	if err != nil {
		return fmt.Errorf("opening %s: %w", target.Database, err)
	}
	defer db.Close()

	catalog := "memory"
	if target.Database != "" {
		base := filepath.Base(target.Database)
		catalog = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if err := db.Ping(); err != nil {
		return fmt.Errorf("pinging target %q (%s.%s): %w", targetName, catalog, target.Schema, err)
	}

	fmt.Fprintf(os.Stdout, "target %q (catalog %q, schema %q) is reachable\n", targetName, catalog, target.Schema)
	return nil
}

var CLI struct {
	Quiet    bool        `help:"Suppress the pass/fail summary line" short:"q"`
	Compile  CompileCmd  `cmd:"" help:"Compile a project: qualify, inline, and emit SQL"`
	Validate ValidateCmd `cmd:"" help:"Run every compile phase without writing any output"`
	Plan     PlanCmd     `cmd:"" help:"Print one model's logical plan"`
	Ping     PingCmd     `cmd:"" help:"Open a target's database file and confirm it is reachable"`
}

func main() {
	ctx := kong.Parse(&CLI)

	err := ctx.Run(&Context{Quiet: CLI.Quiet})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadProjectConfig(root string) (*featherflow.Config, error) {
	cfg, err := featherflow.LoadConfig(filepath.Join(root, "featherflow.yml"))
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

func reportDiagnostics(format string, diags []featherflow.Diagnostic) error {
	if format != "json" {
		return nil
	}

	data, err := json.MarshalIndent(diags, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling diagnostics: %w", err)
	}
	os.Stdout.Write(data)
	os.Stdout.WriteString("\n")

	return nil
}

func printPlan(w *os.File, p ir.Plan, depth int) {
	for i := 0; i < depth; i++ {
		fmt.Fprint(w, "  ")
	}
	fmt.Fprintf(w, "%s %v\n", p.Kind(), p.Schema().ColumnNames())

	for _, child := range p.Children() {
		printPlan(w, child, depth+1)
	}
}
