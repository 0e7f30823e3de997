// Package emit implements the Emitter phase (§4.15): it writes one
// qualified .sql file per compiled model and a manifest describing every
// node's dependencies, schema, and diagnostics, then reports the
// diagnostic summary to the terminal.
//
// Grounded on the teacher's intermediate.IntermediateFormat
// (intermediate/intermediate_format.go): a versioned JSON document
// naming every compiled artifact and its shape, written alongside the
// generated code it describes. Featherflow has no generated-code step,
// so the manifest describes compiled SQL files instead of instruction
// sequences, but the "one JSON manifest per compile, one file per
// artifact" shape carries over directly. Diagnostic summary rendering is
// grounded on the teacher's cli package (command_validate.go,
// command_query.go), which reaches for fatih/color the same way for
// every pass/fail/warn report it prints.
package emit

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/fatih/color"

	featherflow "github.com/datastx/Feather-Flow-sub001"
	"github.com/datastx/Feather-Flow-sub001/sqlwriter"
)

// FormatVersion identifies the manifest's own schema, independent of any
// project being compiled.
const FormatVersion = "1"

// ColumnEntry is one manifest-serialized column, declared or inferred.
type ColumnEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type,omitempty"`
	Nullability string `json:"nullability,omitempty"`
}

// DiagnosticEntry is one manifest-serialized diagnostic.
type DiagnosticEntry struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
	Line     int    `json:"line,omitempty"`
	Column   int    `json:"column,omitempty"`
}

// ManifestNode describes one compiled artifact (§4.15 "a manifest
// enumerating every node, its declared and inferred columns,
// dependencies, materialization, diagnostics").
type ManifestNode struct {
	Name            string            `json:"name"`
	Kind            string            `json:"kind"`
	Materialization string            `json:"materialization,omitempty"`
	CompiledPath    string            `json:"compiled_path,omitempty"`
	Dependencies    []string          `json:"dependencies,omitempty"`
	Declared        []ColumnEntry     `json:"declared_columns,omitempty"`
	Inferred        []ColumnEntry     `json:"inferred_columns,omitempty"`
	Diagnostics     []DiagnosticEntry `json:"diagnostics,omitempty"`
	CompileDuration int64             `json:"compile_duration_ms,omitempty"`
}

// RunMeta is the identifying/timing metadata for one compile run, stamped
// onto its manifest (SPEC_FULL §C "manifest run metadata"): a generated run
// id, the run's start time, and its total wall-clock duration. Every
// dbt-family tool carries comparable fields; the teacher's own
// intermediate.IntermediateFormat carries comparable generation metadata,
// though it has no run-id concept of its own since it compiles one
// statement at a time rather than a whole project per invocation.
type RunMeta struct {
	RunID     string
	StartedAt time.Time
	Duration  time.Duration
}

// Manifest is the Emitter's JSON output (§4.15): every node in the
// project plus the topological order the compile ran in.
type Manifest struct {
	FormatVersion string         `json:"format_version"`
	RunID         string         `json:"run_id"`
	StartedAt     time.Time      `json:"started_at"`
	DurationMS    int64          `json:"duration_ms"`
	Order         []string       `json:"order"`
	Nodes         []ManifestNode `json:"nodes"`
}

// Write renders every non-ephemeral model's final Statement to a .sql
// file under outDir, then writes manifest.json alongside them. Ephemeral
// models are fully inlined by this point (§4.14) and receive no emitted
// artifact of their own.
func Write(nodes map[string]*featherflow.Node, order []string, diags []featherflow.Diagnostic, outDir string, meta RunMeta) (*Manifest, error) {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating output directory %s: %w", outDir, err)
	}

	m := &Manifest{
		FormatVersion: FormatVersion,
		RunID:         meta.RunID,
		StartedAt:     meta.StartedAt,
		DurationMS:    meta.Duration.Milliseconds(),
		Order:         order,
	}

	for _, name := range order {
		node, ok := nodes[name]
		if !ok {
			continue
		}

		mn := ManifestNode{
			Name:            node.Name,
			Kind:            string(node.Kind),
			Materialization: string(node.Materialization),
			Dependencies:    dependenciesOf(node),
			Declared:        columnEntries(node.DeclaredSchema.Columns),
			Inferred:        columnEntries(node.InferredSchema.Columns),
			Diagnostics:     diagnosticEntries(node.Diagnostics),
			CompileDuration: node.CompileDuration.Milliseconds(),
		}

		if node.Kind == featherflow.KindModel && !node.IsEphemeral() && node.Statement != nil {
			path := filepath.Join(outDir, node.Name+".sql")
			sql := sqlwriter.Write(node.Statement)
			if err := os.WriteFile(path, []byte(sql), 0o644); err != nil {
				return nil, fmt.Errorf("writing %s: %w", path, err)
			}
			mn.CompiledPath = path
		}

		m.Nodes = append(m.Nodes, mn)
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling manifest: %w", err)
	}

	manifestPath := filepath.Join(outDir, "manifest.json")
	if err := os.WriteFile(manifestPath, data, 0o644); err != nil {
		return nil, fmt.Errorf("writing %s: %w", manifestPath, err)
	}

	return m, nil
}

func dependenciesOf(node *featherflow.Node) []string {
	deps := make([]string, 0, len(node.ModelDeps)+len(node.ExternalDeps))
	deps = append(deps, node.ModelDeps...)
	deps = append(deps, node.ExternalDeps...)
	sort.Strings(deps)
	return deps
}

func columnEntries(cols []featherflow.ColumnDecl) []ColumnEntry {
	out := make([]ColumnEntry, 0, len(cols))
	for _, c := range cols {
		out = append(out, ColumnEntry{Name: c.Name, Type: c.SQLType, Nullability: c.Nullability.String()})
	}
	return out
}

func diagnosticEntries(diags []featherflow.Diagnostic) []DiagnosticEntry {
	out := make([]DiagnosticEntry, 0, len(diags))
	for _, d := range diags {
		e := DiagnosticEntry{Code: d.Code, Severity: string(d.Severity), Message: d.Message}
		if d.Location != nil {
			e.Line = d.Location.Line
			e.Column = d.Location.Column
		}
		out = append(out, e)
	}
	return out
}

// PrintSummary writes a one-line-per-diagnostic text report to w, colored
// by severity, followed by a pass/fail line. It returns true if any
// error-severity diagnostic was printed, matching the compiler's own exit
// code rule (§2 "non-zero if any error-severity diagnostic was produced").
func PrintSummary(w io.Writer, diags []featherflow.Diagnostic) bool {
	hasError := false

	for _, d := range diags {
		line := fmt.Sprintf("[%s] %s: %s", d.Severity, d.Model, d.Message)
		switch d.Severity {
		case featherflow.SeverityError:
			hasError = true
			fmt.Fprintln(w, color.RedString(line))
		case featherflow.SeverityWarning:
			fmt.Fprintln(w, color.YellowString(line))
		default:
			fmt.Fprintln(w, color.CyanString(line))
		}
	}

	if hasError {
		fmt.Fprintln(w, color.New(color.Bold, color.FgRed).Sprint("compile failed"))
	} else {
		fmt.Fprintln(w, color.GreenString("compile succeeded"))
	}

	return hasError
}
