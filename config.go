package featherflow

import (
	"errors"
	"fmt"
	"os"
	"regexp"

	"github.com/goccy/go-yaml"
	"github.com/joho/godotenv"
)

// ErrConfigValidation is returned when configuration validation fails.
var ErrConfigValidation = errors.New("configuration validation failed")

// Config is Featherflow's project configuration, loaded from
// featherflow.yml at the project root.
type Config struct {
	// Dialect names the single primary SQL dialect this project compiles
	// against (base spec §1 rules out cross-dialect portability).
	Dialect string `yaml:"dialect"`

	// ModelsDir, SeedsDir, SourcesDir, FunctionsDir, MacrosDir are the
	// directories the Project Loader walks (§4.1). Relative to the project
	// root (the directory containing featherflow.yml).
	ModelsDir    string `yaml:"models_dir"`
	SeedsDir     string `yaml:"seeds_dir"`
	SourcesDir   string `yaml:"sources_dir"`
	FunctionsDir string `yaml:"functions_dir"`
	MacrosDir    string `yaml:"macros_dir"`

	// ConstantFiles are additional YAML files merged into Vars at load time,
	// useful for sharing constants across projects without duplication.
	ConstantFiles []string `yaml:"constant_files"`

	// ExternalTables declares tables the project reads but does not manage
	// (§6 "external tables"). The Dependency Categorizer resolves a
	// reference here to external_deps instead of unknown_deps; the Schema
	// Catalog Builder registers each with an empty RelSchema.
	ExternalTables []string `yaml:"external_tables"`

	// Vars is the variable environment the template engine's var(name
	// [, default]) built-in resolves against (§4.2).
	Vars map[string]any `yaml:"vars"`

	// DefaultTarget names the entry of Targets used when the driver does not
	// specify one explicitly.
	DefaultTarget string `yaml:"default_target"`

	// Targets maps a target name to its connection-shaped metadata. Compiling
	// the core never opens a connection; these fields exist purely so
	// is_incremental() can answer "does the target table already exist"
	// without the core importing a database driver (TargetExists, set by the
	// driver after LoadConfig, is the actual probe).
	Targets map[string]Target `yaml:"targets"`

	// Diagnostics overrides the default severity of a diagnostic code. Valid
	// values are "info", "warning", "error", "off" (§4.12).
	Diagnostics map[string]string `yaml:"diagnostics"`

	// TargetExists probes whether a table already exists in the active
	// target. It is never populated from YAML: the thin CLI driver supplies
	// it after LoadConfig, backed by the embedded analytic engine. When nil,
	// is_incremental() treats every target table as not yet existing.
	TargetExists TargetExistsFunc `yaml:"-"`
}

// Target is one named deployment target a project can compile against.
type Target struct {
	Database    string `yaml:"database"`
	Schema      string `yaml:"schema"`
	FullRefresh bool   `yaml:"full_refresh"`
}

// TargetExistsFunc reports whether table already exists in the active
// target. It is the one point where the compile core's is_incremental()
// built-in touches a notion of "the real world" without executing SQL
// itself: the driver supplies the answer, the core only consumes it.
type TargetExistsFunc func(table string) bool

var validDialects = map[string]bool{
	"postgres": true,
	"mysql":    true,
	"sqlite":   true,
}

// LoadConfig loads and validates featherflow.yml at configPath. Missing
// files are not an error: a zero-value, default-applied Config is returned
// so a project can be compiled with nothing but models and schema files.
func LoadConfig(configPath string) (*Config, error) {
	if err := loadEnvFiles(); err != nil {
		return nil, fmt.Errorf("failed to load environment files: %w", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		config := defaultConfig()
		expandConfigEnvVars(config)
		return config, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	if err := yaml.UnmarshalWithOptions(data, &config, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	for _, constFile := range config.ConstantFiles {
		if err := mergeConstantFile(&config, constFile); err != nil {
			return nil, err
		}
	}

	if err := validateConfig(&config); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	applyDefaults(&config)
	expandConfigEnvVars(&config)
	return &config, nil
}

func mergeConstantFile(config *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read constant file %q: %w", path, err)
	}
	var vars map[string]any
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return fmt.Errorf("failed to parse constant file %q: %w", path, err)
	}
	if config.Vars == nil {
		config.Vars = make(map[string]any)
	}
	for k, v := range vars {
		if _, exists := config.Vars[k]; !exists {
			config.Vars[k] = v
		}
	}
	return nil
}

var validSeverities = map[string]bool{
	"info": true, "warning": true, "error": true, "off": true,
}

func validateConfig(config *Config) error {
	if config.Dialect != "" && !validDialects[config.Dialect] {
		return fmt.Errorf("%w: invalid dialect %q: must be one of postgres, mysql, sqlite", ErrConfigValidation, config.Dialect)
	}

	for code, severity := range config.Diagnostics {
		if !validSeverities[severity] {
			return fmt.Errorf("%w: diagnostics.%s: invalid severity %q: must be one of info, warning, error, off", ErrConfigValidation, code, severity)
		}
	}

	if config.DefaultTarget != "" {
		if _, ok := config.Targets[config.DefaultTarget]; !ok {
			return fmt.Errorf("%w: default_target %q is not declared under targets", ErrConfigValidation, config.DefaultTarget)
		}
	}

	return nil
}

func defaultConfig() *Config {
	return &Config{
		Dialect:      "postgres",
		ModelsDir:    "models",
		SeedsDir:     "seeds",
		SourcesDir:   "sources",
		FunctionsDir: "functions",
		MacrosDir:    "macros",
		Vars:         make(map[string]any),
		Targets:      make(map[string]Target),
		Diagnostics:  make(map[string]string),
	}
}

func applyDefaults(config *Config) {
	if config.Dialect == "" {
		config.Dialect = "postgres"
	}
	if config.ModelsDir == "" {
		config.ModelsDir = "models"
	}
	if config.SeedsDir == "" {
		config.SeedsDir = "seeds"
	}
	if config.SourcesDir == "" {
		config.SourcesDir = "sources"
	}
	if config.FunctionsDir == "" {
		config.FunctionsDir = "functions"
	}
	if config.MacrosDir == "" {
		config.MacrosDir = "macros"
	}
	if config.Vars == nil {
		config.Vars = make(map[string]any)
	}
	if config.Targets == nil {
		config.Targets = make(map[string]Target)
	}
	if config.Diagnostics == nil {
		config.Diagnostics = make(map[string]string)
	}
}

// loadEnvFiles loads a .env file from the current directory if present.
func loadEnvFiles() error {
	if fileExists(".env") {
		if err := godotenv.Load(".env"); err != nil {
			return fmt.Errorf("failed to load .env file: %w", err)
		}
	}
	return nil
}

var (
	braceVarPattern = regexp.MustCompile(`\$\{([^}]+)\}`)
	bareVarPattern  = regexp.MustCompile(`\$([A-Za-z_][A-Za-z0-9_]*)`)
)

// expandEnvVars expands ${VAR} and $VAR references against the process
// environment.
func expandEnvVars(s string) string {
	s = braceVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[2 : len(match)-1])
	})
	s = bareVarPattern.ReplaceAllStringFunc(s, func(match string) string {
		return os.Getenv(match[1:])
	})
	return s
}

func expandConfigEnvVars(config *Config) {
	config.ModelsDir = expandEnvVars(config.ModelsDir)
	config.SeedsDir = expandEnvVars(config.SeedsDir)
	config.SourcesDir = expandEnvVars(config.SourcesDir)
	config.FunctionsDir = expandEnvVars(config.FunctionsDir)
	config.MacrosDir = expandEnvVars(config.MacrosDir)

	for name, target := range config.Targets {
		target.Database = expandEnvVars(target.Database)
		target.Schema = expandEnvVars(target.Schema)
		config.Targets[name] = target
	}

	for key, val := range config.Vars {
		if s, ok := val.(string); ok {
			config.Vars[key] = expandEnvVars(s)
		}
	}
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// IsIncremental reports whether target's materialization should run as an
// incremental append rather than a full rebuild: true only when the model
// is declared incremental, the target table already exists, and the caller
// did not request a full refresh (§4.2's is_incremental() semantics).
func (c *Config) IsIncremental(target, table string, modelIsIncremental bool) bool {
	if !modelIsIncremental {
		return false
	}
	t, ok := c.Targets[target]
	if ok && t.FullRefresh {
		return false
	}
	if c.TargetExists == nil {
		return false
	}
	return c.TargetExists(table)
}

// SeverityOverride returns the configured severity override for a
// diagnostic code and whether one was set.
func (c *Config) SeverityOverride(code string) (string, bool) {
	sev, ok := c.Diagnostics[code]
	return sev, ok
}
