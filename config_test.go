package featherflow

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaultsWhenMissing(t *testing.T) {
	dir := t.TempDir()
	cfg, err := LoadConfig(filepath.Join(dir, "featherflow.yml"))
	require.NoError(t, err)
	assert.Equal(t, "postgres", cfg.Dialect)
	assert.Equal(t, "models", cfg.ModelsDir)
	assert.NotNil(t, cfg.Vars)
	assert.NotNil(t, cfg.Targets)
}

func TestLoadConfigParsesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "featherflow.yml")
	contents := `
dialect: postgres
models_dir: models
default_target: dev
targets:
  dev:
    database: analytics
    schema: public
  prod:
    database: analytics
    schema: public
    full_refresh: false
vars:
  region: us-east
diagnostics:
  A020: "off"
`
	require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "dev", cfg.DefaultTarget)
	assert.Equal(t, "analytics", cfg.Targets["dev"].Database)
	assert.Equal(t, "us-east", cfg.Vars["region"])
	assert.Equal(t, "off", cfg.Diagnostics["A020"])
}

func TestLoadConfigRejectsUnknownDialect(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "featherflow.yml")
	require.NoError(t, os.WriteFile(path, []byte("dialect: oracle\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoadConfigRejectsUnknownDefaultTarget(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "featherflow.yml")
	require.NoError(t, os.WriteFile(path, []byte("default_target: missing\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestLoadConfigRejectsInvalidSeverity(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "featherflow.yml")
	require.NoError(t, os.WriteFile(path, []byte("diagnostics:\n  A020: critical\n"), 0o644))

	_, err := LoadConfig(path)
	assert.ErrorIs(t, err, ErrConfigValidation)
}

func TestIsIncremental(t *testing.T) {
	cfg := defaultConfig()
	cfg.Targets["dev"] = Target{FullRefresh: false}
	cfg.TargetExists = func(table string) bool { return table == "orders" }

	assert.True(t, cfg.IsIncremental("dev", "orders", true))
	assert.False(t, cfg.IsIncremental("dev", "new_model", true))
	assert.False(t, cfg.IsIncremental("dev", "orders", false))

	cfg.Targets["dev"] = Target{FullRefresh: true}
	assert.False(t, cfg.IsIncremental("dev", "orders", true))
}
