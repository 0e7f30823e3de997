package featherflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifyDefaults(t *testing.T) {
	cfg := defaultConfig()
	assert.Equal(t, SeverityError, cfg.Classify("S003"))
	assert.Equal(t, SeverityError, cfg.Classify("E011"))
	assert.Equal(t, SeverityWarning, cfg.Classify("A020"))
	assert.Equal(t, SeverityError, cfg.Classify("SA01"))
}

func TestClassifyRespectsOverride(t *testing.T) {
	cfg := defaultConfig()
	cfg.Diagnostics["A020"] = "off"
	assert.Equal(t, SeverityOff, cfg.Classify("A020"))
}

func TestNewDiagnosticFormatsLocation(t *testing.T) {
	d := NewDiagnostic(nil, "S005", "orders", "WITH not supported", &Location{Line: 3, Column: 1})
	assert.Contains(t, d.String(), "S005")
	assert.Contains(t, d.String(), "orders")
	assert.Equal(t, SeverityError, d.Severity)
}
