package featherflow

import "fmt"

// Severity classifies how a Diagnostic should affect the compile result.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
	SeverityOff     Severity = "off"
)

// Location is an optional source position a Diagnostic can point at.
type Location struct {
	Line   int
	Column int
}

// Diagnostic is a single coded, severity-classified result produced by a
// pipeline stage (§3 "Diagnostic"). Codes live in one of six namespaces:
// S0xx (structural), A0xx (analysis), SA0x (schema contract), AE0xx
// (infrastructure), E0xx (project), J0xx (template).
type Diagnostic struct {
	Code     string
	Severity Severity
	Model    string
	Message  string
	Location *Location
}

func (d Diagnostic) String() string {
	if d.Location != nil {
		return fmt.Sprintf("%s [%s] %s:%d:%d: %s", d.Code, d.Severity, d.Model, d.Location.Line, d.Location.Column, d.Message)
	}
	return fmt.Sprintf("%s [%s] %s: %s", d.Code, d.Severity, d.Model, d.Message)
}

// defaultSeverity is the built-in severity for a diagnostic namespace before
// any Config.Diagnostics override is applied.
func defaultSeverity(code string) Severity {
	if len(code) == 0 {
		return SeverityError
	}
	switch code[0] {
	case 'S': // structural S0xx: always hard; SA0x is a static-analysis warning
		if len(code) > 1 && code[1] == 'A' {
			return SeverityWarning
		}
		return SeverityError
	case 'E': // project: always hard
		return SeverityError
	case 'J': // template
		return SeverityError
	default:
		// A0xx, SA0x, AE0xx default to warning except where a pass
		// documents otherwise; SA01 and AE0xx are overridden to error below.
		return SeverityWarning
	}
}

var hardCodes = map[string]bool{
	"SA01": true,
	"AE003": true,
	"AE004": true,
	"AE008": true,
}

// Classify resolves a Diagnostic's effective severity: a Config override
// takes precedence over the code's default.
func (c *Config) Classify(code string) Severity {
	if sev, ok := c.SeverityOverride(code); ok {
		return Severity(sev)
	}
	if hardCodes[code] {
		return SeverityError
	}
	return defaultSeverity(code)
}

// NewDiagnostic builds a Diagnostic with its severity resolved against cfg
// (nil cfg falls back to the code's built-in default).
func NewDiagnostic(cfg *Config, code, model, message string, loc *Location) Diagnostic {
	var sev Severity
	if cfg != nil {
		sev = cfg.Classify(code)
	} else if hardCodes[code] {
		sev = SeverityError
	} else {
		sev = defaultSeverity(code)
	}
	return Diagnostic{Code: code, Severity: sev, Model: model, Message: message, Location: loc}
}
