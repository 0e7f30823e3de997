package planner

import (
	"fmt"
)

// PlanError is the common shape for the three infrastructure diagnostic
// codes the planner can raise (§4.10): AE003 unknown table, AE004
// unresolved column, AE008 a catch-all planner failure. The Diagnostic
// Pass Manager's caller turns this into a featherflow.Diagnostic at error
// severity against the offending model; the planner package itself stays
// independent of the Diagnostic type so it can be unit tested without a
// Config.
type PlanError struct {
	Code string
	Msg  string
}

func (e *PlanError) Error() string { return fmt.Sprintf("%s: %s", e.Code, e.Msg) }

func errUnknownTable(name string) error {
	return &PlanError{Code: "AE003", Msg: fmt.Sprintf("unknown table %q", name)}
}

func errUnresolvedColumn(name string) error {
	return &PlanError{Code: "AE004", Msg: fmt.Sprintf("unresolved column %q", name)}
}

func errPlannerFailure(format string, args ...any) error {
	return &PlanError{Code: "AE008", Msg: fmt.Sprintf(format, args...)}
}
