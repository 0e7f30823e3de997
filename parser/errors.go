package parser

import "errors"

// Sentinel errors returned by Parse before structural validation ever runs;
// these are plain malformed-SQL failures, distinct from the S0xx diagnostics
// produced by Validate for syntactically valid but disallowed constructs.
var (
	ErrUnexpectedToken   = errors.New("unexpected token")
	ErrUnexpectedEOF     = errors.New("unexpected end of input")
	ErrEmptyStatement    = errors.New("empty statement")
	ErrMultipleStatements = errors.New("statement separator found mid-body")
)
