// Package errs defines the engine's error taxonomy (spec.md §7):
// BindError, EvalError, RuntimeError (parse errors are
// parser.ParseError, which carries the position). BindError and
// RuntimeError wrap github.com/juju/errors so callers can test error
// identity with errors.Is/juju's Cause while still carrying a
// structured code.
package errs

import (
	"fmt"

	"github.com/juju/errors"
)

// BindCode enumerates the binder's error taxonomy.
type BindCode string

const (
	UnresolvedColumn    BindCode = "unresolved_column"
	AmbiguousColumn     BindCode = "ambiguous_column"
	UnknownFunction     BindCode = "unknown_function"
	ArgumentTypeMismatch BindCode = "argument_type_mismatch"
	ArityMismatch       BindCode = "arity_mismatch"
	IllegalAggregate    BindCode = "illegal_aggregate"
	NonGroupedColumn    BindCode = "non_grouped_column"
	InvalidSchemaString BindCode = "invalid_schema_string"
	InvalidRegex        BindCode = "invalid_regex"
	UnsupportedFeature  BindCode = "unsupported_feature"
)

// BindError is a semantic-analysis failure (spec.md §4.2, §7).
type BindError struct {
	Code    BindCode
	Message string
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind error [%s]: %s", e.Code, e.Message)
}

// NewBindError builds a BindError wrapped with juju/errors so callers
// further up the stack can annotate it with errors.Annotate without
// losing the code.
func NewBindError(code BindCode, format string, args ...interface{}) error {
	return errors.Trace(&BindError{Code: code, Message: fmt.Sprintf(format, args...)})
}

// EvalCode enumerates the evaluator's null-tolerant error taxonomy.
// These never abort a batch; the evaluator catches them and yields
// NULL (spec.md §7).
type EvalCode string

const (
	DivisionByZero EvalCode = "division_by_zero"
	OverflowOnCast EvalCode = "overflow_on_cast"
	RegexError     EvalCode = "regex_error"
	PatternMatchError EvalCode = "pattern_match_error"
	DecodeError    EvalCode = "decode_error"
	JSONPathError  EvalCode = "json_path_error"
)

// EvalError marks a row-local evaluation failure that the evaluator
// converts to NULL rather than propagating (spec.md §7).
type EvalError struct {
	Code    EvalCode
	Message string
}

func (e *EvalError) Error() string {
	return fmt.Sprintf("eval error [%s]: %s", e.Code, e.Message)
}

// NewEvalError builds an EvalError.
func NewEvalError(code EvalCode, format string, args ...interface{}) *EvalError {
	return &EvalError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// RuntimeError is fatal: accumulator state corruption or a violated
// function precondition. It aborts the batch (spec.md §7).
type RuntimeError struct {
	Message string
}

func (e *RuntimeError) Error() string {
	return fmt.Sprintf("runtime error: %s", e.Message)
}

// NewRuntimeError builds a RuntimeError wrapped with juju/errors so
// its stack trace survives annotation up through the scheduler.
func NewRuntimeError(format string, args ...interface{}) error {
	return errors.Trace(&RuntimeError{Message: fmt.Sprintf(format, args...)})
}
