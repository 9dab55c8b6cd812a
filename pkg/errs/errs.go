// Package errs defines bellwether's error taxonomy. Each kind is a typed
// struct so callers can errors.As to it instead of matching strings; every
// constructor that takes a cause wraps it with github.com/go-faster/errors so
// %w-style unwrapping keeps working through the taxonomy.
package errs

import (
	"fmt"

	"github.com/go-faster/errors"
)

// TransportPhase distinguishes where in the call lifecycle a transport
// error occurred.
type TransportPhase string

const (
	PhaseStartup  TransportPhase = "startup"
	PhaseClosed   TransportPhase = "closed"
	PhaseTimeout  TransportPhase = "timeout"
	PhaseProtocol TransportPhase = "protocol"
)

// TransportError covers §4.A/§7: startup failure, unexpected close,
// request timeout, or malformed frame.
type TransportError struct {
	Phase   TransportPhase
	Method  string
	Cause   error
}

func (e *TransportError) Error() string {
	if e.Method != "" {
		return fmt.Sprintf("transport %s (%s): %v", e.Phase, e.Method, e.Cause)
	}
	return fmt.Sprintf("transport %s: %v", e.Phase, e.Cause)
}

func (e *TransportError) Unwrap() error { return e.Cause }

// NewTransportError builds a TransportError, wrapping cause.
func NewTransportError(phase TransportPhase, method string, cause error) error {
	return &TransportError{Phase: phase, Method: method, Cause: errors.Wrap(cause, string(phase))}
}

// SchemaError covers a tool-local malformed input schema (§7): generation
// for that tool is skipped and a warning recorded in baseline metadata.
type SchemaError struct {
	Tool  string
	Cause error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema error for tool %q: %v", e.Tool, e.Cause)
}

func (e *SchemaError) Unwrap() error { return e.Cause }

func NewSchemaError(tool string, cause error) error {
	return &SchemaError{Tool: tool, Cause: errors.Wrapf(cause, "tool %s", tool)}
}

// GenerationError covers an internal failure of the schema test generator
// (§7): the engine falls back to two minimal cases, or skips the tool.
type GenerationError struct {
	Tool  string
	Cause error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation error for tool %q: %v", e.Tool, e.Cause)
}

func (e *GenerationError) Unwrap() error { return e.Cause }

func NewGenerationError(tool string, cause error) error {
	return &GenerationError{Tool: tool, Cause: errors.Wrapf(cause, "tool %s", tool)}
}

// IntegrityError reports a baseline whose stored integrityHash doesn't
// match the recomputed canonical hash. Never silently recovered.
type IntegrityError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("baseline %q failed integrity check: expected %s, got %s", e.Path, e.Expected, e.Actual)
}

func NewIntegrityError(path, expected, actual string) error {
	return &IntegrityError{Path: path, Expected: expected, Actual: actual}
}

// UnsupportedFormat reports a baseline schemaVersion with no migration
// path to the current format.
type UnsupportedFormat struct {
	SchemaVersion string
}

func (e *UnsupportedFormat) Error() string {
	return fmt.Sprintf("unsupported baseline schemaVersion %q", e.SchemaVersion)
}

func NewUnsupportedFormat(version string) error {
	return &UnsupportedFormat{SchemaVersion: version}
}

// ComparisonError wraps any failure inside the comparator. It is always
// surfaced to the caller and never downgrades drift severity.
type ComparisonError struct {
	Tool  string
	Cause error
}

func (e *ComparisonError) Error() string {
	if e.Tool != "" {
		return fmt.Sprintf("comparison error for tool %q: %v", e.Tool, e.Cause)
	}
	return fmt.Sprintf("comparison error: %v", e.Cause)
}

func (e *ComparisonError) Unwrap() error { return e.Cause }

func NewComparisonError(tool string, cause error) error {
	return &ComparisonError{Tool: tool, Cause: errors.Wrap(cause, "comparison")}
}

// Is/As helpers re-exported so callers don't need a second import for the
// common case of testing taxonomy membership.
func Is(err, target error) bool { return errors.Is(err, target) }
func As(err error, target interface{}) bool { return errors.As(err, target) }
