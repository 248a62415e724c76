// Package errs defines the error-kind sentinels shared by every layer of
// the engine (substrate, schema, geom, transform) and re-exported at the
// exodus package boundary. Callers match kinds with errors.Is; wrap with
// fmt.Errorf("...: %w", ...) at the call site to add context.
package errs

import "errors"

var (
	// ErrStorage indicates a substrate I/O or corruption fault.
	ErrStorage = errors.New("storage error")

	// ErrSchema indicates a file violates an Exodus structural invariant.
	ErrSchema = errors.New("schema error")

	// ErrNotFound indicates a valid request against a missing id or name.
	ErrNotFound = errors.New("not found")

	// ErrNotDefined indicates a variable value requested where the truth
	// table bit is false.
	ErrNotDefined = errors.New("not defined")

	// ErrDuplicateID indicates a structural declaration collides with an
	// existing one.
	ErrDuplicateID = errors.New("duplicate id")

	// ErrSequence indicates an operation illegal in the role's current
	// lifecycle state.
	ErrSequence = errors.New("illegal operation for current state")

	// ErrFinalized indicates an operation attempted after Close.
	ErrFinalized = errors.New("handle is closed")

	// ErrUnsupportedTopology indicates a geometry or transform operation
	// was asked for an unknown element topology.
	ErrUnsupportedTopology = errors.New("unsupported topology")

	// ErrValidation indicates an argument failed a precondition (length
	// mismatch, out-of-range index, non-monotone time, ...).
	ErrValidation = errors.New("validation failed")
)
