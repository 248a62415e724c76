// Package exodus is a pure-Go engine for reading, writing, and
// incrementally appending to Exodus II finite-element mesh and results
// files: a self-contained NetCDF-classic-flavored binary container
// (internal/substrate), a typed schema of mesh/results records
// (internal/schema), and three role types — Reader, Writer, Appender —
// each with its own lifecycle state machine.
package exodus

import "github.com/meshio/exodus/internal/errs"

// Sentinel error kinds, matched with errors.Is. Each operation wraps
// one of these with call-site context via fmt.Errorf("...: %w", ...).
// Grounded on the teacher's libravdb/errors.go sentinel-var block.
var (
	// ErrStorage indicates a substrate I/O or corruption fault.
	ErrStorage = errs.ErrStorage

	// ErrSchema indicates a file violates an Exodus structural invariant.
	ErrSchema = errs.ErrSchema

	// ErrNotFound indicates a request against a missing id or name.
	ErrNotFound = errs.ErrNotFound

	// ErrNotDefined indicates a variable value requested where the truth
	// table bit is false.
	ErrNotDefined = errs.ErrNotDefined

	// ErrDuplicateID indicates a declaration collides with an existing one.
	ErrDuplicateID = errs.ErrDuplicateID

	// ErrSequence indicates an operation illegal in the role's current
	// lifecycle state.
	ErrSequence = errs.ErrSequence

	// ErrFinalized indicates an operation attempted after Close.
	ErrFinalized = errs.ErrFinalized

	// ErrUnsupportedTopology indicates an unknown element topology.
	ErrUnsupportedTopology = errs.ErrUnsupportedTopology

	// ErrValidation indicates an argument failed a precondition.
	ErrValidation = errs.ErrValidation
)
