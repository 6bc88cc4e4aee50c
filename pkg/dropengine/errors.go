package dropengine

import "errors"

// Error kinds raised by the recursive deletion state machine (spec §7).
// RESTRICT violations are the one kind deliberately NOT in this list:
// they are accumulated and surfaced once, at the outermost entry
// point, wrapped in ErrDependentObjectsStillExist alongside every
// other violation found in the same pass.
var (
	// ErrDependentObjectsStillExist is raised when a RESTRICT violation
	// is reported at the outer call, when a PIN edge blocks any step,
	// or when INTERNAL redirection is attempted at the top level (no
	// caller to redirect to).
	ErrDependentObjectsStillExist = errors.New("dropengine: dependent objects still exist")

	// ErrMultipleInternal signals a corrupted edge table: more than one
	// INTERNAL edge was found outgoing from the same dependent, which
	// invariant 2 of the data model forbids.
	ErrMultipleInternal = errors.New("dropengine: more than one INTERNAL outgoing edge")

	// ErrIncorrectPinUse signals a corrupted edge table: a PIN edge was
	// found as an outgoing edge (PIN edges are only ever incoming, with
	// a zeroed dependent).
	ErrIncorrectPinUse = errors.New("dropengine: PIN edge found in outgoing position")

	// ErrUnrecognizedDependencyType is a forward-compat guard: the
	// engine only understands NORMAL, AUTO, INTERNAL, and PIN.
	ErrUnrecognizedDependencyType = errors.New("dropengine: unrecognized dependency type")
)
