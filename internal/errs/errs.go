// Package errs defines the error taxonomy shared by the scene, keyframe and
// director packages.
//
// Every error is recoverable by the caller:
//   - Validation: bad keyframe time, missing attribute map, duplicate time
//   - Structure: cycle in parent/child linkage, out-of-range index
//   - RenderMode: unknown render mode
//   - Collaborator: rasterizer or encoder failure
package errs

import (
	"errors"
	"fmt"
)

// Kind categorizes errors.
type Kind string

const (
	// Validation indicates rejected input; the operation was a no-op.
	Validation Kind = "VALIDATION"

	// Structure indicates an invalid tree mutation or index.
	Structure Kind = "STRUCTURE"

	// RenderMode indicates an unsupported render mode.
	RenderMode Kind = "RENDER_MODE"

	// Collaborator indicates a rasterization or encoding failure.
	Collaborator Kind = "COLLABORATOR"
)

// Error carries a Kind, the failing operation and an optional cause.
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Op != "" {
		msg = e.Op + ": " + msg
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// New creates an Error without a cause.
func New(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error around cause.
func Wrap(kind Kind, op string, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...), Err: cause}
}

// Is reports whether err (or anything it wraps) is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// IsValidation returns true if err is a validation error.
func IsValidation(err error) bool { return Is(err, Validation) }

// IsStructure returns true if err is a structure error.
func IsStructure(err error) bool { return Is(err, Structure) }

// IsRenderMode returns true if err is a render mode error.
func IsRenderMode(err error) bool { return Is(err, RenderMode) }

// IsCollaborator returns true if err is a collaborator error.
func IsCollaborator(err error) bool { return Is(err, Collaborator) }
