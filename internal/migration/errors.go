package migration

import (
	"errors"
	"fmt"
)

var (
	// ErrConnection: the target server is unreachable. Nothing was changed.
	ErrConnection = errors.New("target connection failed")
	// ErrProvisioning: the target database could not be checked or created.
	ErrProvisioning = errors.New("provisioning failed")
	// ErrSchema: introspection or a CREATE statement failed; the target schema may be partial.
	ErrSchema = errors.New("schema creation failed")
	// ErrConstraint: an ADD CONSTRAINT statement failed. Never fatal.
	ErrConstraint = errors.New("constraint creation failed")
	// ErrData: reading or inserting rows failed; earlier tables keep their rows.
	ErrData = errors.New("data transfer failed")
	// ErrUnexpected wraps a panic recovered during a run.
	ErrUnexpected = errors.New("unexpected fault")
)

// PhaseError is a failure tied to the phase it happened in.
type PhaseError struct {
	Phase Phase
	Kind  error
	Err   error
}

func (e *PhaseError) Error() string {
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *PhaseError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func phaseError(p Phase, kind, err error) *PhaseError {
	return &PhaseError{Phase: p, Kind: kind, Err: err}
}
