package gameerrors

import "errors"

// Shared sentinel errors. Used across the engine, storage and api packages
// to avoid circular imports.
var (
	ErrSessionNotFound  = errors.New("session not found")
	ErrNotParticipant   = errors.New("caller is not a session participant")
	ErrUserNotFound     = errors.New("user not found")
	ErrInvalidSelection = errors.New("invalid card selection")
	ErrNoIdentity       = errors.New("no identity provided")
)

// StructuralError marks a content item whose shape is unusable (missing
// script, zero intensity, unknown type). Structural problems are never
// repairable and always disqualify the item.
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return "structural: " + e.Field + ": " + e.Reason
}

// IsStructural reports whether err is (or wraps) a StructuralError.
func IsStructural(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
