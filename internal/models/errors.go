package models

// ValidationError marks input that violates an entity invariant.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func errInvalid(msg string) error { return &ValidationError{Message: msg} }
