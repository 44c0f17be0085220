package models

import (
	"errors"
	"fmt"
)

// ErrReconstruction marks stored data that cannot be rebuilt into a domain value.
var ErrReconstruction = errors.New("cannot reconstruct from stored data")

// ValidationError reports constructor input that violates a domain invariant.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

func reconstructionFailure(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrReconstruction, fmt.Sprintf(format, args...))
}
