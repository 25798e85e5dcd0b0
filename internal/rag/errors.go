package rag

import (
	"errors"
	"fmt"
)

var (
	// ErrDimensionMismatch is returned when vectors of different lengths meet.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")
	// ErrLengthMismatch is returned when score lists for the same corpus differ in length.
	ErrLengthMismatch = errors.New("score list length mismatch")
	// ErrInvalidRequest matches every *ValidationError via errors.Is.
	ErrInvalidRequest = errors.New("invalid request")
)

// ValidationError represents a validation error with a field name.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error on field %s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidRequest
}
