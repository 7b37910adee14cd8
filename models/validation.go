package models

import (
	"errors"
	"fmt"
)

// ErrValidation marks a record rejected before it reached the store.
var ErrValidation = errors.New("validation failed")

// ValidationError names the offending field.
type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Msg)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Msg: msg}
}

func required(field, value string) error {
	if value == "" {
		return invalid(field, "is required")
	}
	return nil
}
