package schema

import (
	"errors"
	"fmt"
	"strings"
)

// FieldErrorKind classifies a single validation failure.
type FieldErrorKind string

const (
	KindMissing      FieldErrorKind = "missing"
	KindInvalidType  FieldErrorKind = "invalid_type"
	KindUnknown      FieldErrorKind = "unknown_field"
	KindInvalidValue FieldErrorKind = "invalid_value"
)

// FieldError describes one offending field.
type FieldError struct {
	Field   string         `json:"field"`
	Kind    FieldErrorKind `json:"kind"`
	Message string         `json:"message"`
}

func (f FieldError) String() string {
	return fmt.Sprintf("%s: %s (%s)", f.Field, f.Message, f.Kind)
}

// ValidationError lists every field that failed validation.
type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.String())
	}

	return "validation failed: " + strings.Join(parts, "; ")
}

// IsValidationError reports whether err carries a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError

	return errors.As(err, &ve)
}

// FieldErrors extracts the field list from err, if any.
func FieldErrors(err error) []FieldError {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Fields
	}

	return nil
}
