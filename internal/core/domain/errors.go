package domain

import (
	"errors"
	"strings"
)

// ErrNotFound is returned when a POI id does not exist.
var ErrNotFound = errors.New("poi not found")

// FieldError describes one invalid input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (e FieldError) Error() string {
	return e.Field + " " + e.Message
}

// ValidationErrors aggregates every invalid field of a payload.
type ValidationErrors []FieldError

func (v ValidationErrors) Error() string {
	parts := make([]string, len(v))
	for i, e := range v {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// IsValidation reports whether err is (or wraps) a validation failure.
func IsValidation(err error) bool {
	var v ValidationErrors
	return errors.As(err, &v)
}
