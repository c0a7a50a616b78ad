package application

import (
	"errors"
	"fmt"
)

// ErrInvalidInput signals the request violated a domain invariant.
var ErrInvalidInput = errors.New("invalid order input")

// ValidationError rejects a confirmation payload, naming the offending
// field so the transport can map it to a field-level message.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func requiredField(field string) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf("field %s must not be empty", field)}
}
