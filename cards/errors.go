package cards

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("card not found")
	ErrValidation    = errors.New("validation error")
	ErrMalformedJSON = errors.New("malformed JSON")
	ErrTooManyCards  = errors.New("too many cards")
)

// ValidationError describes the first field that failed validation. Index is the
// position of the record inside an import batch, or -1 for single payloads.
type ValidationError struct {
	Index  int
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("card %d: %s: %s", e.Index, e.Field, e.Reason)
	}
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}

func invalid(field, reason string) *ValidationError {
	return &ValidationError{Index: -1, Field: field, Reason: reason}
}
