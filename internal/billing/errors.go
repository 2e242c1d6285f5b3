package billing

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InvalidInputError via errors.Is.
var ErrInvalidInput = errors.New("invalid billing input")

// InvalidInputError reports a precondition the caller should have enforced
// before handing data to the calculators.
type InvalidInputError struct {
	Field   string
	Value   any
	Message string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s (value: %v)", e.Field, e.Message, e.Value)
}

func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

func invalid(field string, value any, message string) *InvalidInputError {
	return &InvalidInputError{Field: field, Value: value, Message: message}
}
