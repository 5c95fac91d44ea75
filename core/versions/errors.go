package versions

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("version not found")
	ErrInvalidCursor = errors.New("cursor is not valid")
)

// ValidationError reports a rejected create request.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

func NewValidationError(format string, args ...interface{}) *ValidationError {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}
