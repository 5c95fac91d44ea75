package variables

import "fmt"

// ErrorCode classifies failures so callers can map them onto transport
// responses without string matching.
type ErrorCode string

const (
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeDuplicateName       ErrorCode = "DUPLICATE_NAME"
	CodeValidation          ErrorCode = "VALIDATION_ERROR"
	CodeKeyNotFound         ErrorCode = "KEY_NOT_FOUND"
	CodeDecryptFailed       ErrorCode = "DECRYPTION_FAILED"
	CodeUnresolvedReference ErrorCode = "UNRESOLVED_REFERENCE"
	CodeCircularReference   ErrorCode = "CIRCULAR_REFERENCE"
)

// StructuredError provides consistent error handling with error codes
type StructuredError struct {
	Code    ErrorCode
	Message string
	Details map[string]interface{}
}

func (e *StructuredError) Error() string {
	return e.Message
}

// Is matches any StructuredError carrying the same code, so
// errors.Is(err, ErrNotFound) works on constructed instances.
func (e *StructuredError) Is(target error) bool {
	t, ok := target.(*StructuredError)
	return ok && t.Code == e.Code
}

// Sentinels for errors.Is checks
var (
	ErrNotFound            = &StructuredError{Code: CodeNotFound, Message: "variable not found"}
	ErrDuplicateName       = &StructuredError{Code: CodeDuplicateName, Message: "variable name already exists"}
	ErrKeyNotFound         = &StructuredError{Code: CodeKeyNotFound, Message: "encryption key not found"}
	ErrDecryptFailed       = &StructuredError{Code: CodeDecryptFailed, Message: "decryption failed"}
	ErrUnresolvedReference = &StructuredError{Code: CodeUnresolvedReference, Message: "unresolved template reference"}
	ErrCircularReference   = &StructuredError{Code: CodeCircularReference, Message: "circular template reference"}
)

func NewNotFoundError(scope, name string) *StructuredError {
	return &StructuredError{
		Code:    CodeNotFound,
		Message: fmt.Sprintf("variable '%s' not found", name),
		Details: map[string]interface{}{"scope": scope, "name": name},
	}
}

func NewDuplicateNameError(scope, name string) *StructuredError {
	return &StructuredError{
		Code:    CodeDuplicateName,
		Message: fmt.Sprintf("variable '%s' already exists", name),
		Details: map[string]interface{}{"scope": scope, "name": name},
	}
}

func NewValidationError(reason string) *StructuredError {
	return &StructuredError{
		Code:    CodeValidation,
		Message: reason,
	}
}

func NewKeyNotFoundError(keyID string) *StructuredError {
	return &StructuredError{
		Code:    CodeKeyNotFound,
		Message: fmt.Sprintf("encryption key '%s' is not in the keyring", keyID),
		Details: map[string]interface{}{"key_id": keyID},
	}
}

func NewDecryptionError(reason string) *StructuredError {
	return &StructuredError{
		Code:    CodeDecryptFailed,
		Message: fmt.Sprintf("decryption failed: %s", reason),
	}
}

func NewUnresolvedReferenceError(name string) *StructuredError {
	return &StructuredError{
		Code:    CodeUnresolvedReference,
		Message: fmt.Sprintf("could not resolve variable '%s' in template", name),
		Details: map[string]interface{}{"name": name},
	}
}

func NewCircularReferenceError(template string) *StructuredError {
	return &StructuredError{
		Code:    CodeCircularReference,
		Message: "template expansion did not terminate, check for circular variable references",
		Details: map[string]interface{}{"template": template},
	}
}
