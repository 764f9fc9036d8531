package llm

import "fmt"

// ErrorCode represents the type of model error.
type ErrorCode string

const (
	// ErrCodeModel indicates the chat model could not be constructed.
	ErrCodeModel ErrorCode = "MODEL_ERROR"
	// ErrCodeGenerate indicates a generation call failed.
	ErrCodeGenerate ErrorCode = "GENERATE_ERROR"
)

// Error represents an error during model operations.
type Error struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewModelError creates an error for model construction failures.
func NewModelError(message string, cause error) *Error {
	return &Error{Code: ErrCodeModel, Message: message, Cause: cause}
}

// NewGenerateError creates an error for generation failures.
func NewGenerateError(message string, cause error) *Error {
	return &Error{Code: ErrCodeGenerate, Message: message, Cause: cause}
}

// IsGenerateError checks if the error is a generation error.
func IsGenerateError(err error) bool {
	if le, ok := err.(*Error); ok {
		return le.Code == ErrCodeGenerate
	}
	return false
}
