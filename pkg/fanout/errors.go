package fanout

import "fmt"

// ErrorCode represents the type of executor error.
type ErrorCode string

const (
	// ErrCodeLimit indicates an invalid concurrency limit.
	ErrCodeLimit ErrorCode = "INVALID_LIMIT"
)

// Error represents a configuration error of the executor itself.
// Per-item operation failures are reported through Result.Err instead.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func newLimitError(limit int) *Error {
	return &Error{
		Code:    ErrCodeLimit,
		Message: fmt.Sprintf("concurrency limit must be >= 1, got %d", limit),
	}
}

// IsLimitError checks if the error is an invalid limit error.
func IsLimitError(err error) bool {
	if fe, ok := err.(*Error); ok {
		return fe.Code == ErrCodeLimit
	}
	return false
}
