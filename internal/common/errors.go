package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Common application errors
var (
	ErrNotFound     = errors.New("resource not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrInternal     = errors.New("internal error")
	ErrValidation   = errors.New("validation failed")
)

func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Fatal pipeline error codes. The status API surfaces these with the catalog
// message below, never with internal error text.
const (
	CodeCorruptDocument = "CORRUPT_DOCUMENT"
	CodeAnalysisFailed  = "ANALYSIS_FAILED"
	CodeNotFound        = "NOT_FOUND"
	CodeInvalidRequest  = "INVALID_REQUEST"
	CodeConfigError     = "CONFIG_ERROR"
)

var userMessages = map[string]string{
	CodeCorruptDocument: "The uploaded document could not be read. Verify it is a valid PDF and try again.",
	CodeAnalysisFailed:  "The document could not be analyzed. Manual review of the source file is recommended.",
	CodeNotFound:        "Analysis not found.",
	CodeInvalidRequest:  "The request is invalid.",
}

// UserMessage returns the fixed catalog message for a fatal error code.
func UserMessage(code string) string {
	if msg, ok := userMessages[code]; ok {
		return msg
	}
	return "An unexpected error occurred."
}

// FatalCode extracts the catalog code from err, defaulting to ANALYSIS_FAILED.
func FatalCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if _, known := userMessages[appErr.Code]; known {
			return appErr.Code
		}
	}
	return CodeAnalysisFailed
}
