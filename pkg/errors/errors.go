// Package errors defines the error kinds surfaced by a fardiff run.
package errors

import (
	"errors"
	"fmt"
)

// Error codes for the application.
const (
	CodeUnknown           = "UNKNOWN_ERROR"
	CodeNotFound          = "NOT_FOUND"
	CodeNoCandidates      = "NO_CANDIDATES"
	CodeInvalidSelection  = "INVALID_SELECTION"
	CodeInspectionTool    = "INSPECTION_TOOL_ERROR"
	CodeInspectionTimeout = "INSPECTION_TIMEOUT"
	CodeEmptyTree         = "EMPTY_TREE"
	CodeTemplate          = "TEMPLATE_ERROR"
	CodeParseError        = "PARSE_ERROR"
	CodeConfigError       = "CONFIG_ERROR"
	CodeStorageError      = "STORAGE_ERROR"
	CodeDatabaseError     = "DATABASE_ERROR"
)

// AppError represents an application error with a code and message.
type AppError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *AppError) Unwrap() error {
	return e.Err
}

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError.
func New(code string, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// Newf creates a new AppError with a formatted message.
func Newf(code string, format string, args ...interface{}) *AppError {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap wraps an existing error with an AppError.
func Wrap(code string, message string, err error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Sentinels for errors.Is comparisons.
var (
	ErrNotFound          = New(CodeNotFound, "no file or folder at the specified path")
	ErrNoCandidates      = New(CodeNoCandidates, "no native library found in the specified path")
	ErrInvalidSelection  = New(CodeInvalidSelection, "invalid selection")
	ErrInspectionTool    = New(CodeInspectionTool, "inspection tool failed")
	ErrInspectionTimeout = New(CodeInspectionTimeout, "inspection timed out")
	ErrEmptyTree         = New(CodeEmptyTree, "no records to build a tree from")
	ErrTemplate          = New(CodeTemplate, "template error")
	ErrParseError        = New(CodeParseError, "parse error")
	ErrConfigError       = New(CodeConfigError, "configuration error")
	ErrStorageError      = New(CodeStorageError, "storage error")
	ErrDatabaseError     = New(CodeDatabaseError, "database error")
)

// IsNotFound checks if the error is a not-found error.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsNoCandidates checks if the error reports an empty candidate list.
func IsNoCandidates(err error) bool {
	return errors.Is(err, ErrNoCandidates)
}

// IsInvalidSelection checks if the error is an invalid interactive selection.
func IsInvalidSelection(err error) bool {
	return errors.Is(err, ErrInvalidSelection)
}

// IsInspectionTool checks if the error came from a failed inspection tool.
func IsInspectionTool(err error) bool {
	return errors.Is(err, ErrInspectionTool)
}

// IsInspectionTimeout checks if an inspection was canceled by its deadline.
func IsInspectionTimeout(err error) bool {
	return errors.Is(err, ErrInspectionTimeout)
}

// IsEmptyTree checks if the error is an empty tree error.
func IsEmptyTree(err error) bool {
	return errors.Is(err, ErrEmptyTree)
}

// IsTemplate checks if the error is a template error.
func IsTemplate(err error) bool {
	return errors.Is(err, ErrTemplate)
}

// IsParseError checks if the error came from strict-mode parsing.
func IsParseError(err error) bool {
	return errors.Is(err, ErrParseError)
}

// IsConfigError checks if the error is a configuration error.
func IsConfigError(err error) bool {
	return errors.Is(err, ErrConfigError)
}

// IsStorageError checks if the error came from a storage backend.
func IsStorageError(err error) bool {
	return errors.Is(err, ErrStorageError)
}

// IsDatabaseError checks if the error came from the history database.
func IsDatabaseError(err error) bool {
	return errors.Is(err, ErrDatabaseError)
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return CodeUnknown
}

// GetErrorMessage extracts the error message from an error.
func GetErrorMessage(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	if err != nil {
		return err.Error()
	}
	return ""
}
