// Package pbierrors provides structured error handling for the PowerBI
// connector with error categorization, rich context, and stack traces.
//
// # Overview
//
// The pbierrors package extends Go's standard error handling with:
//   - Error categorization through ErrorType
//   - Structured context with key-value details
//   - Automatic stack trace capture
//   - Error wrapping with cause preservation
//   - Retryability detection for API-facing errors
//
// # Basic Usage
//
//	// Reject a field whose raw value has the wrong shape
//	return pbierrors.NewTypeError("scan_timeout", "integer")
//
//	// Wrap a transport failure
//	if err := client.Do(req); err != nil {
//	    return pbierrors.Wrap(err, pbierrors.ErrorTypeConnection, "admin scan request failed").
//	        WithDetail("workspace", workspaceID)
//	}
//
// # Error Types
//
// Configuration errors (type, conflict, missing_field, validation) are always
// fatal to construction and never retryable. Transport-level errors
// (connection, timeout, rate_limit) are retryable by the API client.
//
// # Thread Safety
//
// Error instances are not thread-safe for modification. Use WithDetail
// before sharing across goroutines.
package pbierrors

import (
	"errors"
	"fmt"
	"runtime"
)

// ErrorType represents the category of error, used for error handling
// strategies and diagnostics.
type ErrorType string

const (
	// ErrorTypeInternal represents internal system errors
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeType represents a field value that cannot be coerced to its declared type
	ErrorTypeType ErrorType = "type"
	// ErrorTypeConflict represents mutually exclusive fields both being set
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeMissingField represents an absent required field
	ErrorTypeMissingField ErrorType = "missing_field"
	// ErrorTypeValidation represents general validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConnection represents connection errors
	ErrorTypeConnection ErrorType = "connection"
	// ErrorTypeAuthentication represents authentication errors
	ErrorTypeAuthentication ErrorType = "authentication"
	// ErrorTypeTimeout represents timeout errors
	ErrorTypeTimeout ErrorType = "timeout"
	// ErrorTypeRateLimit represents rate limit errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeData represents data processing errors
	ErrorTypeData ErrorType = "data"
)

// Error represents a structured error with context.
//
// Fields:
//   - Type: Categorizes the error for handling strategies
//   - Message: Human-readable error description
//   - Cause: The underlying error that caused this error
//   - Details: Key-value pairs providing additional context
//   - Stack: Call stack at the point of error creation
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface, returning a formatted message that
// includes the error type, message, and cause (if present).
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error, enabling compatibility with errors.Is
// and errors.As for error chain inspection.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. This method can be
// chained for adding multiple details.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, automatically
// capturing the call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Newf creates a new error with a formatted message.
func Newf(errType ErrorType, format string, args ...interface{}) *Error {
	return &Error{
		Type:    errType,
		Message: fmt.Sprintf(format, args...),
		Stack:   captureStack(2),
	}
}

// NewTypeError reports that a field's raw value cannot be coerced to its
// declared type. The resulting message names the field and the expected type.
func NewTypeError(field, expected string) *Error {
	return &Error{
		Type:    ErrorTypeType,
		Message: fmt.Sprintf("field %q must be of type %s", field, expected),
		Stack:   captureStack(2),
	}
}

// NewConflictError reports that two mutually exclusive fields are both set.
// The message must name both fields and state the preferred one; callers pass
// it verbatim so recipes see a stable, actionable diagnostic.
func NewConflictError(fieldA, fieldB, message string) *Error {
	e := &Error{
		Type:    ErrorTypeConflict,
		Message: message,
		Stack:   captureStack(2),
	}
	return e.WithDetail("field_a", fieldA).WithDetail("field_b", fieldB)
}

// NewMissingFieldError reports an absent required field.
func NewMissingFieldError(field string) *Error {
	e := &Error{
		Type:    ErrorTypeMissingField,
		Message: fmt.Sprintf("missing required field: %s", field),
		Stack:   captureStack(2),
	}
	return e.WithDetail("field", field)
}

// Wrap wraps an existing error with additional context, preserving the
// original error as the cause. If the error is already a structured Error,
// its stack trace is preserved. Returns nil if the input error is nil.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	// If already our error type, preserve the stack
	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsRetryable returns true if the error is retryable based on its type.
// Rate limit, timeout, and connection errors are considered retryable;
// configuration errors never are.
func IsRetryable(err error) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}

	switch e.Type {
	case ErrorTypeRateLimit, ErrorTypeTimeout, ErrorTypeConnection:
		return true
	default:
		return false
	}
}

// IsType checks if the error is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Type == errType
}

// Field returns the offending field recorded on a type, conflict, or
// missing-field error, or "" when the error carries none.
func Field(err error) string {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	if f, ok := e.Details["field"].(string); ok {
		return f
	}
	return ""
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
