// Package errors defines the structured error types used across mtb.
//
// Every failure that can reach a user carries a stable code. Compilation
// failures come in two categories: continuable ones (a missing component,
// accumulated so a single pass reports all of them) and fatal ones (a
// circular reference or an exceeded nesting depth, which abort immediately).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorType represents different categories of errors.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeIO         ErrorType = "io"
	ErrorTypeBuild      ErrorType = "build"
	ErrorTypeConfig     ErrorType = "config"
	ErrorTypeInternal   ErrorType = "internal"
)

// Stable error codes.
const (
	CodeInvalidName       = "INVALID_NAME"
	CodeComponentNotFound = "COMPONENT_NOT_FOUND"
	CodePageNotFound      = "PAGE_NOT_FOUND"
	CodeCompilation       = "COMPILATION_ERROR"
	CodeCircularReference = "CIRCULAR_REFERENCE"
	CodeMaxDepthExceeded  = "MAX_DEPTH_EXCEEDED"
	CodeFileRead          = "FILE_READ_ERROR"
	CodeFileWrite         = "FILE_WRITE_ERROR"
	CodeDirectoryRead     = "DIRECTORY_READ_ERROR"
	CodeDirectoryCreate   = "DIRECTORY_CREATE_ERROR"
	CodeInvalidConfig     = "INVALID_CONFIG"
)

// Coder is implemented by every error in this package.
type Coder interface {
	Code() string
}

// MtbError is a structured error with context, used where no more specific
// type exists (configuration, scaffolding, CLI input).
type MtbError struct {
	Type    ErrorType
	ErrCode string
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error implements the error interface.
func (e *MtbError) Error() string {
	var parts []string

	if e.ErrCode != "" {
		parts = append(parts, fmt.Sprintf("[%s]", e.ErrCode))
	}
	parts = append(parts, e.Message)

	result := strings.Join(parts, " ")
	if e.Cause != nil {
		result += fmt.Sprintf(": %v", e.Cause)
	}

	return result
}

// Code returns the stable error code.
func (e *MtbError) Code() string {
	return e.ErrCode
}

// Unwrap returns the underlying cause error.
func (e *MtbError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison on type and code.
func (e *MtbError) Is(target error) bool {
	var t *MtbError
	if errors.As(target, &t) {
		return e.Type == t.Type && e.ErrCode == t.ErrCode
	}

	return false
}

// WithContext adds context information to the error.
func (e *MtbError) WithContext(key string, value interface{}) *MtbError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value

	return e
}

// NewValidationError creates a validation error.
func NewValidationError(code, message string) *MtbError {
	return &MtbError{
		Type:    ErrorTypeValidation,
		ErrCode: code,
		Message: message,
	}
}

// NewConfigError creates a configuration error.
func NewConfigError(message string, cause error) *MtbError {
	return &MtbError{
		Type:    ErrorTypeConfig,
		ErrCode: CodeInvalidConfig,
		Message: message,
		Cause:   cause,
	}
}

// Wrap wraps err with type and code information. It returns nil for a nil err.
func Wrap(err error, errType ErrorType, code, message string) *MtbError {
	if err == nil {
		return nil
	}

	return &MtbError{
		Type:    errType,
		ErrCode: code,
		Message: message,
		Cause:   err,
	}
}

// Code returns the code of the outermost coded error in err's chain, or an
// empty string.
func Code(err error) string {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return ""
}

// IsFatal reports whether err aborted a compilation (circular reference or
// exceeded depth) rather than reporting missing components.
func IsFatal(err error) bool {
	var cycle *CycleError
	if errors.As(err, &cycle) {
		return true
	}

	var depth *MaxDepthError
	return errors.As(err, &depth)
}

// Is, As and New re-export the standard library helpers so callers importing
// this package under its own name keep access to them.
var (
	Is  = errors.Is
	As  = errors.As
	New = errors.New
)
