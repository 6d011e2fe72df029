// Package errors provides structured error types for the suratkita document core.
//
// This package defines error codes and types that enable:
//   - Consistent error handling across the library, CLI and store API
//   - Machine-readable error codes for programmatic handling
//   - Human-readable reasons for every recoverable failure
//   - Error wrapping with context preservation
//
// # Taxonomy
//
// Every code belongs to one [Category]:
//   - [CategoryValidation]: missing required fields, blank rejection notes, invalid transitions
//   - [CategoryPermission]: role or status gate failures
//   - [CategoryRender]: the rendering backend returned no/invalid image, or timed out
//   - [CategoryImport]: unparseable spreadsheets or zero valid rows
//
// Nothing in this module retries automatically. [Recoverable] tells the caller whether
// re-triggering the operation explicitly can succeed.
//
// # Usage
//
//	err := errors.New(errors.ErrCodeMissingField, "subject is required")
//	if errors.IsCategory(err, errors.CategoryValidation) {
//	    // show the reason to the author
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeRender, origErr, "render page %d", n)
package errors

import (
	"context"
	"errors"
	"fmt"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Validation errors
	ErrCodeInvalidInput      Code = "INVALID_INPUT"
	ErrCodeMissingField      Code = "MISSING_FIELD"
	ErrCodeBlankNote         Code = "BLANK_NOTE"
	ErrCodeInvalidTransition Code = "INVALID_TRANSITION"
	ErrCodeInvalidColor      Code = "INVALID_COLOR"
	ErrCodePageOverflow      Code = "PAGE_OVERFLOW"
	ErrCodeInvalidPath       Code = "INVALID_PATH"

	// Permission errors
	ErrCodeForbidden Code = "FORBIDDEN"

	// Render errors
	ErrCodeRender        Code = "RENDER_FAILED"
	ErrCodeEmptyImage    Code = "EMPTY_IMAGE"
	ErrCodeRenderTimeout Code = "RENDER_TIMEOUT"

	// Import errors
	ErrCodeImport        Code = "IMPORT_FAILED"
	ErrCodeNoValidRows   Code = "NO_VALID_ROWS"
	ErrCodeImportTimeout Code = "IMPORT_TIMEOUT"

	// Resource errors
	ErrCodeNotFound Code = "NOT_FOUND"
	ErrCodeConflict Code = "CONFLICT"

	// Internal errors
	ErrCodeCanceled    Code = "CANCELED"
	ErrCodeNetwork     Code = "NETWORK_ERROR"
	ErrCodeInternal    Code = "INTERNAL_ERROR"
	ErrCodeUnsupported Code = "UNSUPPORTED"
)

// Category groups codes into the error taxonomy surfaced to callers.
type Category string

const (
	CategoryValidation Category = "validation"
	CategoryPermission Category = "permission"
	CategoryRender     Category = "render"
	CategoryImport     Category = "import"
	CategoryNotFound   Category = "not_found"
	CategoryInternal   Category = "internal"
)

var categories = map[Code]Category{
	ErrCodeInvalidInput:      CategoryValidation,
	ErrCodeMissingField:      CategoryValidation,
	ErrCodeBlankNote:         CategoryValidation,
	ErrCodeInvalidTransition: CategoryValidation,
	ErrCodeInvalidColor:      CategoryValidation,
	ErrCodePageOverflow:      CategoryValidation,
	ErrCodeInvalidPath:       CategoryValidation,
	ErrCodeForbidden:         CategoryPermission,
	ErrCodeRender:            CategoryRender,
	ErrCodeEmptyImage:        CategoryRender,
	ErrCodeRenderTimeout:     CategoryRender,
	ErrCodeImport:            CategoryImport,
	ErrCodeNoValidRows:       CategoryImport,
	ErrCodeImportTimeout:     CategoryImport,
	ErrCodeNotFound:          CategoryNotFound,
	ErrCodeConflict:          CategoryValidation,
}

// Category returns the taxonomy bucket for the code.
func (c Code) Category() Category {
	if cat, ok := categories[c]; ok {
		return cat
	}
	return CategoryInternal
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// Validation, Permission and Render are shorthands for the most common codes.
func Validation(format string, args ...any) *Error { return New(ErrCodeInvalidInput, format, args...) }
func Permission(format string, args ...any) *Error { return New(ErrCodeForbidden, format, args...) }
func Render(cause error, format string, args ...any) *Error {
	return Wrap(ErrCodeRender, cause, format, args...)
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code() == code
	}
	return false
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Code()
	}
	return ""
}

// CategoryOf returns the taxonomy bucket of err, or "" for nil.
func CategoryOf(err error) Category {
	if err == nil {
		return ""
	}
	if code := GetCode(err); code != "" {
		return code.Category()
	}
	return CategoryInternal
}

// IsCategory reports whether err belongs to cat.
func IsCategory(err error, cat Category) bool {
	return err != nil && CategoryOf(err) == cat
}

// Recoverable reports whether the caller may re-trigger the failed operation.
// Render and import failures are recoverable; validation and permission
// failures need the input or the actor to change first.
func Recoverable(err error) bool {
	switch CategoryOf(err) {
	case CategoryRender, CategoryImport:
		return true
	}
	return false
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var ie *ImportError
	if errors.As(err, &ie) {
		return ie.Error()
	}
	var e *Error
	if errors.As(err, &e) {
		if e.Code == ErrCodeRenderTimeout {
			return e.Message + "; retry the export"
		}
		return e.Message
	}
	if errors.Is(err, context.Canceled) {
		return "operation canceled"
	}
	return err.Error()
}

// ImportError reports a spreadsheet that could not yield recipients.
// ValidRows is the number of usable rows found; zero is itself the failure.
type ImportError struct {
	ValidRows int
	Reason    string
	Cause     error
	Timeout   bool
}

// Error implements the error interface.
func (e *ImportError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("import failed: %s (%d valid rows)", e.Reason, e.ValidRows)
	}
	return fmt.Sprintf("import failed: %d valid rows", e.ValidRows)
}

// Unwrap returns the underlying cause.
func (e *ImportError) Unwrap() error { return e.Cause }

// Code returns the error code for this error type.
func (e *ImportError) Code() Code {
	switch {
	case e.Timeout:
		return ErrCodeImportTimeout
	case e.Cause == nil && e.ValidRows == 0:
		return ErrCodeNoValidRows
	}
	return ErrCodeImport
}
