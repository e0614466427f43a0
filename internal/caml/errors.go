package caml

import (
	"errors"
	"fmt"

	"github.com/ChrisPritchard/FluentSharepoint/internal/catalog"
)

// ErrorCode categorizes compile errors.
type ErrorCode string

const (
	// ErrCodeAmbiguousDisplayName indicates a display name matched several fields.
	ErrCodeAmbiguousDisplayName ErrorCode = "AMBIGUOUS_DISPLAY_NAME"

	// ErrCodeUnknownField indicates a reference matched no field.
	ErrCodeUnknownField ErrorCode = "UNKNOWN_FIELD"

	// ErrCodeMalformedDefinition indicates the definition failed structural validation.
	ErrCodeMalformedDefinition ErrorCode = "MALFORMED_DEFINITION"

	// ErrCodeUnsupportedValue indicates a value could not be converted to the field's type.
	ErrCodeUnsupportedValue ErrorCode = "UNSUPPORTED_VALUE_CONVERSION"
)

// CompileError is returned by every Compiler method.
//
// Field locates the offending part of the definition ("where[1]", "view[0]",
// "order_by"). Err holds the underlying cause when there is one.
type CompileError struct {
	Code    ErrorCode
	Field   string
	Message string
	Err     error
}

func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// resolveError converts a catalog error into a CompileError located at field.
func resolveError(field string, err error) *CompileError {
	code := ErrCodeUnknownField
	if catalog.IsAmbiguous(err) {
		code = ErrCodeAmbiguousDisplayName
	}
	return &CompileError{Code: code, Field: field, Message: err.Error(), Err: err}
}

// Code extracts the ErrorCode from err, or "" if err is not a CompileError.
// Uses errors.As to handle wrapped errors.
func Code(err error) ErrorCode {
	var ce *CompileError
	if errors.As(err, &ce) {
		return ce.Code
	}
	return ""
}

// IsAmbiguous returns true if the error is an ambiguous display name error.
func IsAmbiguous(err error) bool {
	return Code(err) == ErrCodeAmbiguousDisplayName
}

// IsUnknownField returns true if the error is an unknown field error.
func IsUnknownField(err error) bool {
	return Code(err) == ErrCodeUnknownField
}

// IsMalformed returns true if the error is a malformed definition error.
func IsMalformed(err error) bool {
	return Code(err) == ErrCodeMalformedDefinition
}

// IsUnsupportedValue returns true if the error is a value conversion error.
func IsUnsupportedValue(err error) bool {
	return Code(err) == ErrCodeUnsupportedValue
}
