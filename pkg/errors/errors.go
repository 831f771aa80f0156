// Package errors carries the typed application errors that services return and
// responses.WriteError renders.
package errors

import (
	stdErrors "errors"
	"fmt"
)

// Error pairs a Code with a caller facing message, optional details, and the underlying cause.
type Error struct {
	code    Code
	message string
	details any
	cause   error
}

func New(code Code, message string) *Error {
	return &Error{code: code, message: message}
}

func Newf(code Code, format string, args ...any) *Error {
	return New(code, fmt.Sprintf(format, args...))
}

// Wrap keeps err reachable through errors.Is and errors.As. A nil err behaves like New.
func Wrap(code Code, err error, message string) *Error {
	return &Error{code: code, message: message, cause: err}
}

func (e *Error) Code() Code {
	if e == nil {
		return CodeInternal
	}
	return e.code
}

func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	return e.message
}

func (e *Error) Details() any {
	if e == nil {
		return nil
	}
	return e.details
}

// WithDetails mutates and returns e so it can be chained off New or Wrap.
func (e *Error) WithDetails(details any) *Error {
	if e != nil {
		e.details = details
	}
	return e
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: %s", e.code, e.message)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// As returns the outermost *Error in err's chain.
func As(err error) *Error {
	var typed *Error
	if err != nil && stdErrors.As(err, &typed) {
		return typed
	}
	return nil
}

// HasCode reports whether err carries the typed code.
func HasCode(err error, code Code) bool {
	typed := As(err)
	return typed != nil && typed.code == code
}

// FieldError is one rejected input field. Reason is a full sentence and doubles as the
// public message when it is the first problem.
type FieldError struct {
	Field  string `json:"field,omitempty"`
	Reason string `json:"reason"`
}

func (f FieldError) Error() string {
	return f.Reason
}

// Invalid builds a VALIDATION_ERROR listing every problem under details.fields.
func Invalid(fields ...FieldError) *Error {
	if len(fields) == 0 {
		return New(CodeValidation, "validation failed")
	}
	return New(CodeValidation, fields[0].Reason).WithDetails(map[string]any{"fields": fields})
}

// Fields returns the field problems carried by an error built with Invalid.
func Fields(err error) []FieldError {
	details, ok := As(err).Details().(map[string]any)
	if !ok {
		return nil
	}
	fields, _ := details["fields"].([]FieldError)
	return fields
}
