package errors

import (
	"fmt"
)

// Category represents the type of error.
type Category string

const (
	CategoryDOM      Category = "dom"
	CategoryRegistry Category = "registry"
	CategoryContract Category = "contract"
	CategoryRuntime  Category = "runtime"
	CategoryProtocol Category = "protocol"
	CategoryConfig   Category = "config"
	CategoryCLI      Category = "cli"
)

// TrellisError is a structured error with a code, explanation and hint.
type TrellisError struct {
	// Code is a unique error identifier (e.g., "E001").
	Code string

	// Category is the error type (dom, registry, contract, ...).
	Category Category

	// Message is a short description of the error.
	Message string

	// Detail is a longer explanation of the error.
	Detail string

	// Suggestion is a hint on how to fix the error.
	Suggestion string

	// DocURL is a link to documentation about this error.
	DocURL string

	// Wrapped is the underlying error, if any.
	Wrapped error
}

// Error implements the error interface.
func (e *TrellisError) Error() string {
	msg := e.Message
	if e.Code != "" {
		msg = fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if e.Wrapped != nil {
		msg += ": " + e.Wrapped.Error()
	}
	return msg
}

// Unwrap returns the wrapped error for errors.Is/As support.
func (e *TrellisError) Unwrap() error {
	return e.Wrapped
}

// Is matches another TrellisError carrying the same code, so package-level
// sentinels built with New compare equal to decorated copies.
func (e *TrellisError) Is(target error) bool {
	t, ok := target.(*TrellisError)
	if !ok || t.Code == "" {
		return false
	}
	return e.Code == t.Code
}

// WithSuggestion adds a fix suggestion to the error.
func (e *TrellisError) WithSuggestion(s string) *TrellisError {
	e.Suggestion = s
	return e
}

// WithDetail adds a detailed explanation to the error.
func (e *TrellisError) WithDetail(d string) *TrellisError {
	e.Detail = d
	return e
}

// WithDetailf adds a formatted detail to the error.
func (e *TrellisError) WithDetailf(format string, args ...any) *TrellisError {
	e.Detail = fmt.Sprintf(format, args...)
	return e
}

// Wrap wraps another error.
func (e *TrellisError) Wrap(err error) *TrellisError {
	e.Wrapped = err
	return e
}

// New creates a TrellisError from a registered error code.
func New(code string) *TrellisError {
	template, ok := registry[code]
	if !ok {
		return &TrellisError{
			Code:    code,
			Message: "Unknown error",
		}
	}
	return &TrellisError{
		Code:     code,
		Category: template.Category,
		Message:  template.Message,
		DocURL:   template.DocURL,
	}
}

// Newf creates a new TrellisError with a formatted message (no code).
func Newf(category Category, format string, args ...any) *TrellisError {
	return &TrellisError{
		Category: category,
		Message:  fmt.Sprintf(format, args...),
	}
}

// FromError wraps a standard error in a TrellisError.
func FromError(err error, code string) *TrellisError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*TrellisError); ok {
		return te
	}
	return New(code).Wrap(err)
}
