// Package apperr defines the shared error taxonomy every domain service
// returns through, so cmd/api needs one status mapping instead of one per
// package.
package apperr

import (
	"errors"
	"fmt"
)

type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindForbidden
	KindNotFound
	KindConflict
	KindDomain
	KindRepo
	KindUnprocessable
)

// Error wraps a domain failure with the kind cmd/api maps to an HTTP status.
// Code is an optional fine-grained tag (e.g. "InsufficientStock",
// "CartNotActive") for callers that need to distinguish failures sharing
// a Kind/status code.
type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// WithCode sets the fine-grained failure code and returns e for chaining.
func (e *Error) WithCode(code string) *Error {
	e.Code = code
	return e
}

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

func Validation(format string, a ...any) *Error {
	return New(KindValidation, fmt.Sprintf(format, a...))
}

func NotFound(format string, a ...any) *Error {
	return New(KindNotFound, fmt.Sprintf(format, a...))
}

func Conflict(format string, a ...any) *Error {
	return New(KindConflict, fmt.Sprintf(format, a...))
}

func Forbidden(format string, a ...any) *Error {
	return New(KindForbidden, fmt.Sprintf(format, a...))
}

func Domain(format string, a ...any) *Error {
	return New(KindDomain, fmt.Sprintf(format, a...))
}

func Repo(err error) *Error {
	return Wrap(KindRepo, "repository error", err)
}

// Is reports whether err is an *Error of the given kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func CodeOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// Fine-grained failure codes set by the domain services that need to
// distinguish failures sharing one Kind; cmd/api maps by Kind only.
const (
	CodeInsufficientStock = "InsufficientStock"
	CodeCartNotActive     = "CartNotActive"
	CodeEmptyCart         = "EmptyCart"
	CodeSaleError         = "SaleError"
)
