// Package domainerrors carries failure categories across the issuer and
// learner layers without tying them to HTTP. Transports map a Code to their
// own status vocabulary at the edge.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code names what went wrong in ledger and issuance terms.
type Code string

// Generic categories.
const (
	CodeNotFound           Code = "not_found"
	CodeBadRequest         Code = "bad_request"
	CodeInternal           Code = "internal_error"
	CodeConflict           Code = "conflict"
	CodeTimeout            Code = "timeout"
	CodeInvariantViolation Code = "invariant_violation"
)

// Issuance and ledger categories.
const (
	// CodeInvalidRequest: a mint request is missing or oversizes a field.
	CodeInvalidRequest Code = "invalid_request"
	// CodeSigningFailed: the issuer key could not sign the payload digest.
	CodeSigningFailed Code = "signing_failed"
	// CodeUnavailable: the issuer did not answer usefully in time.
	CodeUnavailable Code = "unavailable"
	// CodeMintDenied: the issuer answered and declined.
	CodeMintDenied Code = "mint_denied"
	// CodeInvalidSelection: fusion needs two distinct eligible ledger entries.
	CodeInvalidSelection Code = "invalid_selection"
)

// Error is a coded failure. Message is safe to show a user; Err is the
// underlying cause, kept for logs and errors.Is.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match when target is an *Error with the same Code, so
// errors.Is(err, &Error{Code: CodeNotFound}) works without comparing messages.
func (e *Error) Is(target error) bool {
	other, ok := target.(*Error)
	return ok && other.Code == e.Code
}

func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf is New with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches msg to err. A cause that already carries a Code keeps it;
// code only applies to foreign errors.
func Wrap(err error, code Code, msg string) error {
	if inner, ok := As(err); ok {
		code = inner.Code
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// As returns the outermost *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	if err == nil || !errors.As(err, &e) {
		return nil, false
	}
	return e, true
}

func HasCode(err error, code Code) bool {
	e, ok := As(err)
	return ok && e.Code == code
}

// CodeOf returns err's Code. Errors from outside this package are internal.
func CodeOf(err error) Code {
	if e, ok := As(err); ok {
		return e.Code
	}
	return CodeInternal
}
