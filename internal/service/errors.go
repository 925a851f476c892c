package service

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a service failure. The HTTP layer maps kinds to status codes.
type ErrorKind string

const (
	KindValidation     ErrorKind = "validation"
	KindAuthentication ErrorKind = "authentication"
	KindForbidden      ErrorKind = "forbidden"
	KindToken          ErrorKind = "token"
	KindRegistration   ErrorKind = "registration"
	KindNotFound       ErrorKind = "not_found"
	KindInternal       ErrorKind = "internal"
)

// Reasons carried in Error.Err so callers can tell failures of one kind apart.
var (
	ErrEmailTaken    = errors.New("email already registered")
	ErrInvalidToken  = errors.New("invalid token")
	ErrExpiredToken  = errors.New("expired token")
	ErrWrongTokenUse = errors.New("wrong token type")
	ErrInactive      = errors.New("account inactive")
	ErrFeatureLocked = errors.New("feature requires active pro subscription")
)

// Error is the typed error returned by services.
// Message is safe to show to callers; Err keeps the cause for logs.
type Error struct {
	Kind    ErrorKind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func newError(kind ErrorKind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

func internalError(cause error) *Error {
	return newError(KindInternal, "Internal server error", cause)
}

// KindOf returns the kind of err, treating untyped errors as internal.
func KindOf(err error) ErrorKind {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr.Kind
	}
	return KindInternal
}
