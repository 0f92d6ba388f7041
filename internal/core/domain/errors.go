package domain

import (
	"errors"
	"fmt"
)

// Kind classifies an error so the transport layer can pick a status code
// without inspecting messages.
type Kind string

const (
	KindValidation     Kind = "validation"
	KindAuthentication Kind = "authentication"
	KindAuthorization  Kind = "authorization"
	KindNotFound       Kind = "not_found"
	KindConflict       Kind = "conflict"
	KindLastAdmin      Kind = "last_admin"
	KindRateLimited    Kind = "rate_limited"
	KindInternal       Kind = "internal"
)

// Error is the error contract shared by the core and the API layer.
// Message is safe to show to clients; Err carries the internal cause.
type Error struct {
	Kind    Kind
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

// Is matches sentinel errors by identity first, then by kind and message so a
// sentinel wrapped with a cause still compares equal.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e == t || (e.Kind == t.Kind && e.Message == t.Message)
}

func newError(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Message: msg}
}

// Validation builds a 400-class error with a client-safe message.
func Validation(msg string) error {
	return newError(KindValidation, msg)
}

// Wrap attaches an internal cause to a sentinel without changing what the
// client sees.
func Wrap(sentinel *Error, cause error) error {
	return &Error{Kind: sentinel.Kind, Message: sentinel.Message, Err: cause}
}

// KindOf returns the kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

var (
	ErrInvalidToken       = newError(KindAuthentication, "invalid token")
	ErrExpiredToken       = newError(KindAuthentication, "token expired")
	ErrRevokedToken       = newError(KindAuthentication, "token revoked")
	ErrUnauthenticated    = newError(KindAuthentication, "authentication required")
	ErrInvalidCredentials = newError(KindAuthentication, "invalid credentials")
	ErrInactiveUser       = newError(KindAuthentication, "account is not active")

	ErrForbidden        = newError(KindAuthorization, "access forbidden")
	ErrInsufficientRole = newError(KindAuthorization, "insufficient role")
	ErrRestrictedField  = newError(KindAuthorization, "cannot change own role or permissions")

	ErrUserNotFound = newError(KindNotFound, "user not found")
	ErrUserExists   = newError(KindConflict, "user already exists")

	ErrLastAdminProtected = newError(KindLastAdmin, "at least one active admin is required")
	ErrSelfDeletion       = newError(KindValidation, "cannot delete your own account")
	ErrWrongPassword      = newError(KindValidation, "current password is incorrect")
	ErrInvalidStatus      = newError(KindValidation, "status must be one of: active, inactive")

	ErrTooManyAttempts = newError(KindRateLimited, "too many failed login attempts, try again later")
)
