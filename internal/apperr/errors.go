// Package apperr defines the error taxonomy shared by the workflows and the
// HTTP layer. Workflows return *Error values (or wrap them); handlers map the
// Kind to a status code without inspecting storage details.
package apperr

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthenticated
	KindInvalidCredentials
	KindDuplicateUsername
	KindNotFound
	KindIntegrity
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthenticated:
		return "unauthenticated"
	case KindInvalidCredentials:
		return "invalid_credentials"
	case KindDuplicateUsername:
		return "duplicate_username"
	case KindNotFound:
		return "not_found"
	case KindIntegrity:
		return "integrity_violation"
	case KindRateLimited:
		return "rate_limited"
	default:
		return "internal"
	}
}

// HTTPStatus returns the response code used for errors of this kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case KindValidation, KindIntegrity:
		return http.StatusBadRequest
	case KindUnauthenticated, KindInvalidCredentials:
		return http.StatusUnauthorized
	case KindDuplicateUsername:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// FieldError is one entry of the client-facing error list.
type FieldError struct {
	Field   string `json:"field,omitempty"`
	Message string `json:"message"`
}

type Error struct {
	Kind    Kind
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is reports a match on Kind, so errors.Is(err, ErrNotFound) holds for any
// not-found error regardless of its message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is matching.
var (
	ErrInternal           = &Error{Kind: KindInternal, Message: "internal server error"}
	ErrValidation         = &Error{Kind: KindValidation, Message: "validation failed"}
	ErrUnauthenticated    = &Error{Kind: KindUnauthenticated, Message: "authentication required"}
	ErrInvalidCredentials = &Error{Kind: KindInvalidCredentials, Message: "invalid username or password"}
	ErrDuplicateUsername  = &Error{Kind: KindDuplicateUsername, Message: "username already exists"}
	ErrNotFound           = &Error{Kind: KindNotFound, Message: "not found"}
	ErrIntegrity          = &Error{Kind: KindIntegrity, Message: "integrity violation"}
	ErrRateLimited        = &Error{Kind: KindRateLimited, Message: "too many requests"}
)

func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Validation builds a validation error carrying per-field detail.
func Validation(fields ...FieldError) *Error {
	return &Error{Kind: KindValidation, Message: "validation failed", Fields: fields}
}

// KindOf returns the Kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}
