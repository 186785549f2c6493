// Package apperror defines the typed failure kinds produced by the credential
// and token layers, and the fixed table that maps each kind to an HTTP outcome.
package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of failure.
type Kind int

const (
	Internal Kind = iota
	InvalidEmail
	WeakPassword
	DuplicateEmail
	InvalidCredentials
	MalformedToken
	InvalidSignature
	ExpiredToken
	InvalidRequest
	Unauthorized
	RequestTooLarge
)

// Response codes written in the error body.
const (
	CodeValidation   = "VALIDATION_ERROR"
	CodeConflict     = "CONFLICT"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeInternal     = "INTERNAL_SERVER_ERROR"
	CodeTooLarge     = "PAYLOAD_TOO_LARGE"
)

var kindNames = map[Kind]string{
	Internal:           "internal",
	InvalidEmail:       "invalid_email",
	WeakPassword:       "weak_password",
	DuplicateEmail:     "duplicate_email",
	InvalidCredentials: "invalid_credentials",
	MalformedToken:     "malformed_token",
	InvalidSignature:   "invalid_signature",
	ExpiredToken:       "expired_token",
	InvalidRequest:     "invalid_request",
	Unauthorized:       "unauthorized",
	RequestTooLarge:    "request_too_large",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

type outcome struct {
	status int
	code   string
}

var outcomes = map[Kind]outcome{
	InvalidEmail:       {http.StatusBadRequest, CodeValidation},
	WeakPassword:       {http.StatusBadRequest, CodeValidation},
	InvalidRequest:     {http.StatusBadRequest, CodeValidation},
	DuplicateEmail:     {http.StatusConflict, CodeConflict},
	InvalidCredentials: {http.StatusUnauthorized, CodeUnauthorized},
	MalformedToken:     {http.StatusUnauthorized, CodeUnauthorized},
	InvalidSignature:   {http.StatusUnauthorized, CodeUnauthorized},
	ExpiredToken:       {http.StatusUnauthorized, CodeUnauthorized},
	Unauthorized:       {http.StatusUnauthorized, CodeUnauthorized},
	RequestTooLarge:    {http.StatusRequestEntityTooLarge, CodeTooLarge},
	Internal:           {http.StatusInternalServerError, CodeInternal},
}

// Status returns the HTTP status code for the kind.
func (k Kind) Status() int {
	if o, ok := outcomes[k]; ok {
		return o.status
	}
	return http.StatusInternalServerError
}

// Code returns the machine-readable error code for the kind.
func (k Kind) Code() string {
	if o, ok := outcomes[k]; ok {
		return o.code
	}
	return CodeInternal
}

// Error is a failure of a known kind. Message is safe to show to callers;
// Err holds the underlying cause and is never sent over the wire.
type Error struct {
	Kind    Kind
	Message string
	Field   string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same kind, so callers can
// compare against the package-level sentinels with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && t.Message == "" && t.Field == "" && t.Err == nil
}

// New creates an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// NewField creates an Error tied to a request field.
func NewField(kind Kind, field, message string) *Error {
	return &Error{Kind: kind, Message: message, Field: field}
}

// Wrap creates an Error of the given kind around cause.
func Wrap(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Err: cause}
}

// Sentinels for errors.Is comparisons by kind.
var (
	ErrInternal           = &Error{Kind: Internal}
	ErrInvalidEmail       = &Error{Kind: InvalidEmail}
	ErrWeakPassword       = &Error{Kind: WeakPassword}
	ErrDuplicateEmail     = &Error{Kind: DuplicateEmail}
	ErrInvalidCredentials = &Error{Kind: InvalidCredentials}
	ErrMalformedToken     = &Error{Kind: MalformedToken}
	ErrInvalidSignature   = &Error{Kind: InvalidSignature}
	ErrExpiredToken       = &Error{Kind: ExpiredToken}
	ErrInvalidRequest     = &Error{Kind: InvalidRequest}
	ErrUnauthorized       = &Error{Kind: Unauthorized}
)

// KindOf returns the kind of the first *Error in err's chain, or Internal
// when there is none.
func KindOf(err error) Kind {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Kind
	}
	return Internal
}

// From returns the first *Error in err's chain. Errors without one are
// wrapped as Internal.
func From(err error) *Error {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr
	}
	return Wrap(Internal, "internal server error", err)
}
