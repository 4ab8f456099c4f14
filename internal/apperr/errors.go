package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

// Type classifies an Error for transport mapping
type Type uint

const (
	TypeUnknown Type = iota
	TypeValidation
	TypeNotFound
	TypeInternal
	TypeUnavailable
	TypeRateLimit
)

// Error is an application error carrying a stable code for clients
type Error struct {
	Type    Type
	Code    string
	Message string
	Details map[string]interface{}
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches another *Error with the same code, so copies made by
// WithDetails or Wrap still compare equal to their sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// StatusCode maps the error type to an HTTP status
func (e *Error) StatusCode() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeUnavailable:
		return http.StatusServiceUnavailable
	case TypeRateLimit:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// New creates an error of the given type
func New(t Type, code, message string) *Error {
	return &Error{Type: t, Code: code, Message: message}
}

// WithDetails returns a copy of e carrying details
func (e *Error) WithDetails(details map[string]interface{}) *Error {
	c := *e
	c.Details = details
	return &c
}

// Wrap returns a copy of e wrapping err
func (e *Error) Wrap(err error) *Error {
	c := *e
	c.Err = err
	return &c
}

// Common constructors
func NewValidationError(code, message string) *Error {
	return New(TypeValidation, code, message)
}

func NewInternalError(message string, err error) *Error {
	return &Error{Type: TypeInternal, Code: "INTERNAL_ERROR", Message: message, Err: err}
}

func NewRateLimitError(message string) *Error {
	return New(TypeRateLimit, "RATE_LIMIT_EXCEEDED", message)
}

// From extracts an *Error from err, falling back to an internal error
func From(err error) *Error {
	var e *Error
	if errors.As(err, &e) {
		return e
	}
	return NewInternalError("Internal error", err)
}

// Response is the JSON body sent for a failed request
type Response struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewResponse builds the client view of err. Internal causes are not exposed.
func NewResponse(err *Error) Response {
	msg := err.Message
	if err.Type == TypeValidation || err.Type == TypeUnavailable || err.Type == TypeRateLimit {
		msg = err.Error()
	}
	return Response{Error: msg, Code: err.Code, Details: err.Details}
}
