package transport

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures that happen below the API layer.
type ErrorKind string

const (
	// SocketError covers connect, handshake, write and read failures.
	SocketError ErrorKind = "socket_error"
	// SSLError means the server certificate is not pinned.
	SSLError ErrorKind = "ssl_error"
	// JSONError means a body that had to be JSON could not be parsed.
	JSONError ErrorKind = "json_error"
)

// Error is a transport-level failure.
type Error struct {
	Kind   ErrorKind
	Detail string
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transport: %s: %s: %v", e.Kind, e.Detail, e.Err)
	}
	return fmt.Sprintf("transport: %s: %s", e.Kind, e.Detail)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether err is a transport Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var te *Error
	return errors.As(err, &te) && te.Kind == kind
}

// Canonical names for errors the server signals through status codes alone.
const (
	NameUnauthorized        = "unauthorized"
	NameForbidden           = "forbidden"
	NameMethodNotAllowed    = "method_not_allowed"
	NameServiceUnavailable  = "service_unavailable"
	NameInternalServerError = "internal_server_error"
)

// APIError is an error reported by the API server.
type APIError struct {
	Code        int    `json:"code"`
	Name        string `json:"name"`
	Message     string `json:"message"`
	Description string `json:"description"`

	// HTTPStatus is the status code of the response that carried the error.
	HTTPStatus int `json:"-"`
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("figo: %s: %s (Error-Code: %d, HTTP %d)", e.Name, e.Message, e.Code, e.HTTPStatus)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	return msg
}

// AsAPIError extracts an *APIError from err.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

// IsUnauthorized reports a missing, invalid or expired access token.
func IsUnauthorized(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.HTTPStatus == http.StatusUnauthorized
}

// IsForbidden reports insufficient permissions.
func IsForbidden(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.HTTPStatus == http.StatusForbidden
}

// IsRateLimited reports a 503, which the API uses for rate limiting.
func IsRateLimited(err error) bool {
	apiErr, ok := AsAPIError(err)
	return ok && apiErr.Name == NameServiceUnavailable
}

// statusFallbacks are used when the server omits an error body or sends one
// without a name.
var statusFallbacks = map[int]APIError{
	http.StatusUnauthorized:     {Name: NameUnauthorized, Message: "Missing, invalid or expired access token."},
	http.StatusForbidden:        {Name: NameForbidden, Message: "Insufficient permission."},
	http.StatusMethodNotAllowed: {Name: NameMethodNotAllowed, Message: "Unexpected request method."},
}

func serviceUnavailable() *APIError {
	return &APIError{
		Name:       NameServiceUnavailable,
		Message:    "Exceeded rate limit.",
		HTTPStatus: http.StatusServiceUnavailable,
	}
}

func internalServerError(status int) *APIError {
	return &APIError{
		Name:       NameInternalServerError,
		Message:    "We are very sorry, but something went wrong.",
		HTTPStatus: status,
	}
}
