package polly

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a failed operation. The values are stable strings so
// they can be logged and compared across process boundaries.
type ErrorKind string

// Failure kinds returned by client operations.
const (
	// KindValidation indicates the arguments were rejected before any
	// request was sent.
	KindValidation ErrorKind = "validation_error"
	// KindAuthRequired indicates the operation needs a bearer token and
	// none is stored on the client.
	KindAuthRequired ErrorKind = "authentication_required"
	// KindBadRequest indicates the server rejected the request (HTTP 400).
	KindBadRequest ErrorKind = "bad_request"
	// KindUnauthorized indicates the server rejected the credentials or
	// token (HTTP 401).
	KindUnauthorized ErrorKind = "unauthorized"
	// KindNotFound indicates the requested resource does not exist (HTTP 404).
	KindNotFound ErrorKind = "not_found"
	// KindServer covers every other non-success HTTP status.
	KindServer ErrorKind = "server_error"
	// KindNetwork indicates the request never produced an HTTP response.
	KindNetwork ErrorKind = "network_error"
	// KindUnexpected covers failures outside the normal taxonomy, such as a
	// custom API implementation returning an unclassified error during
	// pagination.
	KindUnexpected ErrorKind = "unexpected_error"
)

// Error is the single error type returned by client operations.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Message is a human-readable description. For HTTP failures it carries
	// the server's detail message when one was present.
	Message string
	// StatusCode is the HTTP status of the response, or zero when no
	// response was received.
	StatusCode int
	// Details holds the raw response body for failure kinds that keep it
	// (bad_request and server_error).
	Details json.RawMessage

	err error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("polly: %s (status %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("polly: %s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying transport error, if any.
func (e *Error) Unwrap() error {
	return e.err
}

// IsNotFound checks if the error indicates a missing resource.
func (e *Error) IsNotFound() bool {
	return e.Kind == KindNotFound
}

// IsUnauthorized checks if the error indicates rejected credentials.
func (e *Error) IsUnauthorized() bool {
	return e.Kind == KindUnauthorized
}

// IsAuthRequired checks if the error indicates a missing login.
func (e *Error) IsAuthRequired() bool {
	return e.Kind == KindAuthRequired
}

// IsKind reports whether err is a *polly.Error of the given kind.
func IsKind(err error, kind ErrorKind) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == kind
}

func newValidationError(message string) *Error {
	return &Error{Kind: KindValidation, Message: message}
}

func newAuthRequiredError(message string) *Error {
	return &Error{Kind: KindAuthRequired, Message: message}
}
