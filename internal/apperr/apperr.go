// Package apperr defines the error taxonomy surfaced to HTTP clients.
//
// Every failure that leaves the process is converted to an [*Error] before it
// is written, so callers always receive the same {error, code} envelope.
// Provider-internal detail stays in the wrapped Err and only reaches the logs.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Kind classifies an [Error].
type Kind int

const (
	// KindInternal is anything unanticipated. The client sees an opaque message.
	KindInternal Kind = iota

	// KindValidation is a malformed or out-of-range request field, or a
	// request that conflicts with the session's current state.
	KindValidation

	// KindNotFound references a session or resource with no retained state.
	KindNotFound

	// KindUpstream is a failure, timeout, or unusable payload from an
	// external collaborator.
	KindUpstream
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindUpstream:
		return "upstream"
	default:
		return "internal"
	}
}

// Generic client-facing messages. Upstream and internal errors never carry
// more than these.
const (
	msgUpstream = "upstream service failed"
	msgTimeout  = "upstream service timed out"
	msgInternal = "internal server error"
)

// Error is a classified application error.
type Error struct {
	// Kind selects the HTTP status family.
	Kind Kind

	// Code is the stable machine-readable code sent to the client.
	Code string

	// Message is the human-readable text sent to the client.
	Message string

	// Status overrides the status derived from Kind when non-zero.
	Status int

	// Err is the underlying cause. It is logged but never sent to the client.
	Err error
}

// Error implements error.
func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s (%s): %v", e.Message, e.Code, e.Err)
	}
	return fmt.Sprintf("%s (%s)", e.Message, e.Code)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error { return e.Err }

// HTTPStatus returns the response status for e.
func (e *Error) HTTPStatus() int {
	if e.Status != 0 {
		return e.Status
	}
	return HTTPStatus(e.Kind)
}

// HTTPStatus maps a [Kind] to its default response status.
func HTTPStatus(k Kind) int {
	switch k {
	case KindValidation:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUpstream:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Validation reports a rejected request field.
func Validation(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg}
}

// Conflict reports a well-formed request that the target's current state
// does not allow. It is a validation error answered with 409.
func Conflict(code, msg string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: msg, Status: http.StatusConflict}
}

// NotFound reports a missing session or resource.
func NotFound(code, msg string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: msg}
}

// Upstream reports a collaborator failure under code. A deadline in the
// chain becomes upstream_timeout with 504 regardless of code.
func Upstream(code string, err error) *Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &Error{Kind: KindUpstream, Code: CodeUpstreamTimeout, Message: msgTimeout, Status: http.StatusGatewayTimeout, Err: err}
	}
	return &Error{Kind: KindUpstream, Code: code, Message: msgUpstream, Err: err}
}

// Unavailable reports an endpoint whose collaborator is not configured.
// It answers 503 with the feature_unavailable code.
func Unavailable(msg string) *Error {
	return &Error{Kind: KindUpstream, Code: CodeFeatureDisabled, Message: msg, Status: http.StatusServiceUnavailable}
}

// Internal wraps an unanticipated error.
func Internal(err error) *Error {
	return &Error{Kind: KindInternal, Code: CodeInternal, Message: msgInternal, Err: err}
}

// From converts any error into an [*Error]. An [*Error] anywhere in the chain
// is returned as is.
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return Upstream(CodeUpstreamTimeout, err)
	}
	return Internal(err)
}

// IsKind reports whether err classifies as k.
func IsKind(err error, k Kind) bool {
	ae := From(err)
	return ae != nil && ae.Kind == k
}
