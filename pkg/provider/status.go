// Package provider holds helpers shared by the LLM, STT and TTS provider
// packages. The sub-packages define the per-service interfaces.
package provider

import (
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned by HTTP-based providers when the remote service
// answers with a non-success status code.
type StatusError struct {
	// Service names the remote service ("clova", "openai-stt", ...).
	Service string

	// StatusCode is the HTTP status returned by the service.
	StatusCode int

	// Message is a short excerpt of the response body, if any.
	Message string
}

// Error implements error.
func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s: HTTP %d", e.Service, e.StatusCode)
	}
	return fmt.Sprintf("%s: HTTP %d: %s", e.Service, e.StatusCode, e.Message)
}

// Temporary reports whether the status is worth retrying: 429 and the 5xx
// gateway family.
func (e *StatusError) Temporary() bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// statusCoder is implemented by SDK errors that expose their HTTP status,
// such as *openai.Error.
type statusCoder interface {
	error
	HTTPStatus() int
}

// Retryable reports whether err wraps a [StatusError] (or another error carrying
// an HTTP status) whose status is 429 or a retryable 5xx.
func Retryable(err error) bool {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Temporary()
	}
	var sc statusCoder
	if errors.As(err, &sc) {
		return (&StatusError{StatusCode: sc.HTTPStatus()}).Temporary()
	}
	return false
}

// BodyExcerpt trims a response body to at most 200 bytes for inclusion in a
// StatusError.
func BodyExcerpt(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max])
	}
	return string(body)
}
