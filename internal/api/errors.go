package api

import (
	"errors"
	"fmt"
)

// NetworkError means the scoring server could not be reached or refused the request.
// StatusCode is set when the server answered with a non-2xx status.
type NetworkError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("api %s %s: status %d: %v", e.Method, e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("api %s %s: %v", e.Method, e.Endpoint, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError means the server answered but the body could not be decoded.
type ProtocolError struct {
	Endpoint string
	Body     string
	Err      error
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("api %s: malformed response %q: %v", e.Endpoint, e.Body, e.Err)
}

func (e *ProtocolError) Unwrap() error { return e.Err }

// AsNetworkError attempts to unwrap an error into a NetworkError.
func AsNetworkError(err error) (*NetworkError, bool) {
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr, true
	}
	return nil, false
}

// AsProtocolError attempts to unwrap an error into a ProtocolError.
func AsProtocolError(err error) (*ProtocolError, bool) {
	var protoErr *ProtocolError
	if errors.As(err, &protoErr) {
		return protoErr, true
	}
	return nil, false
}

// IsNetworkError reports whether err wraps a NetworkError.
func IsNetworkError(err error) bool {
	_, ok := AsNetworkError(err)
	return ok
}

// IsProtocolError reports whether err wraps a ProtocolError.
func IsProtocolError(err error) bool {
	_, ok := AsProtocolError(err)
	return ok
}

func newProtocolError(endpoint string, body []byte, err error) *ProtocolError {
	return &ProtocolError{Endpoint: endpoint, Body: excerpt(body), Err: err}
}

func excerpt(body []byte) string {
	if len(body) > maxErrorExcerpt {
		body = body[:maxErrorExcerpt]
	}
	return string(body)
}
