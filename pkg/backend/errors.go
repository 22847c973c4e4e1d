package backend

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrNotProvisioned  = errors.New("subscription not provisioned")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrGatewayFailure  = errors.New("backend gateway failure")
	ErrRejected        = errors.New("request rejected by backend")
	ErrInvalidConfig   = errors.New("invalid backend configuration")
	ErrDecodeResponse  = errors.New("failed to decode backend response")
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s %s: %d %s: %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode), e.Message)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap maps the status code onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == http.StatusUnauthorized, e.StatusCode == http.StatusForbidden:
		return ErrUnauthenticated
	case e.StatusCode >= 500, e.StatusCode == http.StatusTooManyRequests:
		return ErrGatewayFailure
	default:
		return ErrRejected
	}
}

// IsStatus reports whether err carries the given HTTP status code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}
