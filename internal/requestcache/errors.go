package requestcache

import (
	"errors"
	"fmt"
)

var (
	// ErrNetwork indicates a transport-level failure before any response arrived.
	ErrNetwork = errors.New("network error")

	// ErrInvalidResponse indicates a response body that could not be decoded.
	ErrInvalidResponse = errors.New("invalid response body")

	ErrNotFound    = errors.New("resource not found")
	ErrAuth        = errors.New("authentication failed")
	ErrRateLimited = errors.New("rate limited")
	ErrServer      = errors.New("server error")
)

// StatusError is returned for non-2xx HTTP responses. It unwraps to the
// sentinel matching its status code so callers can use errors.Is.
type StatusError struct {
	StatusCode int
	URL        string
}

// Error implements the error interface.
func (e *StatusError) Error() string {
	return fmt.Sprintf("request to %s failed with status %d", e.URL, e.StatusCode)
}

// Unwrap maps the status code onto the package sentinels.
func (e *StatusError) Unwrap() error {
	switch {
	case e.StatusCode == 404:
		return ErrNotFound
	case e.StatusCode == 401 || e.StatusCode == 403:
		return ErrAuth
	case e.StatusCode == 429:
		return ErrRateLimited
	case e.StatusCode >= 500:
		return ErrServer
	default:
		return nil
	}
}
