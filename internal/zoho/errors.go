package zoho

import (
	"errors"
	"fmt"
)

// Common remote-API errors
var (
	// ErrAuthFailed is returned when the refresh-token exchange is rejected.
	// Authentication failures are fatal for the whole run; callers must not
	// retry per-document.
	ErrAuthFailed = errors.New("zoho authentication failed")

	// ErrMissingCredentials is returned when the client is constructed
	// without the full credential set.
	ErrMissingCredentials = errors.New("missing zoho credentials")
)

// APIError carries the remote error body for a non-2xx Books API response.
type APIError struct {
	// Endpoint is the request path that failed.
	Endpoint string

	// StatusCode is the HTTP status of the response.
	StatusCode int

	// Code is the Books application error code, when the body was parseable.
	Code int

	// Message is the remote error message, or the raw body when not JSON.
	Message string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("zoho: %s failed (HTTP %d, code %d): %s", e.Endpoint, e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("zoho: %s failed (HTTP %d): %s", e.Endpoint, e.StatusCode, e.Message)
}
