package client

import (
	"fmt"
	"net/http"
)

// ErrorClass represents a classification of registry errors.
type ErrorClass string

const (
	// ErrorClassAuth represents 401/403 responses.
	ErrorClassAuth ErrorClass = "auth"

	// ErrorClassClient represents other 4xx client errors.
	ErrorClassClient ErrorClass = "client"

	// ErrorClassServer represents 5xx server errors.
	ErrorClassServer ErrorClass = "server"

	// ErrorClassNetwork represents network/timeout errors.
	ErrorClassNetwork ErrorClass = "network"

	// ErrorClassDecode represents a 200 response with an unreadable body.
	ErrorClassDecode ErrorClass = "decode"

	// ErrorClassUnexpected represents any other non-200 status (1xx, 2xx, 3xx).
	ErrorClassUnexpected ErrorClass = "unexpected"
)

// UpstreamError is returned for every non-200 listing response.
type UpstreamError struct {
	StatusCode int
	Body       string

	// Page is the zero-based page index that failed.
	Page       int
	ErrorClass ErrorClass
}

// Error implements the error interface.
func (e *UpstreamError) Error() string {
	return fmt.Sprintf("API error on page %d: %d - %s", e.Page, e.StatusCode, e.Body)
}

// IsUnauthorized reports whether the upstream rejected the credential.
func (e *UpstreamError) IsUnauthorized() bool {
	return e.StatusCode == http.StatusUnauthorized
}

// classifyStatus categorizes a non-200 status for observability.
func classifyStatus(status int) ErrorClass {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrorClassAuth
	case status >= 400 && status < 500:
		return ErrorClassClient
	case status >= 500:
		return ErrorClassServer
	default:
		return ErrorClassUnexpected
	}
}
