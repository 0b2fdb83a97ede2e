package auth

import (
	"errors"
	"fmt"
)

// ErrMissingToken is returned when a successful handshake carries no token.
var ErrMissingToken = errors.New("authorization header missing from response")

// AuthError reports a failed credential acquisition.
type AuthError struct {
	// StatusCode is the handshake HTTP status, 0 when no response was received.
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *AuthError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("registry auth error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("registry auth error (status %d): %s", e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AuthError) Unwrap() error {
	return e.Err
}
