package query

import "fmt"

// InputError reports an invalid user-supplied filter. It is always raised
// before any network activity.
type InputError struct {
	// Field names the offending parameter ("from", "to", "limit", ...).
	Field   string
	Message string
	Err     error
}

// Error implements the error interface.
func (e *InputError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid %s: %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *InputError) Unwrap() error {
	return e.Err
}
