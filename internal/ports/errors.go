package ports

import (
	"errors"
	"fmt"
)

// ErrCapabilityUnavailable is wrapped by every CapabilityError.
var ErrCapabilityUnavailable = errors.New("capability unavailable")

// CapabilityError reports a capability that is missing and could not be loaded.
// Message is supplied by the caller and may be empty.
type CapabilityError struct {
	Name    string
	Message string
	Err     error
}

func (e *CapabilityError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (%v)", ErrCapabilityUnavailable, e.Name, e.Err)
	}
	return fmt.Sprintf("%s: %s", ErrCapabilityUnavailable, e.Name)
}

func (e *CapabilityError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrCapabilityUnavailable, e.Err}
	}
	return []error{ErrCapabilityUnavailable}
}
