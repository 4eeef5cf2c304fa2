package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by the typed errors below.
var (
	// ErrConfiguration marks invalid or unknown configuration. Not retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrPrecondition marks input that violates an ordering contract.
	ErrPrecondition = errors.New("precondition violated")
)

// ConfigurationError is returned for unknown networks and invalid query configuration.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

func (e *ConfigurationError) Unwrap() error {
	return ErrConfiguration
}

// PreconditionError is returned when a sequence is not in ascending timestamp order.
type PreconditionError struct {
	Stage     string
	Index     int
	Timestamp int64
	Previous  int64
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("%s: timestamps must be strictly ascending: index %d has %d after %d",
		e.Stage, e.Index, e.Timestamp, e.Previous)
}

func (e *PreconditionError) Unwrap() error {
	return ErrPrecondition
}
