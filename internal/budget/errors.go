package budget

import (
	"errors"
	"fmt"
)

// Sentinel errors for the budget package.
var (
	// ErrInvalidLimit is returned when a configured limit is not a positive integer.
	ErrInvalidLimit = errors.New("budget limit must be a positive integer")
)

// LimitError reports a rejected user-supplied limit, e.g. a CLI flag value.
type LimitError struct {
	Name  string
	Value string
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("Invalid %s: %s. Must be a positive integer.", e.Name, e.Value)
}

func (e *LimitError) Unwrap() error { return ErrInvalidLimit }
