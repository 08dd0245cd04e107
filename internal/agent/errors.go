package agent

import "errors"

// Sentinel errors for the agent package.
var (
	// ErrUnknownAgent is returned when no backend is registered under a name.
	ErrUnknownAgent = errors.New("unknown agent")

	// ErrInvalidDefinition is returned for backend definitions missing a name or binary.
	ErrInvalidDefinition = errors.New("invalid agent definition")
)
