package loop

import (
	"errors"
	"fmt"
)

// ErrAgentFailed is wrapped by AgentError.
var ErrAgentFailed = errors.New("agent failed")

// AgentError reports an agent run that exited unsuccessfully. Output holds
// the text the agent produced, already shown to the user.
type AgentError struct {
	Iteration int
	Output    string
}

func (e *AgentError) Error() string {
	return fmt.Sprintf("agent failed on iteration %d", e.Iteration)
}

func (e *AgentError) Unwrap() error { return ErrAgentFailed }
