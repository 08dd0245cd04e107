package loop

// Phase is a step of the controller state machine.
type Phase int

const (
	PhaseIdle Phase = iota
	PhaseReadState
	PhaseCheckTermination
	PhaseInvoking
	PhaseObserving
	PhaseCompleted
	PhaseBudgetExhausted
	PhaseAgentFailed
	PhaseInterrupted
	PhaseFailed
)

var phaseNames = [...]string{
	PhaseIdle:             "idle",
	PhaseReadState:        "read-state",
	PhaseCheckTermination: "check-termination",
	PhaseInvoking:         "invoking",
	PhaseObserving:        "observing",
	PhaseCompleted:        "completed",
	PhaseBudgetExhausted:  "budget-exhausted",
	PhaseAgentFailed:      "agent-failed",
	PhaseInterrupted:      "interrupted",
	PhaseFailed:           "failed",
}

func (p Phase) String() string {
	if p < 0 || int(p) >= len(phaseNames) {
		return "unknown"
	}
	return phaseNames[p]
}

// IsTerminal reports whether the run ends in p.
func (p Phase) IsTerminal() bool {
	switch p {
	case PhaseCompleted, PhaseBudgetExhausted, PhaseAgentFailed, PhaseInterrupted, PhaseFailed:
		return true
	default:
		return false
	}
}

// Reason explains why a run ended.
type Reason int

const (
	// ReasonCompleted means no unchecked tasks remain, or the iteration cap was hit.
	ReasonCompleted Reason = iota
	// ReasonBudgetExhausted means the hourly or daily limit denied an iteration.
	ReasonBudgetExhausted
	// ReasonAgentFailed means the agent exited unsuccessfully.
	ReasonAgentFailed
	// ReasonInterrupted means the run context was cancelled.
	ReasonInterrupted
	// ReasonFailed means the workspace could not be read.
	ReasonFailed
)

func (r Reason) String() string {
	switch r {
	case ReasonCompleted:
		return "completed"
	case ReasonBudgetExhausted:
		return "budget-exhausted"
	case ReasonAgentFailed:
		return "agent-failed"
	case ReasonInterrupted:
		return "interrupted"
	case ReasonFailed:
		return "failed"
	default:
		return "unknown"
	}
}

func (r Reason) phase() Phase {
	switch r {
	case ReasonBudgetExhausted:
		return PhaseBudgetExhausted
	case ReasonAgentFailed:
		return PhaseAgentFailed
	case ReasonInterrupted:
		return PhaseInterrupted
	case ReasonFailed:
		return PhaseFailed
	default:
		return PhaseCompleted
	}
}

// Outcome is the result of a run.
type Outcome struct {
	Reason     Reason
	Iterations int
	Message    string
	Err        error
}
