// Package loop drives an agent repeatedly over a workspace backlog.
//
// Each iteration reads the workspace fresh, stops when no unchecked task
// remains or the budget denies another run, otherwise invokes the agent once
// with the composed prompt and reports what changed in the repository.
// Iterations are strictly sequential.
package loop

import (
	"context"
	"fmt"
	"time"

	"github.com/r0-loop/r0/internal/agent"
	"github.com/r0-loop/r0/internal/backlog"
	"github.com/r0-loop/r0/internal/budget"
	"github.com/r0-loop/r0/internal/vcs"
	"github.com/r0-loop/r0/internal/workspace"
)

const (
	// DefaultPollInterval is how often diff stats are sampled during a run.
	DefaultPollInterval = 2 * time.Second

	// DefaultIterationDelay is the pause between iterations.
	DefaultIterationDelay = time.Second
)

// User-facing messages.
const (
	MsgAllTasksCompleted = "All tasks completed!"
	MsgNoNewCommit       = "No new commit detected"
	MsgIterationComplete = "Iteration complete"
	MsgAgentFailed       = "Agent failed"
)

// Source supplies the workspace files for each iteration.
type Source interface {
	Read() (workspace.Snapshot, error)
}

// Display presents loop progress. UpdateStats is called from the poller
// goroutine; every other method is called from the loop goroutine.
type Display interface {
	Progress(completed, total int)
	StartIteration()
	UpdateStats(stats vcs.Stats)
	Succeed(message string, stats vcs.Stats)
	Warn(message string, stats vcs.Stats)
	Fail(message string)
	StopIteration()
	AgentOutput(output string)
	Blank()
	Done(message string)
	Notice(message string)
	Interrupted()
}

// Options tune the controller. Zero values select the defaults.
type Options struct {
	PollInterval   time.Duration
	IterationDelay time.Duration

	// MaxIterations caps successful iterations; 0 means unlimited.
	MaxIterations int

	// OnTransition is called on every phase change.
	OnTransition func(from, to Phase)

	// Logf receives diagnostic lines.
	Logf func(format string, args ...any)

	// Sleep waits between iterations and returns early with ctx.Err() when
	// ctx is cancelled.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Controller runs the loop. A Controller is used for a single Run.
type Controller struct {
	source    Source
	agent     agent.Agent
	budget    *budget.Limiter
	inspector vcs.Inspector
	display   Display
	opts      Options

	phase      Phase
	iterations int
}

// New creates a Controller.
func New(source Source, ag agent.Agent, limiter *budget.Limiter, inspector vcs.Inspector, display Display, opts Options) *Controller {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.IterationDelay < 0 {
		opts.IterationDelay = 0
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.Logf == nil {
		opts.Logf = func(string, ...any) {}
	}
	return &Controller{
		source:    source,
		agent:     ag,
		budget:    limiter,
		inspector: inspector,
		display:   display,
		opts:      opts,
		phase:     PhaseIdle,
	}
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	return c.phase
}

// Run loops until the backlog is done, the budget is exhausted, the agent
// fails, the workspace cannot be read or ctx is cancelled. The returned error
// is Outcome.Err.
//
// Cancelling ctx does not stop an agent that is already running: the
// controller waits for it to exit, then returns Interrupted without counting
// the iteration against the budget.
func (c *Controller) Run(ctx context.Context) (Outcome, error) {
	for {
		if ctx.Err() != nil {
			return c.interrupted()
		}

		c.transition(PhaseReadState)
		snap, err := c.source.Read()
		if err != nil {
			return c.finish(ReasonFailed, "", fmt.Errorf("read workspace: %w", err))
		}
		state := backlog.Parse(snap.Backlog)
		c.opts.Logf("backlog: %d/%d tasks complete\n", state.CompletedCount, state.TotalCount)

		c.transition(PhaseCheckTermination)
		if !backlog.HasRemainingTasks(state) {
			c.display.Progress(state.CompletedCount, state.TotalCount)
			c.display.Done(MsgAllTasksCompleted)
			return c.finish(ReasonCompleted, MsgAllTasksCompleted, nil)
		}
		if c.opts.MaxIterations > 0 && c.iterations >= c.opts.MaxIterations {
			msg := fmt.Sprintf("Reached max iterations (%d).", c.opts.MaxIterations)
			c.display.Progress(state.CompletedCount, state.TotalCount)
			c.display.Notice(msg)
			return c.finish(ReasonCompleted, msg, nil)
		}
		if decision := c.budget.Check(); !decision.Allowed {
			c.display.Progress(state.CompletedCount, state.TotalCount)
			c.display.Notice(decision.Reason)
			return c.finish(ReasonBudgetExhausted, decision.Reason, nil)
		}
		c.display.Progress(state.CompletedCount, state.TotalCount)
		if ctx.Err() != nil {
			return c.interrupted()
		}

		c.transition(PhaseInvoking)
		if next, ok := backlog.NextTask(state); ok {
			c.opts.Logf("iteration %d: next task %q\n", c.iterations+1, next.Text)
		}
		result, before := c.invoke(ctx, snap)

		c.transition(PhaseObserving)
		if ctx.Err() != nil {
			c.display.StopIteration()
			return c.interrupted()
		}
		if !result.Success {
			c.display.Fail(MsgAgentFailed)
			if result.Output != "" {
				c.display.AgentOutput(result.Output)
			}
			return c.finish(ReasonAgentFailed, MsgAgentFailed, &AgentError{
				Iteration: c.iterations + 1,
				Output:    result.Output,
			})
		}
		c.observe(context.WithoutCancel(ctx), before, result)

		c.budget.Increment()
		c.iterations++
		c.transition(PhaseIdle)

		if err := c.opts.Sleep(ctx, c.opts.IterationDelay); err != nil {
			return c.interrupted()
		}
	}
}

// invoke runs the agent with the poller active and returns its result and
// the head revision captured beforehand.
func (c *Controller) invoke(ctx context.Context, snap workspace.Snapshot) (agent.Result, string) {
	before, _ := c.inspector.HeadRevision(ctx)
	prompt := ComposePrompt(snap.Prompt, snap.Notepad, snap.Backlog)

	c.display.StartIteration()
	poller := startPoller(ctx, c.opts.PollInterval, c.inspector, c.display.UpdateStats)
	defer poller.Stop()

	return c.agent.Run(context.WithoutCancel(ctx), prompt), before
}

// observe reports a successful iteration.
func (c *Controller) observe(ctx context.Context, before string, result agent.Result) {
	stats := c.inspector.CombinedStats(ctx)
	after, ok := c.inspector.HeadRevision(ctx)

	if ok && after != before {
		summary, ok := c.inspector.LastCommitSummary(ctx)
		if !ok {
			summary = MsgIterationComplete
		}
		c.display.Succeed(summary, stats)
	} else {
		c.display.Warn(MsgNoNewCommit, stats)
	}

	if result.Output != "" {
		c.display.AgentOutput(result.Output)
	}
	c.display.Blank()
}

func (c *Controller) interrupted() (Outcome, error) {
	c.display.Interrupted()
	return c.finish(ReasonInterrupted, "Interrupted", nil)
}

func (c *Controller) finish(reason Reason, message string, err error) (Outcome, error) {
	c.transition(reason.phase())
	return Outcome{
		Reason:     reason,
		Iterations: c.iterations,
		Message:    message,
		Err:        err,
	}, err
}

func (c *Controller) transition(to Phase) {
	from := c.phase
	c.phase = to
	c.opts.Logf("phase: %s -> %s\n", from, to)
	if c.opts.OnTransition != nil {
		c.opts.OnTransition(from, to)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
