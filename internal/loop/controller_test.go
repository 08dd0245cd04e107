package loop

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/r0-loop/r0/internal/agent"
	"github.com/r0-loop/r0/internal/budget"
	"github.com/r0-loop/r0/internal/vcs"
	"github.com/r0-loop/r0/internal/workspace"
)

// recordingDisplay captures display calls as readable events.
type recordingDisplay struct {
	mu          sync.Mutex
	events      []string
	statUpdates int
}

func (d *recordingDisplay) record(format string, args ...any) {
	d.mu.Lock()
	d.events = append(d.events, fmt.Sprintf(format, args...))
	d.mu.Unlock()
}

func (d *recordingDisplay) Progress(completed, total int) { d.record("progress %d/%d", completed, total) }
func (d *recordingDisplay) StartIteration()               { d.record("start") }
func (d *recordingDisplay) UpdateStats(vcs.Stats) {
	d.mu.Lock()
	d.statUpdates++
	d.mu.Unlock()
}
func (d *recordingDisplay) Succeed(msg string, s vcs.Stats) { d.record("succeed %s (%d files)", msg, s.FilesChanged) }
func (d *recordingDisplay) Warn(msg string, s vcs.Stats)    { d.record("warn %s (%d files)", msg, s.FilesChanged) }
func (d *recordingDisplay) Fail(msg string)                 { d.record("fail %s", msg) }
func (d *recordingDisplay) StopIteration()                  { d.record("stop") }
func (d *recordingDisplay) AgentOutput(out string)          { d.record("output %s", out) }
func (d *recordingDisplay) Blank()                          {}
func (d *recordingDisplay) Done(msg string)                 { d.record("done %s", msg) }
func (d *recordingDisplay) Notice(msg string)               { d.record("notice %s", msg) }
func (d *recordingDisplay) Interrupted()                    { d.record("interrupted") }

func (d *recordingDisplay) Events() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]string(nil), d.events...)
}

func (d *recordingDisplay) StatUpdates() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.statUpdates
}

type fixture struct {
	ws        *workspace.Workspace
	display   *recordingDisplay
	inspector *vcs.MockInspector
	limiter   *budget.Limiter
	now       time.Time
	head      int
}

func newFixture(t *testing.T, backlogContent string, cfg budget.Config) *fixture {
	t.Helper()
	ws := workspace.New(workspace.WithRoot(t.TempDir()))
	require.NoError(t, os.MkdirAll(ws.Dir(), 0o755))
	require.NoError(t, os.WriteFile(ws.Path(workspace.PromptFile), []byte("Do the work."), 0o644))
	require.NoError(t, os.WriteFile(ws.Path(workspace.BacklogFile), []byte(backlogContent), 0o644))
	require.NoError(t, os.WriteFile(ws.Path(workspace.NotepadFile), []byte("notes"), 0o644))

	f := &fixture{
		ws:      ws,
		display: &recordingDisplay{},
		now:     time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC),
	}
	f.limiter = budget.NewLimiter(cfg, func() time.Time { return f.now })
	f.inspector = &vcs.MockInspector{
		HeadRevisionFunc: func(context.Context) (string, bool) {
			return fmt.Sprintf("rev%d", f.head), true
		},
		LastCommitSummaryFunc: func(context.Context) (string, bool) {
			return fmt.Sprintf("feat: commit %d", f.head), true
		},
	}
	return f
}

func (f *fixture) controller(ag agent.Agent, opts Options) *Controller {
	if opts.Sleep == nil {
		opts.Sleep = func(ctx context.Context, _ time.Duration) error { return ctx.Err() }
	}
	return New(f.ws, ag, f.limiter, f.inspector, f.display, opts)
}

// completeNext checks the first unchecked box in the backlog file.
func (f *fixture) completeNext(t *testing.T) {
	t.Helper()
	data, err := os.ReadFile(f.ws.Path(workspace.BacklogFile))
	require.NoError(t, err)
	updated := strings.Replace(string(data), "[ ]", "[x]", 1)
	require.NoError(t, os.WriteFile(f.ws.Path(workspace.BacklogFile), []byte(updated), 0o644))
}

func TestRun_CompletesBacklog(t *testing.T) {
	f := newFixture(t, "- [ ] first\n- [ ] second\n", budget.Config{})

	var prompts []string
	ag := agent.Func(func(_ context.Context, prompt string) agent.Result {
		prompts = append(prompts, prompt)
		f.completeNext(t)
		f.head++
		return agent.Result{Success: true}
	})

	var transitions []string
	out, err := f.controller(ag, Options{
		OnTransition: func(from, to Phase) { transitions = append(transitions, to.String()) },
	}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReasonCompleted, out.Reason)
	assert.Equal(t, 2, out.Iterations)
	assert.Equal(t, MsgAllTasksCompleted, out.Message)
	require.Len(t, prompts, 2)
	assert.Contains(t, prompts[0], "- [ ] first\n- [ ] second")
	assert.Contains(t, prompts[1], "- [x] first\n- [ ] second")
	assert.Equal(t, 2, f.limiter.State().HourlyCount)

	assert.Equal(t, []string{
		"progress 0/2", "start", "succeed feat: commit 1 (0 files)",
		"progress 1/2", "start", "succeed feat: commit 2 (0 files)",
		"progress 2/2", "done All tasks completed!",
	}, f.display.Events())

	assert.Equal(t, []string{
		"read-state", "check-termination", "invoking", "observing", "idle",
		"read-state", "check-termination", "invoking", "observing", "idle",
		"read-state", "check-termination", "completed",
	}, transitions)
}

func TestRun_EmptyBacklogCompletesImmediately(t *testing.T) {
	f := newFixture(t, "# nothing here\n", budget.Config{})
	calls := 0
	ag := agent.Func(func(context.Context, string) agent.Result {
		calls++
		return agent.Result{Success: true}
	})

	out, err := f.controller(ag, Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReasonCompleted, out.Reason)
	assert.Zero(t, calls)
	assert.Equal(t, []string{"progress 0/0", "done All tasks completed!"}, f.display.Events())
}

func TestRun_AgentFailureStopsWithoutCharging(t *testing.T) {
	f := newFixture(t, "[ ] a\n[ ] b\n", budget.Config{})
	calls := 0
	ag := agent.Func(func(context.Context, string) agent.Result {
		calls++
		return agent.Result{Output: "rate limited"}
	})

	c := f.controller(ag, Options{})
	out, err := c.Run(context.Background())

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrAgentFailed))
	var agentErr *AgentError
	require.True(t, errors.As(err, &agentErr))
	assert.Equal(t, "rate limited", agentErr.Output)
	assert.Equal(t, 1, agentErr.Iteration)

	assert.Equal(t, ReasonAgentFailed, out.Reason)
	assert.Equal(t, PhaseAgentFailed, c.Phase())
	assert.Equal(t, 1, calls)
	assert.Zero(t, f.limiter.State().HourlyCount)
	assert.Equal(t, []string{"progress 0/2", "start", "fail Agent failed", "output rate limited"}, f.display.Events())
}

func TestRun_BudgetExhausted(t *testing.T) {
	f := newFixture(t, "[ ] a\n[ ] b\n[ ] c\n", budget.Config{HourlyLimit: budget.Limit(2)})
	calls := 0
	ag := agent.Func(func(context.Context, string) agent.Result {
		calls++
		f.completeNext(t)
		f.head++
		f.now = f.now.Add(10 * time.Minute)
		return agent.Result{Success: true}
	})

	out, err := f.controller(ag, Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReasonBudgetExhausted, out.Reason)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 2, out.Iterations)
	assert.Equal(t, "Hourly budget exhausted (2). Resets in 40 minutes.", out.Message)
	events := f.display.Events()
	assert.Equal(t, []string{"progress 2/3", "notice " + out.Message}, events[len(events)-2:])
}

func TestRun_NoCommitWarnsAndContinues(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	f.inspector.CombinedStatsFunc = func(context.Context) vcs.Stats {
		return vcs.Stats{FilesChanged: 3, Insertions: 5}
	}
	ag := agent.Func(func(context.Context, string) agent.Result {
		f.completeNext(t)
		return agent.Result{Success: true, Output: "edited files"}
	})

	out, err := f.controller(ag, Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReasonCompleted, out.Reason)
	assert.Equal(t, []string{
		"progress 0/1", "start", "warn No new commit detected (3 files)", "output edited files",
		"progress 1/1", "done All tasks completed!",
	}, f.display.Events())
}

func TestRun_NewCommitWithoutSummary(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	f.inspector.LastCommitSummaryFunc = nil
	ag := agent.Func(func(context.Context, string) agent.Result {
		f.completeNext(t)
		f.head++
		return agent.Result{Success: true}
	})

	_, err := f.controller(ag, Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, f.display.Events(), "succeed Iteration complete (0 files)")
}

func TestRun_FirstCommitInEmptyRepository(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	committed := false
	f.inspector.HeadRevisionFunc = func(context.Context) (string, bool) {
		if !committed {
			return "", false
		}
		return "abc", true
	}
	ag := agent.Func(func(context.Context, string) agent.Result {
		f.completeNext(t)
		committed = true
		return agent.Result{Success: true}
	})

	_, err := f.controller(ag, Options{}).Run(context.Background())

	require.NoError(t, err)
	assert.Contains(t, f.display.Events(), "succeed feat: commit 0 (0 files)")
}

func TestRun_MaxIterations(t *testing.T) {
	f := newFixture(t, "[ ] a\n[ ] b\n", budget.Config{})
	calls := 0
	ag := agent.Func(func(context.Context, string) agent.Result {
		calls++
		return agent.Result{Success: true}
	})

	out, err := f.controller(ag, Options{MaxIterations: 3}).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, ReasonCompleted, out.Reason)
	assert.Equal(t, 3, calls)
	assert.Equal(t, "Reached max iterations (3).", out.Message)
}

func TestRun_InterruptedBeforeFirstIteration(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	calls := 0
	ag := agent.Func(func(context.Context, string) agent.Result {
		calls++
		return agent.Result{Success: true}
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out, err := f.controller(ag, Options{}).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, ReasonInterrupted, out.Reason)
	assert.Zero(t, calls)
	assert.Equal(t, []string{"interrupted"}, f.display.Events())
}

func TestRun_InterruptedDuringAgentWaitsForIt(t *testing.T) {
	f := newFixture(t, "[ ] a\n[ ] b\n", budget.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var agentCtxErr error
	ag := agent.Func(func(agentCtx context.Context, _ string) agent.Result {
		cancel()
		agentCtxErr = agentCtx.Err()
		f.completeNext(t)
		return agent.Result{Success: true}
	})

	c := f.controller(ag, Options{})
	out, err := c.Run(ctx)

	require.NoError(t, err)
	assert.NoError(t, agentCtxErr, "running agent must not see the cancellation")
	assert.Equal(t, ReasonInterrupted, out.Reason)
	assert.Equal(t, PhaseInterrupted, c.Phase())
	assert.Zero(t, out.Iterations)
	assert.Zero(t, f.limiter.State().HourlyCount)
	assert.Equal(t, []string{"progress 0/2", "start", "stop", "interrupted"}, f.display.Events())
}

func TestRun_InterruptedDuringDelay(t *testing.T) {
	f := newFixture(t, "[ ] a\n[ ] b\n", budget.Config{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ag := agent.Func(func(context.Context, string) agent.Result {
		f.completeNext(t)
		f.head++
		return agent.Result{Success: true}
	})
	var slept time.Duration
	out, err := f.controller(ag, Options{
		IterationDelay: 5 * time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			slept = d
			cancel()
			return ctx.Err()
		},
	}).Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, ReasonInterrupted, out.Reason)
	assert.Equal(t, 1, out.Iterations)
	assert.Equal(t, 5*time.Second, slept)
	assert.Equal(t, 1, f.limiter.State().HourlyCount)
}

func TestRun_WorkspaceReadFailure(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	require.NoError(t, os.Remove(f.ws.Path(workspace.NotepadFile)))

	out, err := f.controller(agent.Func(func(context.Context, string) agent.Result {
		t.Fatal("agent must not run")
		return agent.Result{}
	}), Options{}).Run(context.Background())

	var missing *workspace.MissingFileError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, ReasonFailed, out.Reason)
	assert.Equal(t, err, out.Err)
}

func TestRun_PollerFeedsDisplayWhileAgentRuns(t *testing.T) {
	f := newFixture(t, "[ ] a\n", budget.Config{})
	f.inspector.CombinedStatsFunc = func(context.Context) vcs.Stats {
		return vcs.Stats{FilesChanged: 1}
	}
	ag := agent.Func(func(context.Context, string) agent.Result {
		time.Sleep(50 * time.Millisecond)
		f.completeNext(t)
		return agent.Result{Success: true}
	})

	_, err := f.controller(ag, Options{PollInterval: time.Millisecond}).Run(context.Background())

	require.NoError(t, err)
	assert.Positive(t, f.display.StatUpdates())
}

func TestRun_DefaultSleepHonorsDelay(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, sleepContext(context.Background(), time.Millisecond))
	assert.NoError(t, sleepContext(context.Background(), 0))
}
