package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/agent"
	"github.com/r0-loop/r0/internal/budget"
	"github.com/r0-loop/r0/internal/config"
	"github.com/r0-loop/r0/internal/loop"
	"github.com/r0-loop/r0/internal/ui"
	"github.com/r0-loop/r0/internal/vcs"
	"github.com/r0-loop/r0/internal/workspace"
)

var (
	runAgent         string
	runHourlyBudget  string
	runDailyBudget   string
	runMaxIterations int
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the agent loop",
	Long: `Run the agent repeatedly until every backlog task is checked off.

Each iteration re-reads prompt.md, notepad.md and backlog.md, sends them to
the agent and waits for it to exit. A new commit is reported with its
subject; an iteration without a commit prints a warning and the loop goes on.

The loop stops when:
  - no unchecked task remains
  - the hourly or daily budget is exhausted (exit 0)
  - the agent exits with an error (exit 1)
  - you press Ctrl+C (the running agent is allowed to finish)

Examples:
  r0 run
  r0 run --agent codex
  r0 run --hourly-budget 10 --daily-budget 50
  r0 run --max-iterations 3`,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringVarP(&runAgent, "agent", "a", "", "Agent backend (default: claude; see r0 agents)")
	runCmd.Flags().StringVar(&runHourlyBudget, "hourly-budget", "", "Max agent runs per hour")
	runCmd.Flags().StringVar(&runDailyBudget, "daily-budget", "", "Max agent runs per day")
	runCmd.Flags().IntVar(&runMaxIterations, "max-iterations", 0, "Stop after N iterations (0 = unlimited)")
	rootCmd.AddCommand(runCmd)
}

// parseBudgetFlag validates a budget flag value. Empty means unset.
func parseBudgetFlag(name, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, &budget.LimitError{Name: name, Value: raw}
	}
	return n, nil
}

func runRun(cmd *cobra.Command, args []string) error {
	hourly, err := parseBudgetFlag("hourly-budget", runHourlyBudget)
	if err != nil {
		return err
	}
	daily, err := parseBudgetFlag("daily-budget", runDailyBudget)
	if err != nil {
		return err
	}
	if runMaxIterations < 0 {
		return fmt.Errorf("%w: max-iterations must not be negative", config.ErrInvalidValue)
	}

	overrides := globalOverrides()
	overrides.Agent = runAgent
	overrides.Budget = config.BudgetConfig{Hourly: hourly, Daily: daily}
	overrides.Loop.MaxIterations = runMaxIterations

	cfg, err := loadConfig(overrides)
	if err != nil {
		return err
	}
	limits := cfg.Limits()
	if err := limits.Validate(); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	console := ui.NewConsole(out)

	ws := workspace.New(workspace.WithFolder(cfg.Dir))
	if err := ws.Validate(); err != nil {
		if errors.Is(err, workspace.ErrFolderNotFound) {
			fmt.Fprintln(cmd.ErrOrStderr(), console.Styles().Dim.Render("Run r0 init to create it"))
		}
		return err
	}

	catalog, err := agent.LoadCatalog(ws.AgentsDir(), ws.Root)
	if err != nil {
		return err
	}
	ag, err := catalog.New(cfg.Agent)
	if err != nil {
		return err
	}

	pollInterval, err := cfg.Loop.PollDuration()
	if err != nil {
		return err
	}
	delay, err := cfg.Loop.DelayDuration()
	if err != nil {
		return err
	}

	console.Blank()
	console.Info("Using agent: " + cfg.Agent)
	VerbosePrintf("budget: %s\n", limits.Describe())
	console.Blank()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	controller := loop.New(
		ws,
		ag,
		budget.NewLimiter(limits, nil),
		vcs.NewGit(ws.Root, vcs.WithLogf(VerbosePrintf)),
		console,
		loop.Options{
			PollInterval:   pollInterval,
			IterationDelay: delay,
			MaxIterations:  cfg.Loop.MaxIterations,
			Logf:           VerbosePrintf,
		},
	)

	outcome, err := controller.Run(ctx)
	VerbosePrintf("run ended: %s after %d iteration(s)\n", outcome.Reason, outcome.Iterations)
	if err != nil {
		var agentErr *loop.AgentError
		if errors.As(err, &agentErr) {
			// Output was already shown by the console.
			cmd.SilenceErrors = true
		}
		return err
	}
	return nil
}
