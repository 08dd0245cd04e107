package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/backlog"
	"github.com/r0-loop/r0/internal/formatter"
	"github.com/r0-loop/r0/internal/ui"
	"github.com/r0-loop/r0/internal/workspace"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show backlog progress",
	Long: `Show how many backlog tasks are done and which one is next.

Examples:
  r0 status
  r0 status -o json`,
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

// statusReport is the structured form of r0 status.
type statusReport struct {
	Folder    string         `json:"folder" yaml:"folder"`
	Completed int            `json:"completed" yaml:"completed"`
	Total     int            `json:"total" yaml:"total"`
	Remaining int            `json:"remaining" yaml:"remaining"`
	Progress  float64        `json:"progress" yaml:"progress"`
	Next      *backlog.Task  `json:"next,omitempty" yaml:"next,omitempty"`
	Tasks     []backlog.Task `json:"tasks" yaml:"tasks"`
}

func buildStatusReport(folder string, state backlog.State) statusReport {
	report := statusReport{
		Folder:    folder,
		Completed: state.CompletedCount,
		Total:     state.TotalCount,
		Remaining: state.Remaining(),
		Progress:  state.Progress(),
		Tasks:     state.Tasks,
	}
	if report.Tasks == nil {
		report.Tasks = []backlog.Task{}
	}
	if next, ok := backlog.NextTask(state); ok {
		report.Next = &next
	}
	return report
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(globalOverrides())
	if err != nil {
		return err
	}

	ws := workspace.New(workspace.WithFolder(cfg.Dir))
	if err := ws.Validate(); err != nil {
		return err
	}
	content, err := ws.ReadBacklog()
	if err != nil {
		return err
	}
	report := buildStatusReport(cfg.Dir, backlog.Parse(content))

	out := cmd.OutOrStdout()
	if formatter.IsStructured(cfg.Output) {
		return formatter.Encode(out, cfg.Output, report)
	}

	styles := ui.StylesFor(out)
	fmt.Fprintln(out, styles.ProgressBar(report.Completed, report.Total))
	fmt.Fprintln(out)
	if report.Total == 0 {
		fmt.Fprintln(out, styles.Dim.Render("No tasks in "+ws.Path(workspace.BacklogFile)))
		return nil
	}

	tbl := formatter.NewTable(out, "LINE", "DONE", "TASK")
	tbl.SetMaxWidth(2, 72)
	for _, task := range report.Tasks {
		done := " "
		if task.Completed {
			done = "x"
		}
		tbl.AddRow(strconv.Itoa(task.LineIndex+1), done, task.Text)
	}
	if err := tbl.Render(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	if report.Next != nil {
		fmt.Fprintf(out, "Next: %s\n", report.Next.Text)
	} else {
		fmt.Fprintln(out, styles.Success.Render("All tasks completed!"))
	}
	return nil
}
