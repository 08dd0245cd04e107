package main

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/ui"
	"github.com/r0-loop/r0/internal/workspace"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the workspace folder with starter files",
	Long: `Create the workspace folder (.ralph by default) in the current directory.

This creates:
  prompt.md    - Instructions sent to the agent every iteration
  backlog.md   - Checkbox task list ("[ ] task", "[x] done")
  notepad.md   - The agent's memory between iterations

Optional:
  config.yaml  - Project configuration (see r0 config)
  agents/      - Custom agent backends as YAML (see r0 agents)

Existing folders are left untouched.`,
	RunE: runInit,
}

func init() {
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(globalOverrides())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	styles := ui.StylesFor(out)
	ws := workspace.New(workspace.WithFolder(cfg.Dir))

	written, err := ws.Init()
	if errors.Is(err, workspace.ErrAlreadyInitialized) {
		fmt.Fprintln(out, styles.Warning.Render(fmt.Sprintf("%s already exists", cfg.Dir)))
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, styles.Success.Render(fmt.Sprintf("Created %s", cfg.Dir)))
	for _, path := range written {
		fmt.Fprintf(out, "  %s\n", filepath.Base(path))
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, styles.Dim.Render(fmt.Sprintf("Add tasks to %s, then run %s",
		filepath.Join(cfg.Dir, workspace.BacklogFile), styles.Bold.Render("r0 run"))))
	return nil
}
