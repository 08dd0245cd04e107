package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/agent"
	"github.com/r0-loop/r0/internal/formatter"
	"github.com/r0-loop/r0/internal/workspace"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List available agent backends",
	Long: `List the agent backends r0 run can use.

Builtin backends:
  claude   claude --print --dangerously-skip-permissions <prompt>
  codex    codex exec --full-auto <prompt>

Add or override backends with YAML files in .ralph/agents/:

  name: aider
  description: Aider in scripted mode
  binary: aider
  args: ["--yes", "--message", "{{prompt}}"]

"{{prompt}}" is replaced with the iteration prompt; without it the prompt
is appended as the last argument.`,
	RunE: runAgents,
}

func init() {
	rootCmd.AddCommand(agentsCmd)
}

func runAgents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(globalOverrides())
	if err != nil {
		return err
	}

	ws := workspace.New(workspace.WithFolder(cfg.Dir))
	catalog, err := agent.LoadCatalog(ws.AgentsDir(), ws.Root)
	if err != nil {
		return err
	}
	defs := catalog.Definitions()

	out := cmd.OutOrStdout()
	if formatter.IsStructured(cfg.Output) {
		return formatter.Encode(out, cfg.Output, defs)
	}

	tbl := formatter.NewTable(out, "NAME", "BINARY", "SOURCE", "DESCRIPTION")
	tbl.SetMaxWidth(3, 60)
	for _, def := range defs {
		name := def.Name
		if name == cfg.Agent {
			name += " *"
		}
		tbl.AddRow(name, def.Binary, def.Source, def.Description)
	}
	if err := tbl.Render(); err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out, "* selected by default")
	return nil
}
