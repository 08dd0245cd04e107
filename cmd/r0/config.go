package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/config"
	"github.com/r0-loop/r0/internal/formatter"
)

var (
	configShow bool
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long: `View r0 configuration.

Configuration priority (highest to lowest):
  1. Command-line flags
  2. Environment variables (R0_*)
  3. Project config (.ralph/config.yaml)
  4. Home config (~/.r0/config.yaml)
  5. Defaults

Environment variables:
  R0_CONFIG           - Explicit config file path (overrides default project config location)
  R0_AGENT            - Agent backend (default: claude)
  R0_DIR              - Workspace folder (default: .ralph)
  R0_OUTPUT           - Default output format (table, json, yaml)
  R0_VERBOSE          - Enable verbose output (true/1)
  R0_HOURLY_BUDGET    - Max agent runs per hour
  R0_DAILY_BUDGET     - Max agent runs per day
  R0_POLL_INTERVAL    - Diff stats refresh while the agent runs (default: 2s)
  R0_ITERATION_DELAY  - Pause between iterations (default: 1s)
  R0_MAX_ITERATIONS   - Stop after N iterations (default: unlimited)

Examples:
  r0 config --show           # Show resolved configuration
  r0 config --show -o json   # Output as JSON`,
	RunE: runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.Flags().BoolVar(&configShow, "show", false, "Show resolved configuration with sources")
}

var configEnvVars = []string{
	config.EnvConfig,
	config.EnvAgent,
	config.EnvDir,
	config.EnvOutput,
	config.EnvVerbose,
	config.EnvHourlyBudget,
	config.EnvDailyBudget,
	config.EnvPollInterval,
	config.EnvIterationDelay,
	config.EnvMaxIterations,
}

func runConfig(cmd *cobra.Command, args []string) error {
	if !configShow {
		// Show help if no flags
		return cmd.Help()
	}

	resolved := config.Resolve(globalOverrides())
	out := cmd.OutOrStdout()

	if format, _ := resolved.Output.Value.(string); formatter.IsStructured(format) {
		return formatter.Encode(out, format, resolved)
	}

	fmt.Fprintln(out, "r0 Configuration")
	fmt.Fprintln(out, "================")
	fmt.Fprintln(out)

	fmt.Fprintln(out, "Config files:")
	home, _ := os.UserHomeDir()
	printConfigFile(out, "Home:   ", filepath.Join(home, ".r0", "config.yaml"))
	projectConfig := strings.TrimSpace(os.Getenv(config.EnvConfig))
	if projectConfig == "" {
		cwd, _ := os.Getwd()
		projectConfig = filepath.Join(cwd, ".ralph", "config.yaml")
	}
	printConfigFile(out, "Project:", projectConfig)

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Resolved values:")
	rows := []struct {
		key string
		val interface{}
		src config.Source
	}{
		{"agent", resolved.Agent.Value, resolved.Agent.Source},
		{"dir", resolved.Dir.Value, resolved.Dir.Source},
		{"output", resolved.Output.Value, resolved.Output.Source},
		{"verbose", resolved.Verbose.Value, resolved.Verbose.Source},
		{"budget.hourly", limitValue(resolved.HourlyBudget.Value), resolved.HourlyBudget.Source},
		{"budget.daily", limitValue(resolved.DailyBudget.Value), resolved.DailyBudget.Source},
		{"loop.poll_interval", resolved.PollInterval.Value, resolved.PollInterval.Source},
		{"loop.iteration_delay", resolved.IterationDelay.Value, resolved.IterationDelay.Source},
		{"loop.max_iterations", limitValue(resolved.MaxIterations.Value), resolved.MaxIterations.Source},
	}
	tbl := formatter.NewTable(out, "KEY", "VALUE", "SOURCE")
	for _, r := range rows {
		tbl.AddRow(r.key, fmt.Sprint(r.val), string(r.src))
	}
	if err := tbl.Render(); err != nil {
		return err
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Environment variables (if set):")
	anySet := false
	for _, env := range configEnvVars {
		if v := os.Getenv(env); v != "" {
			fmt.Fprintf(out, "  %s=%s\n", env, v)
			anySet = true
		}
	}
	if !anySet {
		fmt.Fprintln(out, "  (none set)")
	}

	return nil
}

func printConfigFile(out io.Writer, label, path string) {
	if _, err := os.Stat(path); err == nil {
		fmt.Fprintf(out, "  ✓ %s %s\n", label, path)
	} else {
		fmt.Fprintf(out, "  ✗ %s %s (not found)\n", label, path)
	}
}

// limitValue renders zero limits as "unlimited".
func limitValue(v interface{}) interface{} {
	if n, ok := v.(int); ok && n == 0 {
		return "unlimited"
	}
	return v
}
