package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/r0-loop/r0/internal/config"
)

var (
	// Global flags
	verbose bool
	output  string
	cfgFile string
	dirFlag string
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "r0",
	Short: "Run a coding agent in a loop until the backlog is done",
	Long: `r0 drives a coding agent through a markdown backlog, one task per iteration.

Each iteration the agent receives the prompt, the notepad and the backlog
from the workspace folder (.ralph by default). The agent picks a task,
implements it, updates the notepad, checks the task off and commits.
r0 stops when every task is checked, the budget runs out, the agent fails
or you press Ctrl+C.

Get Started:
  init      Create the workspace folder with starter files
  run       Start the loop

Inspect:
  status    Show backlog progress
  agents    List available agent backends
  config    Show resolved configuration
  version   Show version information`,
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		syncConfigFlagToEnv()
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file (default: .ralph/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&dirFlag, "dir", "", "Workspace folder (default: .ralph)")
}

// VerbosePrintf prints only when verbose mode is enabled.
func VerbosePrintf(format string, args ...interface{}) {
	if verbose {
		fmt.Printf(format, args...)
	}
}

func syncConfigFlagToEnv() {
	path := strings.TrimSpace(cfgFile)
	if path == "" {
		return
	}
	_ = os.Setenv(config.EnvConfig, path)
}

// globalOverrides returns the config values set by global flags.
func globalOverrides() *config.Config {
	return &config.Config{
		Output:  output,
		Verbose: verbose,
		Dir:     dirFlag,
	}
}

// loadConfig resolves configuration and applies the verbose setting it
// carries, so R0_VERBOSE and config files enable VerbosePrintf too.
func loadConfig(overrides *config.Config) (*config.Config, error) {
	cfg, err := config.Load(overrides)
	if err != nil {
		return nil, err
	}
	if cfg.Verbose {
		verbose = true
	}
	return cfg, nil
}
