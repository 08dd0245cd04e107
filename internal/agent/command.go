package agent

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// PromptPlaceholder in a definition's args is replaced with the prompt.
const PromptPlaceholder = "{{prompt}}"

const nonZeroExitMessage = "Agent exited with non-zero code"

// execCommandContext is swapped in tests.
var execCommandContext = exec.CommandContext

// CommandAgent runs a backend definition as a child process.
type CommandAgent struct {
	def Definition
	dir string
}

// NewCommandAgent creates an agent that runs def in dir (empty = current directory).
func NewCommandAgent(def Definition, dir string) *CommandAgent {
	return &CommandAgent{def: def, dir: dir}
}

// Name returns the backend name.
func (a *CommandAgent) Name() string {
	return a.def.Name
}

// Run starts the backend, waits for it to exit and maps the exit status onto
// a Result. On a non-zero exit the error stream is preferred over the output
// stream as the reported text.
func (a *CommandAgent) Run(ctx context.Context, prompt string) Result {
	cmd := execCommandContext(ctx, a.def.Binary, a.def.commandArgs(prompt)...)
	cmd.Dir = a.dir
	cmd.Env = os.Environ()
	for k, v := range a.def.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Start(); err != nil {
		return Result{Output: fmt.Sprintf("Failed to start %s agent: %v", a.def.Name, err)}
	}

	if err := cmd.Wait(); err != nil {
		if _, ok := err.(*exec.ExitError); !ok {
			return Result{Output: fmt.Sprintf("%s agent did not complete: %v", a.def.Name, err)}
		}
		return Result{Output: firstNonEmpty(stderr.String(), stdout.String(), nonZeroExitMessage)}
	}

	return Result{Success: true, Output: strings.TrimSpace(stdout.String())}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
