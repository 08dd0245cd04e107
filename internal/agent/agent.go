// Package agent runs external coding agents.
//
// An Agent is an opaque capability: it receives a prompt and reports whether
// the run succeeded together with the text it produced. Backends are plain
// command-line programs described by YAML definitions and looked up by name
// in a Catalog, so adding a backend never touches the loop.
package agent

import "context"

// Result is the outcome of one agent run.
type Result struct {
	Success bool
	Output  string
}

// Agent runs a prompt to completion. Implementations report every failure,
// including failing to start, through Result rather than an error.
type Agent interface {
	Run(ctx context.Context, prompt string) Result
}

// Func adapts a plain function to the Agent interface.
type Func func(ctx context.Context, prompt string) Result

// Run calls f.
func (f Func) Run(ctx context.Context, prompt string) Result {
	return f(ctx, prompt)
}
