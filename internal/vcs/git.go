package vcs

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/r0-loop/r0/internal/worker"
)

const defaultQueryTimeout = 15 * time.Second

// execCommandContext is swapped in tests.
var execCommandContext = exec.CommandContext

// Runner executes a git subcommand in dir and returns its stdout.
type Runner func(ctx context.Context, dir string, args ...string) (string, error)

// Git implements Inspector by shelling out to the git CLI.
type Git struct {
	dir     string
	timeout time.Duration
	run     Runner
	logf    func(format string, args ...any)
	pool    *worker.Pool[[]string, map[string]FileStats]
}

// GitOption configures a Git inspector.
type GitOption func(*Git)

// WithRunner replaces the command runner.
func WithRunner(run Runner) GitOption {
	return func(g *Git) {
		g.run = run
	}
}

// WithTimeout bounds each git invocation.
func WithTimeout(d time.Duration) GitOption {
	return func(g *Git) {
		if d > 0 {
			g.timeout = d
		}
	}
}

// WithLogf receives diagnostics for swallowed failures.
func WithLogf(logf func(format string, args ...any)) GitOption {
	return func(g *Git) {
		g.logf = logf
	}
}

// NewGit creates an inspector for the repository containing dir.
func NewGit(dir string, opts ...GitOption) *Git {
	g := &Git{
		dir:     dir,
		timeout: defaultQueryTimeout,
		run:     runGit,
		logf:    func(string, ...any) {},
		pool:    worker.NewPool[[]string, map[string]FileStats](2),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var numstatQueries = [][]string{
	{"diff", "--numstat"},
	{"diff", "--cached", "--numstat"},
}

// CombinedStats merges unstaged and staged numstat output per path.
func (g *Git) CombinedStats(ctx context.Context) Stats {
	results := g.pool.Process(ctx, numstatQueries, func(ctx context.Context, args []string) (map[string]FileStats, error) {
		out, err := g.query(ctx, args...)
		if err != nil {
			return nil, err
		}
		return ParseNumstat(out), nil
	})

	sets := make([]map[string]FileStats, 0, len(results))
	for _, r := range results {
		if r.Err != nil {
			// A failed half contributes nothing; the other half still counts.
			continue
		}
		sets = append(sets, r.Value)
	}
	return Summarize(Merge(sets...))
}

// HeadRevision returns the output of `git rev-parse HEAD`.
func (g *Git) HeadRevision(ctx context.Context) (string, bool) {
	out, err := g.query(ctx, "rev-parse", "HEAD")
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}

// LastCommitSummary returns the subject of the most recent commit.
func (g *Git) LastCommitSummary(ctx context.Context) (string, bool) {
	out, err := g.query(ctx, "log", "-1", "--pretty=%s")
	if err != nil {
		return "", false
	}
	out = strings.TrimSpace(out)
	return out, out != ""
}

func (g *Git) query(ctx context.Context, args ...string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	out, err := g.run(ctx, g.dir, args...)
	if err != nil {
		g.logf("git %s: %v\n", strings.Join(args, " "), err)
		return "", err
	}
	return out, nil
}

func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := execCommandContext(ctx, "git", args...)
	cmd.Dir = dir
	out, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", fmt.Errorf("timed out: %w", ctx.Err())
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return "", fmt.Errorf("%w: %s", err, strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", err
	}
	return string(out), nil
}
