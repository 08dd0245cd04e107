package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/r0-loop/r0/internal/vcs"
)

// Console prints loop progress to a writer. One spinner is active per
// iteration; UpdateStats may be called from another goroutine.
type Console struct {
	out    io.Writer
	styles Styles
	opts   []SpinnerOption

	mu      sync.Mutex
	spinner *Spinner
}

// NewConsole creates a Console writing to out. Spinner options apply to
// every iteration spinner.
func NewConsole(out io.Writer, opts ...SpinnerOption) *Console {
	return &Console{
		out:    out,
		styles: StylesFor(out),
		opts:   opts,
	}
}

// Styles returns the console's styles.
func (c *Console) Styles() Styles {
	return c.styles
}

// Info prints a dim line.
func (c *Console) Info(message string) {
	fmt.Fprintln(c.out, c.styles.Dim.Render(message))
}

// Progress prints the progress bar followed by a blank line.
func (c *Console) Progress(completed, total int) {
	fmt.Fprintln(c.out, c.styles.ProgressBar(completed, total))
	fmt.Fprintln(c.out)
}

// StartIteration starts a fresh spinner.
func (c *Console) StartIteration() {
	s := NewSpinner(c.out, c.styles, c.opts...)
	c.mu.Lock()
	c.spinner = s
	c.mu.Unlock()
	s.Start()
}

// UpdateStats forwards diff stats to the active spinner, if any.
func (c *Console) UpdateStats(stats vcs.Stats) {
	if s := c.active(); s != nil {
		s.UpdateStats(stats)
	}
}

// Succeed ends the iteration with a success line.
func (c *Console) Succeed(message string, stats vcs.Stats) {
	if s := c.take(); s != nil {
		s.UpdateStats(stats)
		s.Succeed(message)
	}
}

// Warn ends the iteration with a warning line.
func (c *Console) Warn(message string, stats vcs.Stats) {
	if s := c.take(); s != nil {
		s.UpdateStats(stats)
		s.Warn(message)
	}
}

// Fail ends the iteration with an error line.
func (c *Console) Fail(message string) {
	if s := c.take(); s != nil {
		s.Fail(message)
		return
	}
	fmt.Fprintln(c.out, c.styles.ErrorLine(message))
}

// StopIteration clears the active spinner without printing a result.
func (c *Console) StopIteration() {
	if s := c.take(); s != nil {
		s.Stop()
	}
}

// Elapsed returns the active spinner's running time.
func (c *Console) Elapsed() time.Duration {
	if s := c.active(); s != nil {
		return s.Elapsed()
	}
	return 0
}

// AgentOutput prints indented agent output preceded by a blank line.
func (c *Console) AgentOutput(output string) {
	fmt.Fprintln(c.out)
	fmt.Fprintln(c.out, c.styles.AgentOutput(output))
}

// Done prints a green completion message.
func (c *Console) Done(message string) {
	fmt.Fprintln(c.out, c.styles.Success.Render(message))
}

// Notice prints a yellow message.
func (c *Console) Notice(message string) {
	fmt.Fprintln(c.out, c.styles.Warning.Render(message))
}

// Interrupted prints the interrupt notice.
func (c *Console) Interrupted() {
	fmt.Fprintln(c.out)
	c.Info("Interrupted")
}

// Blank prints an empty line.
func (c *Console) Blank() {
	fmt.Fprintln(c.out)
}

func (c *Console) active() *Spinner {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.spinner
}

func (c *Console) take() *Spinner {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.spinner
	c.spinner = nil
	return s
}
