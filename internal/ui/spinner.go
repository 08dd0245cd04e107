package ui

import (
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/r0-loop/r0/internal/vcs"
)

// SpinnerInterval is the redraw period.
const SpinnerInterval = 80 * time.Millisecond

const clearLine = "\r\x1b[K"

// Spinner shows a "Running agent..." line with elapsed time and live diff
// stats. The ticker runs in its own goroutine; every write to the output is
// serialized on mu.
type Spinner struct {
	out      io.Writer
	styles   Styles
	frames   []string
	interval time.Duration
	now      func() time.Time
	live     bool

	mu       sync.Mutex
	stats    vcs.Stats
	frame    int
	start    time.Time
	started  bool
	finished bool

	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// SpinnerOption configures a Spinner.
type SpinnerOption func(*Spinner)

// WithClock sets the time source used for elapsed time.
func WithClock(now func() time.Time) SpinnerOption {
	return func(s *Spinner) { s.now = now }
}

// WithLive forces redraws on or off regardless of TTY detection.
func WithLive(live bool) SpinnerOption {
	return func(s *Spinner) { s.live = live }
}

// WithInterval overrides SpinnerInterval.
func WithInterval(d time.Duration) SpinnerOption {
	return func(s *Spinner) { s.interval = d }
}

// NewSpinner creates a stopped spinner writing to out.
func NewSpinner(out io.Writer, styles Styles, opts ...SpinnerOption) *Spinner {
	s := &Spinner{
		out:      out,
		styles:   styles,
		frames:   spinner.MiniDot.Frames,
		interval: SpinnerInterval,
		now:      time.Now,
		live:     IsTerminal(out),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start records the start time and begins redrawing. Without a terminal a
// single status line is printed instead.
func (s *Spinner) Start() {
	s.mu.Lock()
	if s.started {
		s.mu.Unlock()
		return
	}
	s.started = true
	s.start = s.now()
	s.frame = 0
	if !s.live {
		fmt.Fprintln(s.out, " Running agent...")
		s.mu.Unlock()
		close(s.done)
		return
	}
	s.render()
	s.mu.Unlock()

	go s.loop()
}

func (s *Spinner) loop() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			s.frame = (s.frame + 1) % len(s.frames)
			s.render()
			s.mu.Unlock()
		}
	}
}

// render must be called with mu held.
func (s *Spinner) render() {
	frame := s.styles.Accent.Render(s.frames[s.frame])
	elapsed := FormatDuration(s.elapsed())
	fmt.Fprintf(s.out, "%s %s Running agent...  %s%s",
		clearLine, frame, s.styles.Dim.Render(elapsed), s.styles.DiffInline(s.stats))
}

// UpdateStats replaces the diff stats shown on the next redraw.
func (s *Spinner) UpdateStats(stats vcs.Stats) {
	s.mu.Lock()
	s.stats = stats
	s.mu.Unlock()
}

// Elapsed returns the time since Start.
func (s *Spinner) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed()
}

// elapsed must be called with mu held.
func (s *Spinner) elapsed() time.Duration {
	if s.start.IsZero() {
		return 0
	}
	return s.now().Sub(s.start)
}

// Stop halts redraws, waits for the ticker goroutine and clears the line.
// It is safe to call more than once.
func (s *Spinner) Stop() {
	s.stopOnce.Do(func() {
		s.mu.Lock()
		started := s.started
		s.started = true
		s.mu.Unlock()

		close(s.stop)
		if !started {
			return
		}
		<-s.done
		if s.live {
			s.mu.Lock()
			fmt.Fprint(s.out, clearLine)
			s.mu.Unlock()
		}
	})
}

// Succeed stops the spinner and prints a success line.
func (s *Spinner) Succeed(message string) {
	s.finish(s.styles.Success.Render("✓"), message, true)
}

// Warn stops the spinner and prints a warning line.
func (s *Spinner) Warn(message string) {
	s.finish(s.styles.Warning.Render("!"), message, true)
}

// Fail stops the spinner and prints an error line.
func (s *Spinner) Fail(message string) {
	s.finish("", message, false)
}

// finish prints at most one final line per spinner.
func (s *Spinner) finish(symbol, message string, withStats bool) {
	s.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.finished {
		return
	}
	s.finished = true

	if !withStats {
		fmt.Fprintln(s.out, s.styles.ErrorLine(message))
		return
	}
	elapsed := FormatDuration(s.elapsed())
	fmt.Fprintf(s.out, " %s %s  %s%s\n", symbol, message, s.styles.Dim.Render(elapsed), s.styles.DiffInline(s.stats))
}
