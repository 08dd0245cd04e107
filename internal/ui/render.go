package ui

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/r0-loop/r0/internal/vcs"
)

// ProgressBarWidth is the number of cells in the progress bar.
const ProgressBarWidth = 24

// ProgressBar renders " <bar>  c/t tasks".
func (s Styles) ProgressBar(completed, total int) string {
	ratio := 0.0
	if total > 0 {
		ratio = float64(completed) / float64(total)
	}
	filled := int(math.Floor(ProgressBarWidth*ratio + 0.5))
	filled = max(0, min(ProgressBarWidth, filled))

	bar := s.Success.Render(strings.Repeat("█", filled)) +
		s.Dim.Render(strings.Repeat("░", ProgressBarWidth-filled))
	return fmt.Sprintf(" %s  %d/%d tasks", bar, completed, total)
}

// FormatDuration renders d as "Xm Ys", or "Ys" under a minute.
func FormatDuration(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	minutes := seconds / 60
	if minutes > 0 {
		return fmt.Sprintf("%dm %ds", minutes, seconds%60)
	}
	return fmt.Sprintf("%ds", seconds)
}

func pluralFiles(n int) string {
	if n == 1 {
		return "1 file"
	}
	return fmt.Sprintf("%d files", n)
}

// DiffInline renders "  N files +I -D" for the spinner line, or "" when
// nothing changed.
func (s Styles) DiffInline(stats vcs.Stats) string {
	if stats.FilesChanged == 0 {
		return ""
	}
	return fmt.Sprintf("  %s %s %s",
		s.Dim.Render(pluralFiles(stats.FilesChanged)),
		s.Success.Render(fmt.Sprintf("+%d", stats.Insertions)),
		s.Failure.Render(fmt.Sprintf("-%d", stats.Deletions)))
}

// DiffSummary renders the standalone diff line.
func (s Styles) DiffSummary(stats vcs.Stats) string {
	if stats.FilesChanged == 0 {
		return s.Dim.Render("   No changes")
	}
	return fmt.Sprintf("   %s  %s %s",
		pluralFiles(stats.FilesChanged),
		s.Success.Render(fmt.Sprintf("+%d", stats.Insertions)),
		s.Failure.Render(fmt.Sprintf("-%d", stats.Deletions)))
}

// AgentOutput trims output and indents each line by three spaces.
func (s Styles) AgentOutput(output string) string {
	lines := strings.Split(strings.TrimSpace(output), "\n")
	for i, line := range lines {
		lines[i] = s.Dim.Render("   " + line)
	}
	return strings.Join(lines, "\n")
}

// ErrorLine renders " ✗ message".
func (s Styles) ErrorLine(message string) string {
	return fmt.Sprintf(" %s %s", s.Failure.Render("✗"), message)
}
