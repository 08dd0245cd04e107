// Package ui renders loop progress to a terminal.
//
// All output goes through a lipgloss renderer bound to the destination
// writer, so colors are emitted only when that writer is a color-capable
// terminal. Redraw-style output (the spinner) is disabled when the writer is
// not a TTY.
package ui

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

// Styles groups the colors used across the UI.
type Styles struct {
	Success lipgloss.Style
	Warning lipgloss.Style
	Failure lipgloss.Style
	Accent  lipgloss.Style
	Dim     lipgloss.Style
	Bold    lipgloss.Style
}

// NewStyles builds Styles for a renderer.
func NewStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Success: r.NewStyle().Foreground(lipgloss.Color("2")),
		Warning: r.NewStyle().Foreground(lipgloss.Color("3")),
		Failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		Accent:  r.NewStyle().Foreground(lipgloss.Color("6")),
		Dim:     r.NewStyle().Faint(true),
		Bold:    r.NewStyle().Bold(true),
	}
}

// StylesFor returns Styles rendered for w.
func StylesFor(w io.Writer) Styles {
	return NewStyles(lipgloss.NewRenderer(w))
}

// IsTerminal reports whether w is an interactive terminal.
var IsTerminal = func(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return term.IsTerminal(int(f.Fd()))
	}
	return false
}
