// Package backlog parses a checkbox-style task list into completion state.
//
// A backlog is re-parsed from the raw file text on every loop iteration, so a
// Task has no identity beyond its line position in a given snapshot.
package backlog

import (
	"regexp"
	"strings"
)

// taskPattern matches an optional list marker (-, *, + or "N.") followed by a
// checkbox and free-form text.
var taskPattern = regexp.MustCompile(`^\s*(?:[-*+]|\d+\.)?\s*\[([ xX])\]\s*(.+)$`)

// Task is a single checkbox line.
type Task struct {
	Text      string `json:"text" yaml:"text"`
	Completed bool   `json:"completed" yaml:"completed"`
	LineIndex int    `json:"line" yaml:"line"`
}

// State is the parsed view of a backlog file.
type State struct {
	Tasks          []Task `json:"tasks" yaml:"tasks"`
	CompletedCount int    `json:"completed" yaml:"completed"`
	TotalCount     int    `json:"total" yaml:"total"`
}

// Parse extracts every checkbox line from content. Lines that do not look like
// a task are ignored.
func Parse(content string) State {
	var state State
	for i, line := range strings.Split(content, "\n") {
		match := taskPattern.FindStringSubmatch(line)
		if match == nil {
			continue
		}
		task := Task{
			Text:      strings.TrimSpace(match[2]),
			Completed: strings.EqualFold(match[1], "x"),
			LineIndex: i,
		}
		state.Tasks = append(state.Tasks, task)
		if task.Completed {
			state.CompletedCount++
		}
	}
	state.TotalCount = len(state.Tasks)
	return state
}

// NextTask returns the first unchecked task in document order.
func NextTask(state State) (Task, bool) {
	for _, task := range state.Tasks {
		if !task.Completed {
			return task, true
		}
	}
	return Task{}, false
}

// HasRemainingTasks reports whether any task is still unchecked. An empty
// backlog has nothing remaining.
func HasRemainingTasks(state State) bool {
	return state.CompletedCount < state.TotalCount
}

// Remaining returns the number of unchecked tasks.
func (s State) Remaining() int {
	return s.TotalCount - s.CompletedCount
}

// Progress returns the completed fraction in [0, 1]; 0 for an empty backlog.
func (s State) Progress() float64 {
	if s.TotalCount == 0 {
		return 0
	}
	return float64(s.CompletedCount) / float64(s.TotalCount)
}
