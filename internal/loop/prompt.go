package loop

// ComposePrompt builds the text sent to the agent for one iteration.
func ComposePrompt(base, notepad, backlog string) string {
	return base +
		"\n\n---\n\n## Current Notepad\n\n" + notepad +
		"\n\n---\n\n## Current Backlog\n\n" + backlog + "\n"
}
