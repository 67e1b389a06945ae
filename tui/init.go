package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Init subscribes to the session and starts the queue when the player view opens first.
func (b *statefulBubble) Init() tea.Cmd {
	cmds := []tea.Cmd{b.waitForEvent()}

	if b.state == playerState && b.session.Media() == "" {
		cmds = append(cmds, b.playNext())
	}

	return tea.Batch(cmds...)
}
