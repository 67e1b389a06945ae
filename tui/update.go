package tui

import (
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vplayer/vplayer/history"
	"github.com/vplayer/vplayer/internal/ui"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/render"
)

const (
	seekStep   = 5_000
	volumeStep = 5
)

func (b *statefulBubble) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	// ephemeral notifications arrive as plain strings
	if uiCmd := b.notifier.Update(msg); uiCmd != nil {
		cmd = uiCmd
	}

	switch msg := msg.(type) {
	case error:
		b.raiseError(msg)
		return b, cmd
	case tea.WindowSizeMsg:
		b.resize(msg.Width, msg.Height)
		b.refreshFrame()
	case eventMsg:
		return b, tea.Batch(cmd, b.handleEvent(msg.event), b.waitForEvent())
	case sessionClosedMsg:
		return b, tea.Quit
	case tea.KeyMsg:
		if bubblesKey.Matches(msg, b.keymap.forceQuit) {
			return b, tea.Quit
		}

		switch b.state {
		case playerState:
			return b, tea.Batch(cmd, b.updatePlayer(msg))
		case historyState:
			return b, tea.Batch(cmd, b.updateHistory(msg))
		case tracksState:
			return b, tea.Batch(cmd, b.updateTracks(msg))
		case errorState:
			switch {
			case bubblesKey.Matches(msg, b.keymap.back):
				b.previousState()
			case bubblesKey.Matches(msg, b.keymap.quit):
				return b, tea.Quit
			}
			return b, cmd
		}
	}

	var listCmd tea.Cmd
	switch b.state {
	case historyState:
		b.historyC, listCmd = b.historyC.Update(msg)
	case tracksState:
		b.tracksC, listCmd = b.tracksC.Update(msg)
	}

	return b, tea.Batch(cmd, listCmd)
}

func (b *statefulBubble) updatePlayer(msg tea.KeyMsg) tea.Cmd {
	position := max(b.position, 0)

	switch {
	case bubblesKey.Matches(msg, b.keymap.quit):
		return tea.Quit
	case bubblesKey.Matches(msg, b.keymap.playPause):
		return b.command(func(s Session) { s.Play() })
	case bubblesKey.Matches(msg, b.keymap.stop):
		return b.command(func(s Session) { s.Stop(true) })
	case bubblesKey.Matches(msg, b.keymap.replay):
		if b.playing == playback.Stop {
			return b.command(func(s Session) { s.Play() })
		}
		return b.command(func(s Session) { s.SetTime(0) })
	case bubblesKey.Matches(msg, b.keymap.seekForward):
		return b.command(func(s Session) { s.SetTime(position + seekStep) })
	case bubblesKey.Matches(msg, b.keymap.seekBackward):
		return b.command(func(s Session) { s.SetTime(max(position-seekStep, 0)) })
	case bubblesKey.Matches(msg, b.keymap.volumeUp):
		volume := b.volume + volumeStep
		return b.command(func(s Session) { s.SetVolume(volume) })
	case bubblesKey.Matches(msg, b.keymap.volumeDown):
		volume := b.volume - volumeStep
		return b.command(func(s Session) { s.SetVolume(volume) })
	case bubblesKey.Matches(msg, b.keymap.loop):
		loop := !b.session.Loop()
		b.session.SetLoop(loop)
		if loop {
			return ui.Notify("Loop on")
		}
		return ui.Notify("Loop off")
	case bubblesKey.Matches(msg, b.keymap.next):
		return b.playNext()
	case bubblesKey.Matches(msg, b.keymap.prev):
		return b.playPrev()
	case bubblesKey.Matches(msg, b.keymap.tracks):
		b.loadTracks()
		b.newState(tracksState)
	case bubblesKey.Matches(msg, b.keymap.recent):
		if err := b.loadHistory(); err != nil {
			b.raiseError(err)
			return nil
		}
		b.newState(historyState)
	case bubblesKey.Matches(msg, b.keymap.back):
		b.previousState()
	}

	return nil
}

func (b *statefulBubble) updateHistory(msg tea.KeyMsg) tea.Cmd {
	if b.historyC.FilterState() == list.Filtering {
		var cmd tea.Cmd
		b.historyC, cmd = b.historyC.Update(msg)
		return cmd
	}

	item, _ := b.historyC.SelectedItem().(*listItem)

	switch {
	case bubblesKey.Matches(msg, b.keymap.confirm):
		if item == nil {
			return nil
		}
		entry := item.internal.(*history.Entry)
		b.newState(playerState)
		return b.playPath(entry.Path)
	case bubblesKey.Matches(msg, b.keymap.remove):
		if item == nil {
			return nil
		}
		return b.removeHistory(item.internal.(*history.Entry))
	case bubblesKey.Matches(msg, b.keymap.back):
		b.previousState()
		return nil
	}

	var cmd tea.Cmd
	b.historyC, cmd = b.historyC.Update(msg)
	return cmd
}

func (b *statefulBubble) updateTracks(msg tea.KeyMsg) tea.Cmd {
	switch {
	case bubblesKey.Matches(msg, b.keymap.confirm):
		item, ok := b.tracksC.SelectedItem().(*listItem)
		if !ok {
			return nil
		}
		track := item.internal.(player.Track)
		return b.command(func(s Session) { s.SelectTrack(track.Kind, track.ID) })
	case bubblesKey.Matches(msg, b.keymap.back):
		b.previousState()
		return nil
	}

	var cmd tea.Cmd
	b.tracksC, cmd = b.tracksC.Update(msg)
	return cmd
}

// refreshFrame renders the newest decoded frame to fit above the controls.
func (b *statefulBubble) refreshFrame() {
	if b.frames == nil {
		return
	}
	frame, ok := b.frames.Snapshot()
	if !ok {
		return
	}
	rows := b.height - playerChromeLines
	if rows <= 0 || b.width <= 0 {
		b.frame = ""
		return
	}
	b.frame = render.ASCII(frame, b.width, rows)
}
