package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/samber/lo"
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/history"
	"github.com/vplayer/vplayer/internal/ui"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/session"
)

type eventMsg struct {
	event session.Event
}

type sessionClosedMsg struct{}

// waitForEvent delivers the next session notification to Update.
func (b *statefulBubble) waitForEvent() tea.Cmd {
	events := b.events
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return sessionClosedMsg{}
		}
		return eventMsg{event: ev}
	}
}

// command runs a session command off the update goroutine.
func (b *statefulBubble) command(fn func(s Session)) tea.Cmd {
	s := b.session
	return func() tea.Msg {
		fn(s)
		return nil
	}
}

// open binds path and starts it unless the session autoplays.
func open(s Session, path string) {
	s.SetMedia(path, false)
	if s.Media() != "" && !viper.GetBool(key.PlayingImmediate) {
		s.Play()
	}
}

func (b *statefulBubble) playNext() tea.Cmd {
	q := b.queue
	return b.command(func(s Session) {
		if next, ok := q.Next().Get(); ok {
			open(s, next)
		}
	})
}

func (b *statefulBubble) playPrev() tea.Cmd {
	q := b.queue
	return b.command(func(s Session) {
		if prev, ok := q.Prev().Get(); ok {
			open(s, prev)
		}
	})
}

// playPath replaces the queue with path and plays it.
func (b *statefulBubble) playPath(path string) tea.Cmd {
	b.queue.Set([]string{path})
	return b.playNext()
}

func (b *statefulBubble) loadHistory() error {
	entries, err := history.Recent(0)
	if err != nil {
		return err
	}

	b.historyC.SetItems(lo.Map(entries, func(e *history.Entry, _ int) list.Item {
		return &listItem{internal: e}
	}))
	return nil
}

func (b *statefulBubble) removeHistory(entry *history.Entry) tea.Cmd {
	if err := history.Remove(entry.Path); err != nil {
		log.Warnf("history: %v", err)
		return ui.Notify("Could not remove " + entry.Name)
	}
	if err := b.loadHistory(); err != nil {
		return func() tea.Msg { return err }
	}
	return ui.Notify("Removed " + entry.Name)
}

func (b *statefulBubble) loadTracks() {
	tracks := b.session.Tracks(player.AllTracks)
	b.tracksC.SetItems(lo.Map(tracks, func(t player.Track, _ int) list.Item {
		return &listItem{internal: t}
	}))
}

// handleEvent mirrors a notification into the view state.
func (b *statefulBubble) handleEvent(ev session.Event) tea.Cmd {
	switch ev := ev.(type) {
	case session.StateChanged:
		b.playing = ev.State
		if ev.State == playback.Stop {
			b.position = -1
		}
	case session.TimeChanged:
		b.position = ev.Time
	case session.Jumped:
		b.position = ev.Time
	case session.MediaChanged:
		b.media = ev.Path
		b.position = -1
		b.duration = -1
		b.frame = ""
		if ev.Path == "" {
			return ui.Notify("Could not open media")
		}
	case session.Begin:
		b.duration = b.session.Duration()
		b.volume = b.session.Volume()
	case session.VolumeChanged:
		b.volume = ev.Volume
	case session.Reach:
		if !ev.Manually && !ev.Replaced {
			return b.playNext()
		}
	case session.Decoded:
		b.refreshFrame()
	case session.TracksChanged:
		if b.state == tracksState {
			b.loadTracks()
		}
	}
	return nil
}
