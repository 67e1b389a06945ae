// Package tui provides the terminal player view.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/queue"
	"github.com/vplayer/vplayer/render"
	"github.com/vplayer/vplayer/session"
)

// Session is what the view drives; *session.Controller implements it.
type Session interface {
	Play()
	Stop(manually bool)
	State() playback.State
	SetTime(ms int64)
	Time() int64
	Duration() int64
	SetMedia(path string, manually bool)
	Media() string
	SetVolume(v int)
	Volume() int
	Tracks(mask player.TrackKind) []player.Track
	SelectTrack(kind player.TrackKind, id int)
	AddSubtitle(path string)
	Loop() bool
	SetLoop(loop bool)
	Engine() string
	Subscribe() (<-chan session.Event, func())
}

// Options encapsulates the runtime configuration for the terminal user interface.
type Options struct {
	Session Session
	Queue   *queue.Queue
	// Frames is set when the engine decodes into memory; the view draws them as text.
	Frames *render.Memory
	// Recent opens the history list instead of playing the queue.
	Recent bool
}

// Run initializes and executes the primary Bubble Tea application loop.
func Run(options *Options) error {
	bubble := newBubble(options)
	defer bubble.unsubscribe()

	if options.Recent {
		if err := bubble.loadHistory(); err != nil {
			return err
		}
		bubble.newState(historyState)
	} else {
		bubble.newState(playerState)
	}

	_, err := tea.NewProgram(bubble, tea.WithAltScreen()).Run()
	return err
}
