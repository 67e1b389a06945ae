package tui

import (
	"fmt"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/vplayer/vplayer/history"
	"github.com/vplayer/vplayer/icon"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/util"
)

// listItem implements the list.Item interface for history entries and tracks.
type listItem struct {
	internal any
}

func (t *listItem) Title() string {
	switch e := t.internal.(type) {
	case *history.Entry:
		return icon.Get(icon.Recent) + " " + e.Name
	case player.Track:
		title := trackIcon(e.Kind) + " " + e.Label
		if e.Selected {
			title += " " + lipgloss.NewStyle().Bold(true).Foreground(style.AccentColor).Render(icon.Get(icon.Success))
		}
		return title
	default:
		return t.FilterValue()
	}
}

func (t *listItem) Description() string {
	switch e := t.internal.(type) {
	case *history.Entry:
		return fmt.Sprintf("%s · %s", filepath.Dir(e.Path), util.Quantify(e.Plays, "play", "plays"))
	case player.Track:
		if e.External != "" {
			return e.Kind.String() + " · " + e.External
		}
		return e.Kind.String()
	default:
		return ""
	}
}

func (t *listItem) FilterValue() string {
	switch e := t.internal.(type) {
	case *history.Entry:
		return e.Name
	case player.Track:
		return e.Label
	default:
		return ""
	}
}

func trackIcon(kind player.TrackKind) string {
	switch kind {
	case player.Video:
		return icon.Get(icon.Video)
	case player.Audio:
		return icon.Get(icon.Audio)
	default:
		return icon.Get(icon.Subtitle)
	}
}
