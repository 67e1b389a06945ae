package tui

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wrap"
	"github.com/vplayer/vplayer/color"
	"github.com/vplayer/vplayer/icon"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/util"
)

// playerChromeLines is how many lines the player view uses besides the frame.
const playerChromeLines = 12

var (
	listExtraPaddingStyle = lipgloss.NewStyle().Padding(1, 2, 1, 0)
	paddingStyle          = lipgloss.NewStyle().Padding(1, 2)
)

func (b *statefulBubble) View() string {
	var output string

	switch b.state {
	case playerState:
		output = b.viewPlayer()
	case historyState:
		output = listExtraPaddingStyle.Render(b.historyC.View())
	case tracksState:
		output = listExtraPaddingStyle.Render(b.tracksC.View())
	case errorState:
		output = b.viewError()
	default:
		output = "Unknown state"
	}

	return b.notifier.View(output)
}

func stateIcon(s playback.State) string {
	switch s {
	case playback.Play:
		return icon.Get(icon.Play)
	case playback.Pause:
		return icon.Get(icon.Pause)
	case playback.Loop:
		return icon.Get(icon.Loop)
	default:
		return icon.Get(icon.Stop)
	}
}

func (b *statefulBubble) viewPlayer() string {
	name := style.Faint("nothing to play")
	if b.media != "" {
		name = style.Fg(color.Purple)(filepath.Base(b.media))
	}

	lines := []string{
		style.Title("Now Playing"),
		"",
		style.Truncate(b.width)(stateIcon(b.playing) + " " + name),
		"",
	}

	if b.frame != "" {
		lines = append(lines, strings.Split(b.frame, "\n")...)
		lines = append(lines, "")
	}

	var ratio float64
	if b.duration > 0 && b.position > 0 {
		ratio = min(float64(b.position)/float64(b.duration), 1)
	}

	loop := style.Faint("loop off")
	if b.session.Loop() {
		loop = style.Fg(color.Orange)("loop on")
	}

	lines = append(lines,
		b.progressC.ViewAs(ratio),
		"",
		fmt.Sprintf("%s / %s", util.FormatMillis(b.position), util.FormatMillis(b.duration)),
		fmt.Sprintf("%s %s  %s %d%%  %s  %s",
			stateIcon(b.playing), b.playing,
			icon.Get(icon.Volume), b.volume,
			loop,
			style.Faint(b.session.Engine()),
		),
	)

	return b.renderLines(true, lines)
}

func (b *statefulBubble) viewError() string {
	errorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	errorBody := errorStyle.Render(fmt.Sprintf("Error: %v", b.lastError))
	return b.renderLines(
		true,
		[]string{
			style.ErrorTitle("Error"),
			"",
			icon.Get(icon.Fail) + " An error occurred:",
			"",
			wrap.String(errorBody, b.width),
		},
	)
}

func (b *statefulBubble) renderLines(addHelp bool, lines []string) string {
	h := len(lines)
	l := strings.Join(lines, "\n")
	if addHelp {
		if b.height > h {
			l += strings.Repeat("\n", b.height-h)
		}
		l += b.helpC.View(b.keymap)
	}

	return paddingStyle.Render(l)
}
