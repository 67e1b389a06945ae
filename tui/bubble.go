package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/help"
	bubblesKey "github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/lipgloss"
	"github.com/samber/mo"
	"github.com/vplayer/vplayer/internal/ui"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/queue"
	"github.com/vplayer/vplayer/render"
	"github.com/vplayer/vplayer/session"
	"github.com/vplayer/vplayer/style"
	"github.com/vplayer/vplayer/util"
)

// statefulBubble holds the view state mirrored from session notifications.
type statefulBubble struct {
	state         state
	statesHistory []state

	keymap *statefulKeymap

	// components
	historyC  list.Model
	tracksC   list.Model
	progressC progress.Model
	helpC     help.Model

	session     Session
	queue       *queue.Queue
	frames      *render.Memory
	events      <-chan session.Event
	unsubscribe func()

	playing  playback.State
	media    string
	position int64
	duration int64
	volume   int
	frame    string

	lastError     error
	width, height int
	notifier      *ui.Model
}

func (b *statefulBubble) raiseError(err error) {
	b.lastError = err
	b.newState(errorState)
}

func (b *statefulBubble) setState(s state) {
	b.state = s
	b.keymap.setState(s)
}

// newState switches to s, remembering where to go back to.
func (b *statefulBubble) newState(s state) {
	if b.state == s {
		return
	}

	if b.state != errorState {
		b.statesHistory = append(b.statesHistory, b.state)
	}

	b.setState(s)
}

func (b *statefulBubble) previousState() {
	if n := len(b.statesHistory); n > 0 {
		s := b.statesHistory[n-1]
		b.statesHistory = b.statesHistory[:n-1]
		b.setState(s)
	}
}

func (b *statefulBubble) resize(width, height int) {
	x, y := paddingStyle.GetFrameSize()
	xx, yy := listExtraPaddingStyle.GetFrameSize()

	listWidth := width - xx
	listHeight := height - yy

	b.historyC.SetSize(listWidth, listHeight)
	b.historyC.Help.Width = listWidth

	b.tracksC.SetSize(listWidth, listHeight)
	b.tracksC.Help.Width = listWidth

	b.progressC.Width = listWidth

	b.width = width - x
	b.height = height - y
	b.helpC.Width = listWidth
}

func newBubble(options *Options) *statefulBubble {
	bubble := statefulBubble{
		keymap:   newStatefulKeymap(),
		session:  options.Session,
		queue:    options.Queue,
		frames:   options.Frames,
		position: -1,
		duration: -1,
		notifier: &ui.Model{},
	}

	if bubble.queue == nil {
		bubble.queue = queue.New()
	}

	// subscribe before the program starts so nothing published meanwhile is lost
	bubble.events, bubble.unsubscribe = bubble.session.Subscribe()
	bubble.playing = bubble.session.State()
	bubble.media = bubble.session.Media()

	type listOptions struct {
		TitleStyle mo.Option[lipgloss.Style]
	}

	makeList := func(title string, options *listOptions) list.Model {
		delegate := list.NewDefaultDelegate()
		delegate.Styles.SelectedTitle = lipgloss.NewStyle().
			Border(lipgloss.ThickBorder(), false, false, false, true).
			BorderForeground(style.AccentColor).
			Foreground(style.AccentColor).
			Padding(0, 0, 0, 1)
		delegate.Styles.NormalTitle = delegate.Styles.NormalTitle.Foreground(lipgloss.Color("7"))
		delegate.Styles.SelectedDesc = delegate.Styles.SelectedTitle

		listC := list.New([]list.Item{}, delegate, 0, 0)
		listC.KeyMap = bubble.keymap.forList()
		listC.AdditionalShortHelpKeys = bubble.keymap.ShortHelp
		listC.AdditionalFullHelpKeys = func() []bubblesKey.Binding {
			return bubble.keymap.FullHelp()[0]
		}
		listC.Title = title
		listC.Styles.NoItems = paddingStyle
		if titleStyle, ok := options.TitleStyle.Get(); ok {
			listC.Styles.Title = titleStyle
		}
		listC.StatusMessageLifetime = time.Hour * 999
		listC.SetShowPagination(false)
		listC.SetShowStatusBar(false)

		return listC
	}

	bubble.helpC = help.New()
	bubble.progressC = progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())

	bubble.historyC = makeList("Recent", &listOptions{
		TitleStyle: mo.Some(
			lipgloss.NewStyle().Foreground(style.Base).Background(style.Yellow).Padding(0, 1),
		),
	})
	bubble.historyC.SetStatusBarItemName("media", "media")

	bubble.tracksC = makeList("Tracks", &listOptions{
		TitleStyle: mo.Some(
			lipgloss.NewStyle().Foreground(style.Base).Background(style.Blue).Padding(0, 1),
		),
	})
	bubble.tracksC.SetStatusBarItemName("track", "tracks")

	if w, h, err := util.TerminalSize(); err == nil {
		bubble.resize(w, h)
	}

	return &bubble
}
