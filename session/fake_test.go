package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vplayer/vplayer/player"
	"github.com/vplayer/vplayer/render"
)

// fakeBackend is an in-memory engine. Events are raised by the test through fire.
type fakeBackend struct {
	mu       sync.Mutex
	handler  player.Handler
	media    string
	duration int64
	time     int64
	volume   int
	paused   bool
	aspect   float64
	tracks   []player.Track
	added    int
	calls    []string
	closed   bool

	// fireOnSeek raises a time update from inside Seek.
	fireOnSeek bool
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		duration: 60_000,
		aspect:   1.5,
		tracks: []player.Track{
			{ID: 1, Label: "video", Kind: player.Video, Selected: true},
			{ID: 1, Label: "eng", Kind: player.Audio, Selected: true},
			{ID: 2, Label: "jpn", Kind: player.Audio},
			{ID: 1, Label: "subs", Kind: player.Subtitle, Selected: true},
		},
	}
}

func (f *fakeBackend) record(format string, args ...any) {
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeBackend) called(call string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.Count(f.calls, call)
}

func (f *fakeBackend) fire(fn func(h player.Handler)) {
	f.mu.Lock()
	h := f.handler
	f.mu.Unlock()
	fn(h)
}

func (f *fakeBackend) Name() string { return "fake" }

func (f *fakeBackend) SetHandler(h player.Handler) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = h
}

func (f *fakeBackend) SetMedia(path string) mo.Result[*player.Media] {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("bind %s", path)
	if path == "" || path == "/missing" {
		return mo.Err[*player.Media](fmt.Errorf("%w: %s", player.ErrMediaBind, path))
	}
	f.media = path
	f.time = 0
	return mo.Ok(&player.Media{Path: path, Duration: f.duration})
}

func (f *fakeBackend) Start() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("start")
	f.time = 0
	f.paused = false
	return nil
}

func (f *fakeBackend) TogglePause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("pause")
	f.paused = !f.paused
	return nil
}

func (f *fakeBackend) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("stop")
	f.time = 0
	return nil
}

func (f *fakeBackend) Seek(ms int64) error {
	f.mu.Lock()
	f.record("seek %d", ms)
	f.time = ms
	fire := f.fireOnSeek
	h := f.handler
	f.mu.Unlock()

	if fire {
		h.OnTimeChanged(ms)
	}
	return nil
}

func (f *fakeBackend) SetVolume(v int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("volume %d", v)
	f.volume = v
	return nil
}

func (f *fakeBackend) Volume() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.volume
}

func (f *fakeBackend) Time() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.time
}

func (f *fakeBackend) Duration() int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.duration
}

func (f *fakeBackend) AddSubtitle(path string) (player.Track, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("sub-add %s", path)
	f.added++
	t := player.Track{ID: 1000 + f.added, Kind: player.Subtitle, External: path}
	f.tracks = append(f.tracks, t)
	return t, nil
}

func (f *fakeBackend) Tracks(kind player.TrackKind) []player.Track {
	f.mu.Lock()
	defer f.mu.Unlock()
	return lo.Filter(f.tracks, func(t player.Track, _ int) bool { return t.Kind&kind != 0 })
}

func (f *fakeBackend) SelectTrack(kind player.TrackKind, id int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("select %s %d", kind, id)
	if kind == player.Subtitle && id == player.DisabledTrack {
		for i := range f.tracks {
			if f.tracks[i].Kind == kind {
				f.tracks[i].Selected = false
			}
		}
		return nil
	}
	if !lo.ContainsBy(f.tracks, func(t player.Track) bool { return t.Kind == kind && t.ID == id }) {
		return player.ErrTrackSelection
	}
	for i := range f.tracks {
		if f.tracks[i].Kind == kind {
			f.tracks[i].Selected = f.tracks[i].ID == id
		}
	}
	return nil
}

func (f *fakeBackend) PixelAspect() float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.aspect
}

func (f *fakeBackend) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("release")
	f.media = ""
}

func (f *fakeBackend) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

// aspectProvider remembers the last pixel aspect it was given.
type aspectProvider struct {
	render.Provider
	mu     sync.Mutex
	aspect float64
}

func (p *aspectProvider) SetPixelAspect(ratio float64) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.aspect = ratio
}

func (p *aspectProvider) get() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.aspect
}

type fakeQueue struct {
	mu      sync.Mutex
	cleared int
}

func (q *fakeQueue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.cleared++
}

func (q *fakeQueue) count() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.cleared
}

// watcher records every notification of a controller.
type watcher struct {
	mu     sync.Mutex
	events []Event
}

func watch(c *Controller) *watcher {
	w := &watcher{}
	events, _ := c.Subscribe()
	go func() {
		for ev := range events {
			w.mu.Lock()
			w.events = append(w.events, ev)
			w.mu.Unlock()
		}
	}()
	return w
}

func (w *watcher) snapshot() []Event {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]Event(nil), w.events...)
}

func (w *watcher) count(ev Event) int {
	return lo.Count(w.snapshot(), ev)
}

func (w *watcher) countOf(match func(Event) bool) int {
	return lo.CountBy(w.snapshot(), match)
}

// saw waits until ev was published.
func (w *watcher) saw(ev Event) bool {
	return eventually(func() bool { return w.count(ev) > 0 })
}

// states lists the published states in order.
func (w *watcher) states() []string {
	return lo.FilterMap(w.snapshot(), func(ev Event, _ int) (string, bool) {
		s, ok := ev.(StateChanged)
		return s.State.String(), ok
	})
}

func eventually(cond func() bool) bool {
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(5 * time.Millisecond)
	}
	return cond()
}
