package player

import (
	"errors"
	"fmt"
	"math"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/vplayer/vplayer/filesystem"
	"github.com/vplayer/vplayer/internal/cache"
	"github.com/vplayer/vplayer/log"
)

const (
	socketWaitRetries = 10
	socketWaitDelay   = 300 * time.Millisecond
	quitGrace         = 3 * time.Second
)

var mpvLog = log.For("mpv")

type mpvMedia struct {
	path string
}

type mpvPlayback struct {
	loaded bool
}

type handlerRef struct {
	Handler
}

// MPV drives an mpv process over its JSON-IPC socket. mpv renders into its own window.
type MPV struct {
	socketPath string
	cmd        *exec.Cmd
	exited     chan struct{}
	mu         sync.Mutex // serializes IPC requests

	listener *EventListener
	handler  atomic.Pointer[handlerRef]
	media    handles[mpvMedia, mpvPlayback]

	time     atomic.Int64
	duration atomic.Int64
	volume   atomic.Int32
	ended    atomic.Bool
	// aspect holds the float bits of the observed pixel aspect, 0 until known
	aspect atomic.Uint64
}

// NewMPV starts an idle mpv process and connects to it.
func NewMPV(opts Options) (*MPV, error) {
	binary := lo.Ternary(opts.Binary == "", "mpv", opts.Binary)
	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEngineConstruction, err)
	}

	socketPath := cache.Socket("mpv", uuid.NewString()[:8])

	m := newMPV(socketPath)
	m.cmd = exec.Command(path, mpvArguments(socketPath, opts.Arguments)...)
	m.cmd.SysProcAttr = sysProcAttr()
	m.cmd.Stdout = nil
	m.cmd.Stderr = nil
	m.cmd.Stdin = nil

	if err := m.cmd.Start(); err != nil {
		return nil, fmt.Errorf("%w: start mpv: %w", ErrEngineConstruction, err)
	}

	go func() {
		_ = m.cmd.Wait()
		close(m.exited)
	}()

	if err := m.waitForSocket(); err != nil {
		m.kill()
		return nil, fmt.Errorf("%w: %w", ErrEngineConstruction, err)
	}

	if err := m.listen(); err != nil {
		m.kill()
		return nil, fmt.Errorf("%w: %w", ErrEngineConstruction, err)
	}

	mpvLog.Infof("mpv started on %s", socketPath)
	return m, nil
}

// newMPV prepares an MPV bound to an existing socket without starting a process.
func newMPV(socketPath string) *MPV {
	m := &MPV{
		socketPath: socketPath,
		exited:     make(chan struct{}),
	}
	m.handler.Store(&handlerRef{nopHandler{}})
	m.duration.Store(-1)
	m.volume.Store(100)
	return m
}

func mpvArguments(socketPath string, extra []string) []string {
	args := []string{
		"--no-terminal",
		"--really-quiet",
		"--idle=yes",
		"--keep-open=yes",
		"--force-window=yes",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}
	return append(args, extra...)
}

func (m *MPV) listen() error {
	m.listener = NewEventListener(m.socketPath, m.onEvent)
	if err := m.listener.Start(); err != nil {
		return err
	}

	if v, err := m.getFloatProperty("volume"); err == nil {
		m.volume.Store(int32(v))
	}
	return nil
}

func (m *MPV) waitForSocket() error {
	for i := 0; i < socketWaitRetries; i++ {
		time.Sleep(socketWaitDelay)

		select {
		case <-m.exited:
			return errors.New("mpv exited before socket was ready")
		default:
		}

		conn, err := net.Dial("unix", m.socketPath)
		if err == nil {
			conn.Close()
			return nil
		}
	}
	return fmt.Errorf("socket %s not ready after %d attempts", m.socketPath, socketWaitRetries)
}

func (m *MPV) kill() {
	if m.cmd == nil || m.cmd.Process == nil {
		return
	}
	select {
	case <-m.exited:
	default:
		mpvLog.Warnf("killing mpv")
		_ = killProcess(m.cmd)
	}
}

func (m *MPV) Name() string {
	return EngineMPV
}

func (m *MPV) SetHandler(h Handler) {
	if h == nil {
		h = nopHandler{}
	}
	m.handler.Store(&handlerRef{h})
}

func (m *MPV) events() Handler {
	return m.handler.Load().Handler
}

// onEvent runs on the listener goroutine.
func (m *MPV) onEvent(name string, data any) {
	switch name {
	case "time-pos":
		if f, ok := data.(float64); ok && m.media.bound() {
			ms := int64(f * 1000)
			m.time.Store(ms)
			m.events().OnTimeChanged(ms)
		}
	case "duration":
		if f, ok := data.(float64); ok {
			m.duration.Store(int64(f * 1000))
		} else {
			m.duration.Store(-1)
		}
	case "volume":
		if f, ok := data.(float64); ok {
			m.volume.Store(int32(f))
		}
	case "eof-reached":
		if b, ok := data.(bool); ok && b {
			m.endReached()
		}
	case "end-file":
		switch data {
		case "eof":
			m.endReached()
		case "error":
			mpvLog.Warnf("mpv could not play the file")
		}
	case "video-params":
		m.aspect.Store(math.Float64bits(pixelAspect(data)))
	case "file-loaded":
		m.ended.Store(false)
		m.events().OnDecoderReady()
	case "playback-restart":
		m.events().OnRestarted()
	}
}

func (m *MPV) endReached() {
	if m.media.bound() && m.ended.CompareAndSwap(false, true) {
		m.events().OnEndReached()
	}
}

// current copies the bound media out of the handle pair.
func (m *MPV) current() (media mpvMedia, playback mpvPlayback, ok bool) {
	ok = m.media.with(func(md *mpvMedia, pb *mpvPlayback) {
		media, playback = *md, *pb
	})
	return
}

func (m *MPV) setLoaded(loaded bool) {
	m.media.with(func(_ *mpvMedia, pb *mpvPlayback) { pb.loaded = loaded })
}

func (m *MPV) SetMedia(path string) mo.Result[*Media] {
	m.Release()

	abs, err := filepath.Abs(path)
	if err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	}

	info, err := filesystem.API().Stat(abs)
	if err != nil {
		return mo.Err[*Media](fmt.Errorf("%w: %w", ErrMediaBind, err))
	}
	if info.IsDir() {
		return mo.Err[*Media](fmt.Errorf("%w: %s is a directory", ErrMediaBind, abs))
	}

	m.time.Store(0)
	m.duration.Store(-1)
	m.ended.Store(false)
	m.media.bind(&mpvMedia{path: abs}, &mpvPlayback{})
	return mo.Ok(&Media{Path: abs, Duration: -1})
}

func (m *MPV) Start() error {
	media, _, ok := m.current()
	if !ok {
		return ErrNoMedia
	}

	m.ended.Store(false)
	if _, err := m.sendCommand("loadfile", media.path, "replace"); err != nil {
		return fmt.Errorf("loadfile: %w", err)
	}
	m.setLoaded(true)
	return m.Set("pause", false)
}

func (m *MPV) TogglePause() error {
	if _, _, ok := m.current(); !ok {
		return ErrNoMedia
	}
	_, err := m.sendCommand("cycle", "pause")
	return err
}

func (m *MPV) Stop() error {
	_, playback, ok := m.current()
	if !ok {
		return ErrNoMedia
	}
	if !playback.loaded {
		return nil
	}

	m.setLoaded(false)
	m.time.Store(0)
	_, err := m.sendCommand("stop")
	return err
}

func (m *MPV) Seek(ms int64) error {
	if _, _, ok := m.current(); !ok {
		return ErrNoMedia
	}

	m.ended.Store(false)
	m.time.Store(ms)
	_, err := m.sendCommand("seek", float64(ms)/1000, "absolute+exact")
	return err
}

func (m *MPV) SetVolume(v int) error {
	if _, _, ok := m.current(); !ok {
		return ErrNoMedia
	}
	v = lo.Clamp(v, 0, 100)
	if err := m.Set("volume", v); err != nil {
		return err
	}
	m.volume.Store(int32(v))
	return nil
}

func (m *MPV) Volume() int {
	return int(m.volume.Load())
}

func (m *MPV) Time() int64 {
	return m.time.Load()
}

func (m *MPV) Duration() int64 {
	if !m.media.bound() {
		return -1
	}
	return m.duration.Load()
}

func (m *MPV) Tracks(kind TrackKind) []Track {
	if _, _, ok := m.current(); !ok {
		return nil
	}

	data, err := m.sendCommand("get_property", "track-list")
	if err != nil {
		mpvLog.Warnf("track-list: %v", err)
		return nil
	}
	return lo.Filter(parseTrackList(data), func(t Track, _ int) bool {
		return t.Kind&kind != 0
	})
}

func (m *MPV) SelectTrack(kind TrackKind, id int) error {
	if _, _, ok := m.current(); !ok {
		return ErrNoMedia
	}

	property, ok := trackProperties[kind]
	if !ok {
		return fmt.Errorf("%w: kind %s", ErrTrackSelection, kind)
	}

	if kind == Subtitle && id == DisabledTrack {
		return m.Set(property, "no")
	}

	if _, found := lo.Find(m.Tracks(kind), func(t Track) bool { return t.ID == id }); !found {
		return fmt.Errorf("%w: %s %d", ErrTrackSelection, kind, id)
	}
	return m.Set(property, id)
}

func (m *MPV) AddSubtitle(path string) (Track, error) {
	if _, _, ok := m.current(); !ok {
		return Track{}, ErrNoMedia
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return Track{}, err
	}
	if _, err := filesystem.API().Stat(abs); err != nil {
		return Track{}, err
	}

	if _, err := m.sendCommand("sub-add", abs, "select"); err != nil {
		return Track{}, fmt.Errorf("sub-add: %w", err)
	}

	added := lo.Filter(m.Tracks(Subtitle), func(t Track, _ int) bool { return t.External == abs })
	if len(added) == 0 {
		return Track{}, fmt.Errorf("%w: %s was not registered", ErrTrackSelection, abs)
	}
	return added[len(added)-1], nil
}

// PixelAspect prefers the observed video parameters, which mpv only fills in
// after the video output is configured.
func (m *MPV) PixelAspect() float64 {
	if bits := m.aspect.Load(); bits != 0 {
		return math.Float64frombits(bits)
	}
	data, err := m.sendCommand("get_property", "video-params")
	if err != nil {
		return 1
	}
	if par := pixelAspect(data); par > 0 {
		return par
	}
	return 1
}

// pixelAspect extracts par from a video-params value, 0 when absent.
func pixelAspect(data any) float64 {
	params, ok := data.(map[string]any)
	if !ok {
		return 0
	}
	if par, ok := params["par"].(float64); ok && par > 0 {
		return par
	}
	return 0
}

func (m *MPV) Release() {
	m.media.release(func(pb *mpvPlayback) {
		if pb.loaded {
			if _, err := m.sendCommand("stop"); err != nil {
				mpvLog.Warnf("stop on release: %v", err)
			}
		}
	}, nil)
	m.time.Store(0)
	m.duration.Store(-1)
	m.aspect.Store(0)
}

// Close quits mpv and waits until the process and the event listener are gone.
func (m *MPV) Close() error {
	m.Release()

	if m.cmd != nil {
		_, _ = m.sendCommand("quit")

		select {
		case <-m.exited:
		case <-time.After(quitGrace):
			_ = killProcess(m.cmd)
		}
		<-m.exited
	}

	if m.listener != nil {
		m.listener.Stop()
	}

	_ = os.Remove(m.socketPath)
	return nil
}

// Socket returns the IPC socket path.
func (m *MPV) Socket() string {
	return m.socketPath
}

// Set assigns an mpv property.
func (m *MPV) Set(property string, value any) error {
	_, err := m.sendCommand("set_property", property, value)
	return err
}

func (m *MPV) getFloatProperty(name string) (float64, error) {
	data, err := m.sendCommand("get_property", name)
	if err != nil {
		return 0, err
	}

	val, ok := data.(float64)
	if !ok {
		return 0, fmt.Errorf("property %s: expected float64, got %T", name, data)
	}
	return val, nil
}
