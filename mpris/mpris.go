// Package mpris exposes the session on the D-Bus session bus as an MPRIS media player.
package mpris

import (
	"context"
	"fmt"
	"math"
	"net/url"

	"github.com/godbus/dbus/v5"
	"github.com/vplayer/vplayer/constant"
	"github.com/vplayer/vplayer/log"
	"github.com/vplayer/vplayer/playback"
	"github.com/vplayer/vplayer/session"
	"github.com/vplayer/vplayer/util"
)

const (
	busName             = "org.mpris.MediaPlayer2." + constant.App
	objectPath          = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	rootInterface       = "org.mpris.MediaPlayer2"
	playerInterface     = "org.mpris.MediaPlayer2.Player"
	propertiesInterface = "org.freedesktop.DBus.Properties"

	trackPath = dbus.ObjectPath("/org/" + constant.App + "/media/current")
)

// Controls is the part of the session the bus can drive.
type Controls interface {
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
	Loop() bool
	SetLoop(loop bool)
	Subscribe() (<-chan session.Event, func())
}

// Emitter sends signals; *dbus.Conn is one.
type Emitter interface {
	Emit(path dbus.ObjectPath, name string, values ...any) error
}

// Server implements the MPRIS root, player and properties interfaces.
type Server struct {
	controls Controls
	emitter  Emitter
	next     func()
	previous func()
	log      log.Entry
}

func NewServer(controls Controls, emitter Emitter) *Server {
	return &Server{
		controls: controls,
		emitter:  emitter,
		log:      log.For("mpris"),
	}
}

// OnSkip wires Next and Previous, typically to the queue.
func (s *Server) OnSkip(next, previous func()) {
	s.next = next
	s.previous = previous
}

// Serve claims the bus name and mirrors the session until ctx is done.
func Serve(ctx context.Context, controls Controls, next, previous func()) error {
	conn, err := dbus.SessionBus()
	if err != nil {
		return fmt.Errorf("session bus: %w", err)
	}
	defer conn.Close()

	reply, err := conn.RequestName(busName, dbus.NameFlagDoNotQueue)
	if err != nil {
		return fmt.Errorf("request %s: %w", busName, err)
	}
	if reply != dbus.RequestNameReplyPrimaryOwner {
		return fmt.Errorf("bus name %s already taken", busName)
	}

	server := NewServer(controls, conn)
	server.OnSkip(next, previous)

	for _, iface := range []string{rootInterface, playerInterface, propertiesInterface} {
		if err := conn.Export(server, objectPath, iface); err != nil {
			return fmt.Errorf("export %s: %w", iface, err)
		}
	}

	events, cancel := controls.Subscribe()
	defer cancel()

	server.log.Infof("serving %s", busName)
	server.watch(ctx, events)
	return nil
}

// watch turns session notifications into MPRIS signals.
func (s *Server) watch(ctx context.Context, events <-chan session.Event) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			s.forward(ev)
		}
	}
}

func (s *Server) forward(ev session.Event) {
	var err error
	switch ev := ev.(type) {
	case session.StateChanged:
		err = s.propertiesChanged(map[string]dbus.Variant{
			"PlaybackStatus": dbus.MakeVariant(playbackStatus(ev.State)),
		})
	case session.MediaChanged, session.Begin:
		err = s.propertiesChanged(map[string]dbus.Variant{
			"Metadata": dbus.MakeVariant(s.metadata()),
		})
	case session.VolumeChanged:
		err = s.propertiesChanged(map[string]dbus.Variant{
			"Volume": dbus.MakeVariant(float64(ev.Volume) / 100),
		})
	case session.Jumped:
		err = s.emitter.Emit(objectPath, playerInterface+".Seeked", ev.Time*1000)
	}
	if err != nil {
		s.log.Warnf("emit: %v", err)
	}
}

func (s *Server) propertiesChanged(props map[string]dbus.Variant) error {
	return s.emitter.Emit(objectPath, propertiesInterface+".PropertiesChanged", playerInterface, props, []string{})
}

// org.mpris.MediaPlayer2

func (s *Server) Raise() *dbus.Error { return nil }
func (s *Server) Quit() *dbus.Error  { return nil }

// org.mpris.MediaPlayer2.Player

func (s *Server) Play() *dbus.Error {
	switch s.controls.State() {
	case playback.Stop, playback.Pause:
		s.controls.Play()
	}
	return nil
}

func (s *Server) Pause() *dbus.Error {
	if s.controls.State() == playback.Play {
		s.controls.Play()
	}
	return nil
}

func (s *Server) PlayPause() *dbus.Error {
	s.controls.Play()
	return nil
}

func (s *Server) Stop() *dbus.Error {
	s.controls.Stop(true)
	return nil
}

func (s *Server) Next() *dbus.Error {
	if s.next != nil {
		s.next()
	}
	return nil
}

func (s *Server) Previous() *dbus.Error {
	if s.previous != nil {
		s.previous()
	}
	return nil
}

// Seek moves by offset microseconds.
func (s *Server) Seek(offset int64) *dbus.Error {
	now := s.controls.Time()
	if now < 0 {
		return nil
	}
	s.controls.SetTime(max(now+offset/1000, 0))
	return nil
}

// SetPosition jumps to position microseconds when track is the current media.
func (s *Server) SetPosition(track dbus.ObjectPath, position int64) *dbus.Error {
	if track != trackPath || position < 0 {
		return nil
	}
	ms := position / 1000
	if d := s.controls.Duration(); d >= 0 && ms > d {
		return nil
	}
	s.controls.SetTime(ms)
	return nil
}

func (s *Server) OpenUri(uri string) *dbus.Error {
	u, err := url.Parse(uri)
	if err != nil || (u.Scheme != "" && u.Scheme != "file") {
		return dbus.MakeFailedError(fmt.Errorf("unsupported uri %q", uri))
	}
	s.controls.SetMedia(u.Path, true)
	if s.controls.State() == playback.Stop {
		s.controls.Play()
	}
	return nil
}

// org.freedesktop.DBus.Properties

func (s *Server) Get(iface, prop string) (dbus.Variant, *dbus.Error) {
	props, err := s.GetAll(iface)
	if err != nil {
		return dbus.Variant{}, err
	}
	v, ok := props[prop]
	if !ok {
		return dbus.Variant{}, dbus.MakeFailedError(fmt.Errorf("unknown property %s", prop))
	}
	return v, nil
}

func (s *Server) GetAll(iface string) (map[string]dbus.Variant, *dbus.Error) {
	switch iface {
	case rootInterface:
		return map[string]dbus.Variant{
			"CanQuit":             dbus.MakeVariant(false),
			"CanRaise":            dbus.MakeVariant(false),
			"HasTrackList":        dbus.MakeVariant(false),
			"Identity":            dbus.MakeVariant(constant.App),
			"SupportedUriSchemes": dbus.MakeVariant([]string{"file"}),
			"SupportedMimeTypes":  dbus.MakeVariant([]string{"video/x-matroska", "video/mp4", "video/webm", "audio/mpeg", "audio/flac"}),
		}, nil
	case playerInterface:
		bound := s.controls.Media() != ""
		position := max(s.controls.Time(), 0) * 1000
		return map[string]dbus.Variant{
			"PlaybackStatus": dbus.MakeVariant(playbackStatus(s.controls.State())),
			"LoopStatus":     dbus.MakeVariant(loopStatus(s.controls.Loop())),
			"Metadata":       dbus.MakeVariant(s.metadata()),
			"Position":       dbus.MakeVariant(position),
			"Volume":         dbus.MakeVariant(float64(s.controls.Volume()) / 100),
			"Rate":           dbus.MakeVariant(1.0),
			"MinimumRate":    dbus.MakeVariant(1.0),
			"MaximumRate":    dbus.MakeVariant(1.0),
			"Shuffle":        dbus.MakeVariant(false),
			"CanGoNext":      dbus.MakeVariant(s.next != nil),
			"CanGoPrevious":  dbus.MakeVariant(s.previous != nil),
			"CanPlay":        dbus.MakeVariant(bound),
			"CanPause":       dbus.MakeVariant(bound),
			"CanSeek":        dbus.MakeVariant(bound),
			"CanControl":     dbus.MakeVariant(true),
		}, nil
	}
	return nil, dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
}

func (s *Server) Set(iface, prop string, value dbus.Variant) *dbus.Error {
	if iface != playerInterface {
		return dbus.MakeFailedError(fmt.Errorf("unknown interface %s", iface))
	}

	switch prop {
	case "Volume":
		v, ok := value.Value().(float64)
		if !ok {
			return dbus.MakeFailedError(fmt.Errorf("invalid volume %v", value))
		}
		s.controls.SetVolume(int(math.Round(v * 100)))
	case "LoopStatus":
		status, ok := value.Value().(string)
		if !ok {
			return dbus.MakeFailedError(fmt.Errorf("invalid loop status %v", value))
		}
		s.controls.SetLoop(status == "Track")
	default:
		return dbus.MakeFailedError(fmt.Errorf("property %s is read-only", prop))
	}
	return nil
}

func (s *Server) metadata() map[string]dbus.Variant {
	media := s.controls.Media()
	if media == "" {
		return map[string]dbus.Variant{
			"mpris:trackid": dbus.MakeVariant(dbus.ObjectPath("/org/mpris/MediaPlayer2/TrackList/NoTrack")),
		}
	}

	m := map[string]dbus.Variant{
		"mpris:trackid": dbus.MakeVariant(trackPath),
		"xesam:title":   dbus.MakeVariant(util.FileStem(media)),
		"xesam:url":     dbus.MakeVariant((&url.URL{Scheme: "file", Path: media}).String()),
	}
	if d := s.controls.Duration(); d > 0 {
		m["mpris:length"] = dbus.MakeVariant(d * 1000)
	}
	return m
}

func playbackStatus(state playback.State) string {
	switch state {
	case playback.Play, playback.Loop:
		return "Playing"
	case playback.Pause:
		return "Paused"
	default:
		return "Stopped"
	}
}

func loopStatus(loop bool) string {
	if loop {
		return "Track"
	}
	return "None"
}
