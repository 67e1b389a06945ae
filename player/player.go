// Package player defines the engine contract the session drives and its two implementations:
// an mpv process controlled over JSON-IPC and an ffmpeg pipeline decoding into a frame provider.
package player

import (
	"errors"
	"fmt"

	"github.com/samber/mo"
)

var (
	// ErrEngineConstruction means the engine could not be created. It is fatal for that backend.
	ErrEngineConstruction = errors.New("engine construction failed")

	// ErrMediaBind means the engine rejected a media path.
	ErrMediaBind = errors.New("media rejected by engine")

	// ErrTrackSelection means a track id is unknown to the engine.
	ErrTrackSelection = errors.New("track not available")

	// ErrNoMedia is returned by calls that need bound media.
	ErrNoMedia = errors.New("no media bound")
)

// TrackKind is a bit so several kinds can be requested at once.
type TrackKind int

const (
	Video TrackKind = 1 << iota
	Audio
	Subtitle

	AllTracks = Video | Audio | Subtitle
)

func (k TrackKind) String() string {
	switch k {
	case Video:
		return "video"
	case Audio:
		return "audio"
	case Subtitle:
		return "subtitle"
	default:
		return fmt.Sprintf("kinds(%d)", int(k))
	}
}

func (k TrackKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Kinds lists the individual kinds in display order.
var Kinds = []TrackKind{Video, Audio, Subtitle}

// DisabledTrack is the id that turns subtitles off.
const DisabledTrack = -1

// Track describes one selectable stream.
type Track struct {
	ID       int       `json:"id"`
	Label    string    `json:"label"`
	Kind     TrackKind `json:"kind"`
	Selected bool      `json:"selected"`
	// External is the file an added subtitle was loaded from.
	External string `json:"external,omitempty"`
}

// Media is what a successful bind reports.
type Media struct {
	// Path is the canonical absolute path.
	Path string
	// Duration in milliseconds, -1 while unknown.
	Duration int64
}

// Handler receives engine events. Implementations are called from engine
// goroutines and must not block.
type Handler interface {
	// OnDecoderReady fires once the engine produces output for a freshly started media.
	OnDecoderReady()
	// OnTimeChanged reports the playback position in milliseconds.
	OnTimeChanged(ms int64)
	// OnEndReached fires when the media played to its end.
	OnEndReached()
	// OnRestarted acknowledges that a restart or seek took effect.
	// Engines without such an acknowledgement never call it.
	OnRestarted()
	// OnFrameReady signals that a new frame was released to the provider.
	OnFrameReady()
}

// Backend is a native playback engine.
//
// Methods are called from a single goroutine. Calls made while no media is
// bound are no-ops.
type Backend interface {
	// Name identifies the engine in logs and the UI.
	Name() string

	// SetHandler registers the receiver of engine events.
	SetHandler(h Handler)

	// SetMedia releases any bound media and binds the new path.
	SetMedia(path string) mo.Result[*Media]

	// Start begins playback of the bound media from the beginning.
	Start() error

	// TogglePause suspends or resumes playback.
	TogglePause() error

	// Stop halts playback and keeps the media bound.
	Stop() error

	// Seek moves to an absolute position in milliseconds.
	Seek(ms int64) error

	// SetVolume applies a volume in [0,100].
	SetVolume(v int) error

	Volume() int
	Time() int64
	Duration() int64

	// AddSubtitle loads an external subtitle file and selects it.
	AddSubtitle(path string) (Track, error)

	// Tracks lists the streams of the requested kinds.
	Tracks(kind TrackKind) []Track

	// SelectTrack makes id the active track of its kind.
	SelectTrack(kind TrackKind, id int) error

	// PixelAspect returns the sample aspect ratio of the first video stream.
	PixelAspect() float64

	// Release unbinds the media, releasing the engine instance before the media.
	Release()

	// Close shuts the engine down and returns once it no longer raises events.
	Close() error
}

// nopHandler discards events until a real handler is set.
type nopHandler struct{}

func (nopHandler) OnDecoderReady()     {}
func (nopHandler) OnTimeChanged(int64) {}
func (nopHandler) OnEndReached()       {}
func (nopHandler) OnRestarted()        {}
func (nopHandler) OnFrameReady()       {}
