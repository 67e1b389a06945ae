package session

import (
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/render"
)

// Queue is the playlist collaborator; it is cleared when the user stops playback.
type Queue interface {
	Clear()
}

// Options configure a Controller.
type Options struct {
	// Volume is applied every time the engine confirms playback.
	Volume int
	// Loop restarts the media when it ends.
	Loop bool
	// Subtitle keeps subtitles enabled when a media starts.
	Subtitle bool
	// Immediate starts playback as soon as a media is bound.
	Immediate bool

	Provider render.Provider
	Queue    Queue
	// Recorder is told about every successfully bound media.
	Recorder func(path string) error
}

// OptionsFromConfig reads the playback behaviour from the configuration.
func OptionsFromConfig() Options {
	return Options{
		Volume:    viper.GetInt(key.PlayingVolume),
		Loop:      viper.GetBool(key.PlayingLoop),
		Subtitle:  viper.GetBool(key.PlayingSubtitle),
		Immediate: viper.GetBool(key.PlayingImmediate),
	}
}
