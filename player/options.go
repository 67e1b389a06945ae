package player

import (
	"fmt"

	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/key"
	"github.com/vplayer/vplayer/render"
)

// Engine names accepted by playing.backend.
const (
	EngineMPV    = "mpv"
	EngineFFmpeg = "ffmpeg"
)

// AvailableEngines lists the engines New can build.
func AvailableEngines() []string {
	return []string{EngineMPV, EngineFFmpeg}
}

// Options parameterize engine construction.
type Options struct {
	Engine string
	// Binary is the mpv or ffmpeg executable.
	Binary string
	// Probe is the ffprobe executable.
	Probe string
	// Arguments are extra engine startup arguments.
	Arguments []string
	// Provider receives decoded frames from engines that do not render themselves.
	Provider render.Provider
	// Audio overrides the audio output of the ffmpeg engine.
	Audio AudioSink
}

// OptionsFromConfig reads the engine options from the configuration.
func OptionsFromConfig(provider render.Provider) Options {
	engine := viper.GetString(key.PlayingBackend)
	binary := viper.GetString(key.PlayingMPVBinary)
	if engine == EngineFFmpeg {
		binary = viper.GetString(key.PlayingFFmpegBinary)
	}

	return Options{
		Engine:    engine,
		Binary:    binary,
		Probe:     viper.GetString(key.PlayingFFprobeBinary),
		Arguments: viper.GetStringSlice(key.PlayingArguments),
		Provider:  provider,
	}
}

// New builds the engine named by opts.Engine.
func New(opts Options) (Backend, error) {
	switch opts.Engine {
	case EngineMPV, "":
		return NewMPV(opts)
	case EngineFFmpeg:
		return NewFFmpeg(opts)
	default:
		return nil, fmt.Errorf("%w: unknown engine %q", ErrEngineConstruction, opts.Engine)
	}
}
