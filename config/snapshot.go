package config

import (
	"github.com/spf13/viper"
	"github.com/vplayer/vplayer/key"
)

// Playing mirrors the [playing] table of the configuration file.
type Playing struct {
	Backend       string   `json:"backend" jsonschema:"enum=mpv,enum=ffmpeg,default=mpv"`
	Arguments     []string `json:"arguments"`
	MPVBinary     string   `json:"mpv_binary"`
	FFmpegBinary  string   `json:"ffmpeg_binary"`
	FFprobeBinary string   `json:"ffprobe_binary"`
	Volume        int      `json:"volume" jsonschema:"minimum=0,maximum=100"`
	Loop          bool     `json:"loop"`
	Subtitle      bool     `json:"subtitle"`
	Immediate     bool     `json:"immediate"`
}

// Logs mirrors the [logs] table of the configuration file.
type Logs struct {
	Write bool   `json:"write"`
	Level string `json:"level" jsonschema:"enum=panic,enum=fatal,enum=error,enum=warn,enum=info,enum=debug,enum=trace"`
	Json  bool   `json:"json"`
}

// Snapshot is the typed view of the whole configuration.
// It is what `config schema` describes and what `config write` serializes.
type Snapshot struct {
	Playing Playing `json:"playing"`
	History struct {
		Save bool `json:"save"`
	} `json:"history"`
	Mpris struct {
		Enable bool `json:"enable"`
	} `json:"mpris"`
	Logs Logs `json:"logs"`
	Cli  struct {
		Colored bool `json:"colored"`
	} `json:"cli"`
	Icons struct {
		Variant string `json:"variant"`
	} `json:"icons"`
}

// Current reads every registered key from viper into a Snapshot.
func Current() *Snapshot {
	s := &Snapshot{
		Playing: Playing{
			Backend:       viper.GetString(key.PlayingBackend),
			Arguments:     viper.GetStringSlice(key.PlayingArguments),
			MPVBinary:     viper.GetString(key.PlayingMPVBinary),
			FFmpegBinary:  viper.GetString(key.PlayingFFmpegBinary),
			FFprobeBinary: viper.GetString(key.PlayingFFprobeBinary),
			Volume:        viper.GetInt(key.PlayingVolume),
			Loop:          viper.GetBool(key.PlayingLoop),
			Subtitle:      viper.GetBool(key.PlayingSubtitle),
			Immediate:     viper.GetBool(key.PlayingImmediate),
		},
		Logs: Logs{
			Write: viper.GetBool(key.LogsWrite),
			Level: viper.GetString(key.LogsLevel),
			Json:  viper.GetBool(key.LogsJson),
		},
	}
	s.History.Save = viper.GetBool(key.HistorySave)
	s.Mpris.Enable = viper.GetBool(key.MprisEnable)
	s.Cli.Colored = viper.GetBool(key.CliColored)
	s.Icons.Variant = viper.GetString(key.IconsVariant)
	return s
}
