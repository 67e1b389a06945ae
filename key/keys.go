// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// DefinedFieldsCount represents the total cardinality of the application configuration schema.
const DefinedFieldsCount = 16

// Playback Engine - these keys select and parameterize the native engine behind the session.
const (
	PlayingBackend       = "playing.backend"
	PlayingArguments     = "playing.arguments"
	PlayingMPVBinary     = "playing.mpv_binary"
	PlayingFFmpegBinary  = "playing.ffmpeg_binary"
	PlayingFFprobeBinary = "playing.ffprobe_binary"
)

// Playback Behaviour - these keys are read by the session controller on every media load.
const (
	PlayingVolume    = "playing.volume"
	PlayingLoop      = "playing.loop"
	PlayingSubtitle  = "playing.subtitle"
	PlayingImmediate = "playing.immediate"
)

// History Tracking - these keys configure the persistence of recently played media.
const (
	HistorySave = "history.save"
)

// Remote Control - these keys manage the D-Bus media player surface.
const (
	MprisEnable = "mpris.enable"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern the non-TUI application behavior.
const (
	CliColored   = "cli.colored"
	IconsVariant = "icons.variant"
)
