package icon

// Icon identifies a symbol in the registry.
type Icon int

const (
	Fail Icon = iota + 1
	Success
	Question
	Play
	Pause
	Stop
	Loop
	Volume
	Video
	Audio
	Subtitle
	Recent
)

var icons = map[Icon]*iconDef{
	Fail: {
		emoji:   "💀",
		nerd:    "",
		plain:   "x",
		kaomoji: "(×_×)",
		squares: "🟥",
	},
	Success: {
		emoji:   "🎉",
		nerd:    "",
		plain:   "v",
		kaomoji: "(ᵔᴥᵔ)",
		squares: "🟩",
	},
	Question: {
		emoji:   "🤨",
		nerd:    "",
		plain:   "?",
		kaomoji: "(・・?)",
		squares: "🟦",
	},
	Play: {
		emoji:   "▶️",
		nerd:    "",
		plain:   ">",
		kaomoji: "(ﾉ◕ヮ◕)ﾉ",
		squares: "🟩",
	},
	Pause: {
		emoji:   "⏸️",
		nerd:    "",
		plain:   "||",
		kaomoji: "(￣o￣) zzZ",
		squares: "🟨",
	},
	Stop: {
		emoji:   "⏹️",
		nerd:    "",
		plain:   "[]",
		kaomoji: "(－‸ლ)",
		squares: "🟥",
	},
	Loop: {
		emoji:   "🔁",
		nerd:    "",
		plain:   "@",
		kaomoji: "(@_@)",
		squares: "🟪",
	},
	Volume: {
		emoji:   "🔊",
		nerd:    "",
		plain:   "vol",
		kaomoji: "ヽ(°〇°)ﾉ",
		squares: "🟧",
	},
	Video: {
		emoji:   "🎞️",
		nerd:    "",
		plain:   "V",
		kaomoji: "(⌐■_■)",
		squares: "🟦",
	},
	Audio: {
		emoji:   "🎵",
		nerd:    "",
		plain:   "A",
		kaomoji: "♪(´▽｀)",
		squares: "🟨",
	},
	Subtitle: {
		emoji:   "💬",
		nerd:    "",
		plain:   "S",
		kaomoji: "(・ω・)ノ",
		squares: "⬜",
	},
	Recent: {
		emoji:   "🕘",
		nerd:    "",
		plain:   "~",
		kaomoji: "(´-ω-`)",
		squares: "⬛",
	},
}
