// Package playback implements the playback state machine shared by every engine.
package playback

// State is the playback state of a session.
type State int

const (
	Stop State = iota
	Play
	Pause
	// Loop is the interval between an end-of-stream restart and the engine
	// confirming that it produces output again.
	Loop
)

func (s State) String() string {
	switch s {
	case Stop:
		return "stop"
	case Play:
		return "play"
	case Pause:
		return "pause"
	case Loop:
		return "loop"
	default:
		return "unknown"
	}
}

// transitions lists every legal edge of the machine.
var transitions = map[State][]State{
	Stop:  {Play},
	Play:  {Pause, Stop, Loop},
	Pause: {Play, Stop},
	Loop:  {Play, Stop},
}

// CanTransition reports whether from -> to is a legal edge.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
