package playback

import (
	"errors"
	"fmt"
	"sync/atomic"
)

// ErrInvalidTransition is returned when a transition is not in the table.
var ErrInvalidTransition = errors.New("invalid state transition")

// Listener is invoked after every accepted transition.
type Listener func(from, to State)

// Machine holds the current state.
// Transitions must be driven from a single goroutine; Current is safe from any.
type Machine struct {
	state    atomic.Int32
	listener Listener
}

// NewMachine returns a machine in the Stop state.
func NewMachine(listener Listener) *Machine {
	return &Machine{listener: listener}
}

// Current returns the current state.
func (m *Machine) Current() State {
	return State(m.state.Load())
}

// Is reports whether the machine is in any of the given states.
func (m *Machine) Is(states ...State) bool {
	current := m.Current()
	for _, s := range states {
		if s == current {
			return true
		}
	}
	return false
}

// Transition moves the machine to the given state and notifies the listener.
func (m *Machine) Transition(to State) error {
	from := m.Current()
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}

	m.state.Store(int32(to))
	if m.listener != nil {
		m.listener(from, to)
	}
	return nil
}

// Toggle flips between Play and Pause.
func (m *Machine) Toggle() error {
	switch m.Current() {
	case Play:
		return m.Transition(Pause)
	case Pause:
		return m.Transition(Play)
	default:
		return fmt.Errorf("%w: toggle from %s", ErrInvalidTransition, m.Current())
	}
}
