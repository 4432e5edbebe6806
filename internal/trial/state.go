// Package trial drives a single trial from arming to the reported record.
package trial

import "fmt"

// State is a trial state machine state.
type State string

const (
	StateArmed        State = "ARMED"
	StateCountingDown State = "COUNTING_DOWN"
	StateRunning      State = "RUNNING"
	StateReleased     State = "RELEASED"
	StateExpired      State = "EXPIRED"
	StateClassified   State = "CLASSIFIED"
	StateReported     State = "REPORTED"
)

// IsTerminal reports whether the running phase has ended in s.
func IsTerminal(s State) bool {
	return s == StateReleased || s == StateExpired
}

func isAllowedTransition(from, to State) bool {
	switch from {
	case StateArmed:
		return to == StateCountingDown || to == StateRunning
	case StateCountingDown:
		return to == StateArmed || to == StateRunning
	case StateRunning:
		return to == StateReleased || to == StateExpired
	case StateReleased, StateExpired:
		return to == StateClassified
	case StateClassified:
		return to == StateReported
	default:
		return false
	}
}

// machine tracks the current state of one trial and validates every move.
type machine struct {
	state   State
	observe func(from, to State)
}

func newMachine(observe func(from, to State)) *machine {
	return &machine{state: StateArmed, observe: observe}
}

func (m *machine) to(next State) error {
	if !isAllowedTransition(m.state, next) {
		return fmt.Errorf("disallowed trial transition: %s -> %s", m.state, next)
	}
	from := m.state
	m.state = next
	if m.observe != nil {
		m.observe(from, next)
	}
	return nil
}
