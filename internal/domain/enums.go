// Package domain defines the core domain models for the stop-signal task.
package domain

import (
	"encoding/json"
	"fmt"
)

// Signal is the trial type. The numeric values are the ones written to the
// record file (0 = Go, 1 = Stop).
type Signal int

const (
	SignalGo   Signal = 0
	SignalStop Signal = 1
)

func (s Signal) String() string {
	switch s {
	case SignalGo:
		return "go"
	case SignalStop:
		return "stop"
	default:
		return fmt.Sprintf("signal(%d)", int(s))
	}
}

// Valid reports whether s is Go or Stop.
func (s Signal) Valid() bool {
	return s == SignalGo || s == SignalStop
}

// Outcome is the classification of a completed trial.
type Outcome string

const (
	OutcomeNone          Outcome = ""
	OutcomeCorrectGo     Outcome = "CORRECT_GO"
	OutcomeIncorrectGo   Outcome = "INCORRECT_GO"
	OutcomeCorrectStop   Outcome = "CORRECT_STOP"
	OutcomeIncorrectStop Outcome = "INCORRECT_STOP"
)

// Correct reports whether the outcome counts as a success.
func (o Outcome) Correct() bool {
	return o == OutcomeCorrectGo || o == OutcomeCorrectStop
}

// Phase tags a block with its role in the task.
type Phase string

const (
	PhasePracticeGo    Phase = "practice-go"
	PhasePracticeMixed Phase = "practice-mixed"
	PhaseMain          Phase = "main"
)

// IsPractice reports whether the phase is one of the practice phases.
func (p Phase) IsPractice() bool {
	return p == PhasePracticeGo || p == PhasePracticeMixed
}

// Method selects how the stop-signal delay is chosen.
type Method string

const (
	MethodStaircase Method = "staircase"
	MethodFixed     Method = "fixed"
)

// TrialOrder selects how trials are ordered within a block.
type TrialOrder string

const (
	OrderSequential TrialOrder = "sequential"
	OrderRandom     TrialOrder = "random"
)

// Key names a keyboard key as reported by the display.
type Key string

const (
	KeySpace  Key = "space"
	KeyEscape Key = "escape"
	KeyYes    Key = "y"
	KeyNo     Key = "n"
)

// SessionStatus represents the lifecycle status of a session.
type SessionStatus string

const (
	SessionStatusCreated   SessionStatus = "CREATED"
	SessionStatusRunning   SessionStatus = "RUNNING"
	SessionStatusCompleted SessionStatus = "COMPLETED"
	SessionStatusAborted   SessionStatus = "ABORTED"
	SessionStatusDeclined  SessionStatus = "DECLINED"
	SessionStatusFailed    SessionStatus = "FAILED"
)

// Terminal reports whether no further transitions are possible.
func (s SessionStatus) Terminal() bool {
	switch s {
	case SessionStatusCompleted, SessionStatusAborted, SessionStatusDeclined, SessionStatusFailed:
		return true
	default:
		return false
	}
}

// MarshalJSON encodes the signal as its record value.
func (s Signal) MarshalJSON() ([]byte, error) {
	return json.Marshal(int(s))
}

// UnmarshalJSON accepts 0/1 as well as "go"/"stop".
func (s *Signal) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*s = Signal(n)
		return nil
	}
	var name string
	if err := json.Unmarshal(data, &name); err != nil {
		return fmt.Errorf("signal must be 0, 1, \"go\" or \"stop\"")
	}
	switch name {
	case "go":
		*s = SignalGo
	case "stop":
		*s = SignalStop
	default:
		return fmt.Errorf("unknown signal %q", name)
	}
	return nil
}
