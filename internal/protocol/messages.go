// Package protocol defines the WebSocket message protocol between the task
// server, the participant display and experimenter monitors.
package protocol

import (
	"encoding/json"

	"github.com/IngeLeu/OSARI/internal/presentation"
)

// Message types from client to server
const (
	TypeHello = "hello"
	TypeKey   = "key"
)

// Message types from server to client
const (
	TypeHelloAck    = "hello_ack"
	TypeBar         = "bar"
	TypeTarget      = "target"
	TypeCountdown   = "countdown"
	TypeFeedback    = "feedback"
	TypeNotice      = "notice"
	TypeClear       = "clear"
	TypeTrialRecord = "trial_record"
	TypeSessionDone = "session_done"
	TypeError       = "error"
)

// Connection roles
const (
	RoleDisplay = "display"
	RoleMonitor = "monitor"
)

// Key actions
const (
	KeyPress   = "press"
	KeyRelease = "release"
)

// BaseMessage contains common fields for all messages.
type BaseMessage struct {
	Type      string `json:"type"`
	Ts        int64  `json:"ts"`
	SessionID string `json:"session_id,omitempty"`
}

// HelloMessage binds a connection to a session.
type HelloMessage struct {
	BaseMessage
	Role string `json:"role,omitempty"` // "display" (default) or "monitor"
}

// HelloAckMessage is sent after a successful hello.
type HelloAckMessage struct {
	BaseMessage
	Role string `json:"role"`
}

// KeyMessage is a key going down or up on the display.
type KeyMessage struct {
	BaseMessage
	Key    string `json:"key"`
	Action string `json:"action"` // "press" or "release"
}

// BarMessage redraws the bar.
type BarMessage struct {
	BaseMessage
	Fraction float64               `json:"fraction"`
	Geometry presentation.Geometry `json:"geometry"`
}

// TargetMessage recolours the target arrows.
type TargetMessage struct {
	BaseMessage
	Color presentation.TargetColor `json:"color"`
}

// CountdownMessage shows a countdown digit; 0 hides it.
type CountdownMessage struct {
	BaseMessage
	Digit int `json:"digit"`
}

// FeedbackMessage carries the per-trial feedback.
type FeedbackMessage struct {
	BaseMessage
	Outcome        string `json:"outcome"`
	Text           string `json:"text"`
	TargetOffsetMs int64  `json:"target_offset_ms,omitempty"`
}

// NoticeMessage shows an instruction or status screen.
type NoticeMessage struct {
	BaseMessage
	presentation.Notice
	Text string `json:"text"`
}

// ClearMessage removes the bar, digit and feedback.
type ClearMessage struct {
	BaseMessage
}

// TrialRecordMessage is sent after each reported trial.
type TrialRecordMessage struct {
	BaseMessage
	Record   json.RawMessage `json:"record"`
	Outcome  string          `json:"outcome"`
	Restarts int             `json:"restarts,omitempty"`
}

// SessionDoneMessage is sent once when the session ends.
type SessionDoneMessage struct {
	BaseMessage
	Status  string          `json:"status"`
	Error   string          `json:"error,omitempty"`
	Summary json.RawMessage `json:"summary,omitempty"`
}

// ErrorMessage is sent when a client message cannot be handled.
type ErrorMessage struct {
	BaseMessage
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrorCodeInvalidMessage  = "invalid_message"
	ErrorCodeSessionRequired = "session_required"
	ErrorCodeSessionNotFound = "session_not_found"
	ErrorCodeNotRunning      = "session_not_running"
	ErrorCodeForbidden       = "forbidden"
)
