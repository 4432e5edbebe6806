// Package presentation defines the write-only display contract driven by the
// trial executor, and the pure geometry it sends.
package presentation

import (
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// TargetColor is the colour state of the target arrows.
type TargetColor string

const (
	TargetNeutral TargetColor = "neutral"
	TargetSuccess TargetColor = "success"
	TargetFailure TargetColor = "failure"
)

// NoticeKind selects a full-screen or side message.
type NoticeKind string

const (
	NoticeInstructions  NoticeKind = "instructions"
	NoticePracticeIntro NoticeKind = "practice_intro"
	NoticePracticeGo    NoticeKind = "practice_go"
	NoticePracticeMixed NoticeKind = "practice_mixed"
	NoticePressAndHold  NoticeKind = "press_and_hold"
	NoticeTooSoon       NoticeKind = "too_soon"
	NoticeWrongKey      NoticeKind = "wrong_key"
	NoticeComprehension NoticeKind = "comprehension"
	NoticeBlockComplete NoticeKind = "block_complete"
	NoticeEnd           NoticeKind = "end"
)

// Notice is a message shown to the participant.
type Notice struct {
	Kind NoticeKind `json:"kind"`
	// Block and Blocks are set on NoticeBlockComplete.
	Block  int `json:"block,omitempty"`
	Blocks int `json:"blocks,omitempty"`
}

// Feedback is the per-trial feedback category.
type Feedback struct {
	Outcome domain.Outcome
	// TargetOffset is the distance between the release and the target time on
	// correct Go trials.
	TargetOffset time.Duration
}

// Surface receives draw commands. The executor never reads from it.
type Surface interface {
	SetBarHeight(fraction float64, geometry Geometry)
	SetTargetColor(color TargetColor)
	// ShowCountdownDigit shows n, or hides the digit when n is 0.
	ShowCountdownDigit(n int)
	ShowFeedback(feedback Feedback)
	ShowNotice(notice Notice)
	ClearTrialVisuals()
}

// Nop discards every command.
type Nop struct{}

func (Nop) SetBarHeight(float64, Geometry) {}
func (Nop) SetTargetColor(TargetColor)     {}
func (Nop) ShowCountdownDigit(int)         {}
func (Nop) ShowFeedback(Feedback)          {}
func (Nop) ShowNotice(Notice)              {}
func (Nop) ClearTrialVisuals()             {}
