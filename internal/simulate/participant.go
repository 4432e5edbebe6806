// Package simulate provides a scripted participant that plays the task on a
// simulated clock, for pilot runs and tests.
package simulate

import (
	"math/rand/v2"
	"time"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/presentation"
)

// Keys is the side of the input buffer a participant presses.
type Keys interface {
	Press(key domain.Key)
	Release(key domain.Key)
}

// Response is how the participant plays one trial.
type Response struct {
	// Release is the trial time at which the key is let go. Nil holds the key
	// to the end of the trial.
	Release *time.Duration
	// StopLatency, when set, is how long the participant needs to cancel a
	// planned release after seeing the bar stop. The release is withheld if
	// cancelling finishes before it.
	StopLatency *time.Duration
	// EarlyLifts is how many countdowns are abandoned before holding through.
	EarlyLifts int
	// Escape presses the interrupt key at this trial time.
	Escape *time.Duration
}

// Script picks the response for the n-th trial of the session, from zero.
type Script func(n int) Response

// ReleaseAt lets go at d.
func ReleaseAt(d time.Duration) Response {
	return Response{Release: &d}
}

// Hold keeps the key down for the whole trial.
func Hold() Response {
	return Response{}
}

// Constant plays every trial the same way.
func Constant(r Response) Script {
	return func(int) Response { return r }
}

// Sequence plays the given responses in order and holds after the last one.
func Sequence(rs ...Response) Script {
	return func(n int) Response {
		if n < len(rs) {
			return rs[n]
		}
		return Hold()
	}
}

// HorseRace models a participant aiming at the target with some spread who
// tries to cancel when the bar stops, with a stop latency around 220ms.
func HorseRace(cfg domain.TaskConfig, seed uint64) Script {
	r := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	target := cfg.TargetTime()
	return func(int) Response {
		release := target + time.Duration(r.NormFloat64()*float64(40*time.Millisecond))
		if release < 100*time.Millisecond {
			release = 100 * time.Millisecond
		}
		latency := 220*time.Millisecond + time.Duration(r.NormFloat64()*float64(20*time.Millisecond))
		return Response{Release: &release, StopLatency: &latency}
	}
}

type action struct {
	key   domain.Key
	press bool
}

// Participant implements presentation.Surface: it watches what the task
// shows and answers with key events on later simulated frames. It must be
// driven from the control-loop goroutine.
type Participant struct {
	clock      *clock.Manual
	keys       Keys
	next       presentation.Surface
	script     Script
	controlKey domain.Key
	understand bool

	queue   []action
	holding bool
	trial   int
	cur     Response
	lifts   int
	draws   int
	last    float64
	stopAt  *time.Duration
	escaped bool
}

// Option configures a Participant.
type Option func(*Participant)

func WithScript(s Script) Option {
	return func(p *Participant) { p.script = s }
}

// WithComprehension sets the answer to the comprehension check.
func WithComprehension(understands bool) Option {
	return func(p *Participant) { p.understand = understands }
}

// WithSurface forwards every command to next after the participant saw it.
func WithSurface(next presentation.Surface) Option {
	return func(p *Participant) { p.next = next }
}

func WithControlKey(k domain.Key) Option {
	return func(p *Participant) { p.controlKey = k }
}

// NewParticipant attaches a participant to a simulated frame source.
func NewParticipant(c *clock.Manual, frames *clock.Simulated, keys Keys, opts ...Option) *Participant {
	p := &Participant{
		clock:      c,
		keys:       keys,
		next:       presentation.Nop{},
		script:     Constant(Hold()),
		controlKey: domain.KeySpace,
		understand: true,
	}
	for _, opt := range opts {
		opt(p)
	}
	frames.OnFrame(p.onFrame)
	return p
}

// Trials returns how many trials the participant has seen finish.
func (p *Participant) Trials() int {
	return p.trial
}

func (p *Participant) onFrame() {
	if p.draws >= 2 && p.holding {
		elapsed := p.clock.Elapsed()
		if p.cur.Escape != nil && !p.escaped && elapsed >= *p.cur.Escape {
			p.escaped = true
			p.keys.Press(domain.KeyEscape)
			return
		}
		if p.releaseDue(elapsed) {
			p.exec(action{key: p.controlKey})
			return
		}
	}
	if len(p.queue) > 0 {
		a := p.queue[0]
		p.queue = p.queue[1:]
		p.exec(a)
	}
}

func (p *Participant) releaseDue(elapsed time.Duration) bool {
	if p.cur.Release == nil || elapsed < *p.cur.Release {
		return false
	}
	if p.stopAt != nil && p.cur.StopLatency != nil && *p.stopAt+*p.cur.StopLatency <= *p.cur.Release {
		return false
	}
	return true
}

func (p *Participant) exec(a action) {
	if a.press {
		p.keys.Press(a.key)
	} else {
		p.keys.Release(a.key)
	}
	if a.key == p.controlKey {
		p.holding = a.press
	}
}

func (p *Participant) enqueue(as ...action) {
	p.queue = append(p.queue, as...)
}

func (p *Participant) tap(k domain.Key) {
	p.enqueue(action{key: k, press: true}, action{key: k})
}

func (p *Participant) SetBarHeight(fraction float64, geometry presentation.Geometry) {
	p.draws++
	if p.draws > 2 && p.stopAt == nil && fraction > 0 && fraction < 1 && fraction == p.last {
		seen := p.clock.Elapsed()
		p.stopAt = &seen
	}
	p.last = fraction
	p.next.SetBarHeight(fraction, geometry)
}

func (p *Participant) SetTargetColor(color presentation.TargetColor) {
	if color != presentation.TargetNeutral {
		p.trial++
		p.draws = 0
		p.last = 0
		p.stopAt = nil
	}
	p.next.SetTargetColor(color)
}

func (p *Participant) ShowCountdownDigit(n int) {
	if n == 3 && p.holding && p.lifts < p.cur.EarlyLifts {
		p.lifts++
		p.enqueue(action{key: p.controlKey})
	}
	p.next.ShowCountdownDigit(n)
}

func (p *Participant) ShowFeedback(feedback presentation.Feedback) {
	p.next.ShowFeedback(feedback)
}

func (p *Participant) ShowNotice(notice presentation.Notice) {
	switch notice.Kind {
	case presentation.NoticePressAndHold:
		p.cur = p.script(p.trial)
		p.lifts = 0
		p.draws = 0
		p.escaped = false
		p.enqueue(action{key: p.controlKey, press: true})
	case presentation.NoticeTooSoon:
		p.enqueue(action{key: p.controlKey, press: true})
	case presentation.NoticeComprehension:
		if p.understand {
			p.tap(domain.KeyYes)
		} else {
			p.tap(domain.KeyNo)
		}
	case presentation.NoticeWrongKey, presentation.NoticeEnd:
	default:
		p.tap(p.controlKey)
	}
	p.next.ShowNotice(notice)
}

func (p *Participant) ClearTrialVisuals() {
	if p.holding {
		p.enqueue(action{key: p.controlKey})
	}
	p.next.ClearTrialVisuals()
}
