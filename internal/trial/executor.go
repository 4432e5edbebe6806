package trial

import (
	"context"
	"fmt"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/input"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/sink"
	"github.com/IngeLeu/OSARI/internal/staircase"
)

const (
	countdownDigits = 3
	countdownStep   = time.Second
)

// Params is the per-trial input from the sequencer.
type Params struct {
	Position Position
	Signal   domain.Signal
	// Delay is the stop-signal delay for Stop trials.
	Delay time.Duration
}

// Result is what a trial hands back to the sequencer.
type Result struct {
	Record  domain.TrialRecord
	Outcome domain.Outcome
	// Reported is set once the record has been accepted by the sink.
	Reported bool
	// Restarts counts countdowns abandoned because the key was lifted early.
	Restarts int
}

// Executor runs trials one at a time on the control-loop goroutine.
type Executor struct {
	cfg     domain.TaskConfig
	clock   clock.Clock
	frames  clock.FrameSource
	input   input.Source
	surface presentation.Surface
	sink    sink.Sink

	logger       *log.Logger
	onTransition func(pos Position, from, to State)
}

// Option configures an Executor.
type Option func(*Executor)

func WithLogger(l *log.Logger) Option {
	return func(e *Executor) {
		if l != nil {
			e.logger = l
		}
	}
}

// WithTransitionHook is called after every state change.
func WithTransitionHook(fn func(pos Position, from, to State)) Option {
	return func(e *Executor) { e.onTransition = fn }
}

// NewExecutor creates an executor for one session's configuration.
func NewExecutor(cfg domain.TaskConfig, c clock.Clock, frames clock.FrameSource, in input.Source, surface presentation.Surface, out sink.Sink, opts ...Option) *Executor {
	e := &Executor{
		cfg:     cfg,
		clock:   c,
		frames:  frames,
		input:   in,
		surface: surface,
		sink:    out,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Run executes one trial. A cancelled context ends the trial at the next
// frame; when that happens before the record reached the sink no record is
// produced. The returned error is the context's cancel cause in that case.
func (e *Executor) Run(ctx context.Context, p Params) (Result, error) {
	var res Result
	m := newMachine(func(from, to State) {
		e.logger.Debugf("block %d trial %d: %s -> %s", p.Position.Block, p.Position.Trial, from, to)
		if e.onTransition != nil {
			e.onTransition(p.Position, from, to)
		}
	})

	e.input.Start()
	e.input.ClearBuffered()
	defer e.input.Stop()

	e.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticePressAndHold})
	hold, err := e.waitForHold(ctx)
	if err != nil {
		return res, err
	}

	if e.cfg.CountdownEnabled {
		for {
			if err := m.to(StateCountingDown); err != nil {
				return res, err
			}
			held, err := e.countdown(ctx, hold)
			if err != nil {
				return res, err
			}
			if held {
				break
			}
			res.Restarts++
			if err := m.to(StateArmed); err != nil {
				return res, err
			}
			e.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeTooSoon})
			if hold, err = e.waitForHold(ctx); err != nil {
				return res, err
			}
		}
	}

	if err := m.to(StateRunning); err != nil {
		return res, err
	}
	obs, err := e.running(ctx, p, hold)
	if err != nil {
		return res, err
	}
	if err := m.to(obs.Terminal()); err != nil {
		return res, err
	}

	res.Outcome = Classify(obs)
	res.Record = BuildRecord(p.Position, obs)
	if err := m.to(StateClassified); err != nil {
		return res, err
	}
	e.input.Stop()

	e.surface.SetTargetColor(presentation.ColorFor(res.Outcome))
	if e.cfg.FeedbackEnabled {
		fb := presentation.Feedback{Outcome: res.Outcome}
		if res.Outcome == domain.OutcomeCorrectGo {
			fb.TargetOffset = TargetOffset(obs.ReleaseTime, e.cfg.TargetTime())
		}
		e.surface.ShowFeedback(fb)
	}

	// A classified trial is always flushed, even if an interrupt is pending.
	if err := e.sink.Write(context.WithoutCancel(ctx), res.Record); err != nil {
		return res, fmt.Errorf("%w: block %d trial %d: %w", domain.ErrSinkWrite, p.Position.Block, p.Position.Trial, err)
	}
	res.Reported = true
	if err := m.to(StateReported); err != nil {
		return res, err
	}

	if err := e.wait(ctx, e.cfg.InterTrialInterval); err != nil {
		return res, err
	}
	e.surface.ClearTrialVisuals()
	return res, nil
}

// waitForHold blocks frame by frame until the control key goes down. Only
// presses made after the call count, so a key still held from the previous
// trial has to be pressed again.
func (e *Executor) waitForHold(ctx context.Context) (input.Event, error) {
	since := e.clock.Now()
	var lastWrong time.Time
	for {
		completed := false
		for _, ev := range e.input.Poll() {
			if ev.Released() {
				completed = true
			}
			if ev.PressedAt.Before(since) {
				continue
			}
			if ev.Key == e.cfg.ControlKey {
				if !ev.Released() {
					return ev, nil
				}
				continue
			}
			if ev.PressedAt.After(lastWrong) {
				lastWrong = ev.PressedAt
				e.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeWrongKey})
			}
		}
		if completed {
			e.input.ClearBuffered()
		}
		if err := e.frames.Next(ctx); err != nil {
			return input.Event{}, err
		}
	}
}

// countdown shows 3, 2, 1 and a blank second while the key stays down. It
// reports false as soon as the key is lifted.
func (e *Executor) countdown(ctx context.Context, hold input.Event) (bool, error) {
	start := e.clock.Now()
	shown := -1
	for {
		if ev, ok := e.find(hold); !ok || ev.Released() {
			e.surface.ShowCountdownDigit(0)
			return false, nil
		}
		since := e.clock.Now().Sub(start)
		if since >= (countdownDigits+1)*countdownStep {
			return true, nil
		}
		if digit := countdownDigits - int(since/countdownStep); digit != shown {
			e.surface.ShowCountdownDigit(digit)
			shown = digit
		}
		if err := e.frames.Next(ctx); err != nil {
			return false, err
		}
	}
}

// running animates the bar until the key is released or the trial duration
// has elapsed. The clock is reset once the first frame has been presented.
func (e *Executor) running(ctx context.Context, p Params, hold input.Event) (Observation, error) {
	obs := Observation{Signal: p.Signal, Delay: p.Delay}
	deadline := staircase.Deadline(p.Signal, p.Delay, e.cfg.TrialDuration)

	e.draw(0)
	if err := e.frames.Next(ctx); err != nil {
		return obs, err
	}
	e.clock.Reset()
	ref := e.clock.ResetAt()

	for {
		if ev, ok := e.find(hold); ok {
			if rt, released := ev.ReleasedSince(ref); released {
				if rt < e.cfg.TrialDuration {
					obs.Released = true
					obs.ReleaseTime = rt
				}
				return obs, nil
			}
		}
		elapsed := e.clock.Elapsed()
		if elapsed >= e.cfg.TrialDuration {
			return obs, nil
		}
		e.draw(presentation.HeightFraction(elapsed, deadline, e.cfg.TrialDuration))
		if err := e.frames.Next(ctx); err != nil {
			return obs, err
		}
	}
}

func (e *Executor) draw(fraction float64) {
	e.surface.SetBarHeight(fraction, presentation.BarGeometry(fraction, e.cfg.Layout, e.cfg.TargetFraction))
}

// find returns the buffered state of the press that armed the trial.
func (e *Executor) find(hold input.Event) (input.Event, bool) {
	for _, ev := range e.input.Poll(hold.Key) {
		if ev.PressedAt.Equal(hold.PressedAt) {
			return ev, true
		}
	}
	return input.Event{}, false
}

// wait lets d pass frame by frame.
func (e *Executor) wait(ctx context.Context, d time.Duration) error {
	start := e.clock.Now()
	for e.clock.Now().Sub(start) < d {
		if err := e.frames.Next(ctx); err != nil {
			return err
		}
	}
	return nil
}
