// Package staircase implements the 1-up/1-down stop-signal delay staircase.
//
// A successful stop pushes the next delay later (harder), a failed stop pulls
// it earlier (easier); the delay converges on the point where stopping
// succeeds about half of the time. Everything here is a pure function of its
// arguments.
package staircase

import (
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// State is the staircase state threaded from trial to trial.
type State struct {
	Method    domain.Method
	Current   time.Duration
	Step      time.Duration
	Lower     time.Duration
	Upper     time.Duration
	Precision time.Duration
}

// NewState returns the initial state for a configuration.
func NewState(cfg domain.TaskConfig) State {
	return State{
		Method:    cfg.Method,
		Current:   cfg.InitialDelay,
		Step:      cfg.StepSize,
		Lower:     cfg.LowerBound,
		Upper:     cfg.UpperBound,
		Precision: cfg.BoundPrecision,
	}
}

// Next returns the delay that follows s given the outcome of the previous
// trial. Under the fixed method the history is ignored and Current is
// returned unchanged.
func Next(s State, last domain.Outcome) time.Duration {
	if s.Method != domain.MethodStaircase {
		return s.Current
	}

	switch last {
	case domain.OutcomeIncorrectStop:
		if s.round(s.Current) <= s.round(s.Lower) {
			return s.Lower
		}
		next := s.Current - s.Step
		if s.round(next) < s.round(s.Lower) {
			return s.Lower
		}
		return next
	case domain.OutcomeCorrectStop:
		if s.round(s.Current) >= s.round(s.Upper) {
			return s.Upper
		}
		next := s.Current + s.Step
		if s.round(next) > s.round(s.Upper) {
			return s.Upper
		}
		return next
	default:
		return s.Current
	}
}

// Advance returns a copy of s with Current moved by Next.
func (s State) Advance(last domain.Outcome) State {
	s.Current = Next(s, last)
	return s
}

// DelayFor returns the delay a trial should use: the trial's fixed delay under
// the fixed method, the running staircase value otherwise.
func DelayFor(s State, spec domain.TrialSpec) time.Duration {
	if s.Method == domain.MethodFixed && spec.FixedDelay != nil {
		return *spec.FixedDelay
	}
	return s.Current
}

// Deadline returns the time until which the bar rises on a trial: the full
// trial duration on Go trials, the stop-signal delay on Stop trials.
func Deadline(signal domain.Signal, delay, trialDuration time.Duration) time.Duration {
	if signal == domain.SignalStop {
		return delay
	}
	return trialDuration
}

func (s State) round(d time.Duration) time.Duration {
	if s.Precision <= 0 {
		return d
	}
	return d.Round(s.Precision)
}
