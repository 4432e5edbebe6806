package trial

import (
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// Position identifies a trial within the session.
type Position struct {
	Block int
	Phase domain.Phase
	Trial int
}

// Observation is everything the running phase produced for classification.
type Observation struct {
	Signal domain.Signal
	// Delay is the stop-signal delay in force. Unused on Go trials.
	Delay    time.Duration
	Released bool
	// ReleaseTime is measured from the trial clock reset. Only meaningful when
	// Released is true.
	ReleaseTime time.Duration
}

// Terminal returns the state the running phase ended in.
func (o Observation) Terminal() State {
	if o.Released {
		return StateReleased
	}
	return StateExpired
}

// Classify maps an observation to its outcome. A release on a Stop trial is
// a failed stop wherever it falls inside the trial: the participant had to
// hold until the end, so passing the delay never turns it into a success.
func Classify(o Observation) domain.Outcome {
	switch {
	case o.Signal == domain.SignalGo && o.Released:
		return domain.OutcomeCorrectGo
	case o.Signal == domain.SignalGo:
		return domain.OutcomeIncorrectGo
	case o.Released:
		return domain.OutcomeIncorrectStop
	default:
		return domain.OutcomeCorrectStop
	}
}

// BuildRecord constructs the record for a classified trial. It is a pure
// function of its arguments.
func BuildRecord(pos Position, o Observation) domain.TrialRecord {
	rec := domain.TrialRecord{
		Block:    pos.Block,
		Label:    pos.Phase,
		Trial:    pos.Trial,
		Signal:   o.Signal,
		Released: o.Released,
		Outcome:  Classify(o),
	}
	if o.Signal == domain.SignalStop {
		ssd := o.Delay
		rec.SSD = &ssd
	}
	if o.Released {
		rt := o.ReleaseTime
		rec.RT = &rt
	}
	return rec
}

// TargetOffset is the absolute distance between a release and the target.
func TargetOffset(releaseTime, target time.Duration) time.Duration {
	if d := target - releaseTime; d >= 0 {
		return d
	}
	return releaseTime - target
}
