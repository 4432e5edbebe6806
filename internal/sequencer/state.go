package sequencer

import (
	"fmt"
	"time"

	"github.com/petermattis/goid"

	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/staircase"
	"github.com/IngeLeu/OSARI/internal/trial"
)

// State is the sequencer's mutable state. It belongs to the goroutine that
// runs the session loop; any other goroutine touching it gets an error.
type State struct {
	owner int64
	cfg   domain.TaskConfig

	Block     Block
	Trial     int
	Staircase staircase.State
	// Last is the outcome of the previous trial, cleared once the staircase
	// has consumed it.
	Last    domain.Outcome
	Records []domain.TrialRecord
	// Delays holds the delay in force for each Stop trial, in order.
	Delays []time.Duration
}

// NewState creates the state for cfg, owned by the calling goroutine.
func NewState(cfg domain.TaskConfig) *State {
	return &State{
		owner:     goid.Get(),
		cfg:       cfg,
		Staircase: staircase.NewState(cfg),
	}
}

func (s *State) checkOwner() error {
	if gid := goid.Get(); gid != s.owner {
		return fmt.Errorf("sequencer state used from goroutine %d, owned by %d", gid, s.owner)
	}
	return nil
}

// enterBlock makes b current. Entering the first main block after practice
// resets the staircase to its initial delay and forgets the last outcome.
func (s *State) enterBlock(b Block) error {
	if err := s.checkOwner(); err != nil {
		return err
	}
	if b.Phase == domain.PhaseMain && b.MainIndex == 1 && s.Block.Phase.IsPractice() {
		s.Staircase.Current = s.cfg.InitialDelay
		s.Last = domain.OutcomeNone
	}
	s.Block = b
	s.Trial = 0
	return nil
}

// nextTrial consults the staircase with the previous outcome and returns the
// parameters for the next trial of the current block.
func (s *State) nextTrial(spec domain.TrialSpec) (trial.Params, error) {
	if err := s.checkOwner(); err != nil {
		return trial.Params{}, err
	}
	s.Staircase = s.Staircase.Advance(s.Last)
	s.Last = domain.OutcomeNone
	s.Trial++

	p := trial.Params{
		Position: trial.Position{Block: s.Block.Index, Phase: s.Block.Phase, Trial: s.Trial},
		Signal:   spec.Signal,
	}
	if spec.Signal == domain.SignalStop {
		p.Delay = staircase.DelayFor(s.Staircase, spec)
		s.Delays = append(s.Delays, p.Delay)
	}
	return p, nil
}

// complete folds a reported trial back into the state. It must be called
// exactly once per reported trial, before the next call to nextTrial.
func (s *State) complete(res trial.Result) error {
	if err := s.checkOwner(); err != nil {
		return err
	}
	s.Last = res.Outcome
	s.Records = append(s.Records, res.Record)
	return nil
}
