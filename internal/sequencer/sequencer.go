package sequencer

import (
	"context"
	"errors"
	"time"

	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/input"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/trial"
)

// TrialRunner executes one trial. *trial.Executor implements it.
type TrialRunner interface {
	Run(ctx context.Context, p trial.Params) (trial.Result, error)
}

// Result is how a session ended.
type Result struct {
	Status  domain.SessionStatus
	Records []domain.TrialRecord
	// Delays is the delay used on each Stop trial, in order.
	Delays []time.Duration
	// FinalDelay is the staircase value when the session ended.
	FinalDelay time.Duration
}

// Sequencer runs the blocks of one session on the calling goroutine.
type Sequencer struct {
	cfg     domain.TaskConfig
	runner  TrialRunner
	input   input.Source
	frames  clock.FrameSource
	clock   clock.Clock
	surface presentation.Surface
	logger  *log.Logger

	onTrial func(Block, trial.Result)
}

// Option configures a Sequencer.
type Option func(*Sequencer)

func WithLogger(l *log.Logger) Option {
	return func(s *Sequencer) {
		if l != nil {
			s.logger = l
		}
	}
}

// OnTrial is called on the loop goroutine after each reported trial.
func OnTrial(fn func(Block, trial.Result)) Option {
	return func(s *Sequencer) { s.onTrial = fn }
}

func New(cfg domain.TaskConfig, runner TrialRunner, c clock.Clock, frames clock.FrameSource, in input.Source, surface presentation.Surface, opts ...Option) *Sequencer {
	s := &Sequencer{
		cfg:     cfg,
		runner:  runner,
		input:   in,
		frames:  frames,
		clock:   c,
		surface: surface,
		logger:  logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run plays the whole session. Completion, a declined comprehension check
// and an interrupt are reported through Result.Status with a nil error; a
// non-nil error means the session failed (Status Failed).
func (s *Sequencer) Run(ctx context.Context) (Result, error) {
	state := NewState(s.cfg)
	blocks := Plan(s.cfg, NewRand(s.cfg.Seed))

	status, err := s.run(ctx, state, blocks)
	res := Result{
		Status:     status,
		Records:    state.Records,
		Delays:     state.Delays,
		FinalDelay: state.Staircase.Current,
	}
	switch {
	case err == nil:
		s.logger.Infof("session finished: %s after %d trials", res.Status, len(res.Records))
		return res, nil
	case !errors.Is(err, domain.ErrSinkWrite) && ctx.Err() != nil:
		res.Status = domain.SessionStatusAborted
		s.logger.Warnf("session aborted after %d trials: %v", len(res.Records), context.Cause(ctx))
		return res, nil
	default:
		res.Status = domain.SessionStatusFailed
		s.logger.Errorf("session failed after %d trials: %v", len(res.Records), err)
		return res, err
	}
}

func (s *Sequencer) run(ctx context.Context, state *State, blocks []Block) (domain.SessionStatus, error) {
	if err := s.confirm(ctx, presentation.Notice{Kind: presentation.NoticeInstructions}); err != nil {
		return "", err
	}
	if s.cfg.PracticeEnabled {
		if err := s.confirm(ctx, presentation.Notice{Kind: presentation.NoticePracticeIntro}); err != nil {
			return "", err
		}
	}

	for _, b := range blocks {
		var err error
		switch {
		case b.Phase == domain.PhasePracticeGo:
			err = s.confirm(ctx, presentation.Notice{Kind: presentation.NoticePracticeGo})
		case b.Phase == domain.PhasePracticeMixed:
			err = s.confirm(ctx, presentation.Notice{Kind: presentation.NoticePracticeMixed})
		case b.MainIndex == 1:
			var understood bool
			if understood, err = s.comprehension(ctx); err == nil && !understood {
				s.logger.Infof("comprehension check declined")
				s.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeEnd})
				return domain.SessionStatusDeclined, nil
			}
		default:
			err = s.confirm(ctx, presentation.Notice{
				Kind:   presentation.NoticeBlockComplete,
				Block:  b.MainIndex - 1,
				Blocks: s.cfg.MainBlocks,
			})
		}
		if err != nil {
			return "", err
		}

		if err := state.enterBlock(b); err != nil {
			return "", err
		}
		s.logger.Infof("block %d (%s): %d trials, delay %s", b.Index, b.Phase, len(b.Trials), state.Staircase.Current)

		for _, spec := range b.Trials {
			p, err := state.nextTrial(spec)
			if err != nil {
				return "", err
			}
			res, err := s.runner.Run(ctx, p)
			if res.Reported {
				if cerr := state.complete(res); cerr != nil {
					return "", cerr
				}
				s.logger.Debugf("%s", res.Record)
				if s.onTrial != nil {
					s.onTrial(b, res)
				}
			}
			if err != nil {
				return "", err
			}
		}
	}

	s.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeEnd})
	return domain.SessionStatusCompleted, nil
}

func (s *Sequencer) confirm(ctx context.Context, n presentation.Notice) error {
	s.surface.ShowNotice(n)
	_, err := s.waitFor(ctx, s.cfg.ControlKey)
	return err
}

func (s *Sequencer) comprehension(ctx context.Context) (bool, error) {
	s.surface.ShowNotice(presentation.Notice{Kind: presentation.NoticeComprehension})
	key, err := s.waitFor(ctx, domain.KeyYes, domain.KeyNo)
	if err != nil {
		return false, err
	}
	return key == domain.KeyYes, nil
}

// waitFor blocks frame by frame until one of keys is pressed.
func (s *Sequencer) waitFor(ctx context.Context, keys ...domain.Key) (domain.Key, error) {
	s.input.Start()
	s.input.ClearBuffered()
	defer s.input.Stop()

	since := s.clock.Now()
	for {
		for _, ev := range s.input.Poll(keys...) {
			if !ev.PressedAt.Before(since) {
				return ev.Key, nil
			}
		}
		if err := s.frames.Next(ctx); err != nil {
			return "", err
		}
	}
}
