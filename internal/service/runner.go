package service

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"time"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/input"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/metrics"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/protocol"
	"github.com/IngeLeu/OSARI/internal/repository"
	"github.com/IngeLeu/OSARI/internal/sequencer"
	"github.com/IngeLeu/OSARI/internal/simulate"
	"github.com/IngeLeu/OSARI/internal/sink"
	"github.com/IngeLeu/OSARI/internal/trial"
	"github.com/IngeLeu/OSARI/internal/ws"
)

// SimulateRequest tunes a simulated run.
type SimulateRequest struct {
	// Seed drives the simulated participant; the session's own seed is used
	// when unset.
	Seed *uint64 `json:"seed,omitempty"`
	// Understands is the answer to the comprehension check, yes by default.
	Understands *bool `json:"understands,omitempty"`
}

// environment is what a control loop runs against.
type environment struct {
	clock   clock.Clock
	frames  clock.FrameSource
	input   *input.Buffer
	surface presentation.Surface
	// live sessions take their keys from the display connection.
	live    bool
	release func()
}

// StartSession runs a created session against the participant display on
// the system clock.
func (s *Service) StartSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	return s.launch(ctx, sessionID, func(session *domain.Session, abort func()) environment {
		clk := clock.NewSystem()
		ticker := clock.NewTicker(clock.IntervalForRate(s.config.FrameRateHz))
		return environment{
			clock:   clk,
			frames:  ticker,
			input:   input.NewBuffer(clk, input.WithInterrupt(domain.KeyEscape, abort)),
			surface: ws.NewSurface(s.hub, session.SessionID),
			live:    true,
			release: ticker.Stop,
		}
	})
}

// SimulateSession runs a created session with a simulated participant on a
// virtual clock. It finishes in a fraction of the real session time.
func (s *Service) SimulateSession(ctx context.Context, sessionID string, req SimulateRequest) (*domain.Session, error) {
	return s.launch(ctx, sessionID, func(session *domain.Session, abort func()) environment {
		interval := s.config.SimFrameInterval
		if interval <= 0 {
			interval = clock.IntervalForRate(s.config.FrameRateHz)
		}
		clk := clock.NewManual(time.Now())
		frames := clock.NewSimulated(clk, interval)
		in := input.NewBuffer(clk, input.WithInterrupt(domain.KeyEscape, abort))

		cfg := session.Config
		seed := cfg.Seed
		if req.Seed != nil {
			seed = *req.Seed
		}
		understands := true
		if req.Understands != nil {
			understands = *req.Understands
		}
		participant := simulate.NewParticipant(clk, frames, in,
			simulate.WithScript(simulate.HorseRace(cfg, seed)),
			simulate.WithComprehension(understands),
			simulate.WithControlKey(cfg.ControlKey),
		)
		return environment{clock: clk, frames: frames, input: in, surface: participant}
	})
}

func (s *Service) launch(ctx context.Context, sessionID string, build func(session *domain.Session, abort func()) environment) (*domain.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.running[sessionID]; ok {
		return nil, fmt.Errorf("%w: session %s is already running", domain.ErrSessionState, sessionID)
	}
	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusCreated {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrSessionState, sessionID, session.Status)
	}

	file, err := sink.OpenTSV(filepath.Join(s.config.DataDir, sink.FileName(session.ParticipantID, session.SessionID)))
	if err != nil {
		return nil, fmt.Errorf("failed to open record file: %w", err)
	}

	startedAt := time.Now()
	if err := s.store.UpdateSessionStarted(ctx, sessionID, startedAt); err != nil {
		file.Close()
		return nil, fmt.Errorf("failed to mark session started: %w", err)
	}

	runCtx, cancel := context.WithCancelCause(context.Background())
	env := build(session, func() { cancel(domain.ErrAborted) })
	rt := &runtime{cancel: cancel, done: make(chan struct{})}
	if env.live {
		rt.keys = env.input
	}
	s.running[sessionID] = rt

	out := sink.Multi{file, store.NewTrialSink(s.store, sessionID)}
	s.wg.Add(1)
	go s.run(runCtx, *session, env, out, file, rt)

	s.logger.Infof("session %s started (live=%v), records in %s", sessionID, env.live, file.Path())
	session.Status = domain.SessionStatusRunning
	session.StartedAt = &startedAt
	return session, nil
}

// run is the session's control loop goroutine.
func (s *Service) run(ctx context.Context, session domain.Session, env environment, out sink.Sink, file *sink.TSVFile, rt *runtime) {
	defer s.wg.Done()

	id := session.SessionID
	cfg := session.Config
	logger := logging.Named(s.logger, id)

	exec := trial.NewExecutor(cfg, env.clock, env.frames, env.input, env.surface, out, trial.WithLogger(logger))
	seq := sequencer.New(cfg, exec, env.clock, env.frames, env.input, env.surface,
		sequencer.WithLogger(logger),
		sequencer.OnTrial(func(_ sequencer.Block, res trial.Result) {
			s.publishTrial(id, res)
		}),
	)

	res, runErr := seq.Run(ctx)

	if env.release != nil {
		env.release()
	}
	if err := file.Close(); err != nil {
		logger.Warnf("failed to close record file: %v", err)
	}

	var summary json.RawMessage
	if raw, err := json.Marshal(metrics.Summarize(res.Records, cfg.TargetTime())); err == nil {
		summary = raw
	}
	errMsg := ""
	if runErr != nil {
		errMsg = runErr.Error()
	}
	if err := s.store.UpdateSessionFinished(context.Background(), id, res.Status, time.Now(), errMsg, summary); err != nil {
		logger.Errorf("failed to record session end: %v", err)
	}
	s.publishDone(id, res.Status, errMsg, summary)

	s.mu.Lock()
	delete(s.running, id)
	s.mu.Unlock()
	rt.cancel(nil)
	close(rt.done)
}

func (s *Service) publishTrial(sessionID string, res trial.Result) {
	if s.hub == nil {
		return
	}
	record, err := json.Marshal(res.Record)
	if err != nil {
		s.logger.Warnf("failed to encode trial record: %v", err)
		return
	}
	s.hub.BroadcastJSON(sessionID, protocol.TrialRecordMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeTrialRecord,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Record:   record,
		Outcome:  string(res.Outcome),
		Restarts: res.Restarts,
	})
}

func (s *Service) publishDone(sessionID string, status domain.SessionStatus, errMsg string, summary json.RawMessage) {
	if s.hub == nil {
		return
	}
	s.hub.BroadcastJSON(sessionID, protocol.SessionDoneMessage{
		BaseMessage: protocol.BaseMessage{
			Type:      protocol.TypeSessionDone,
			Ts:        time.Now().UnixMilli(),
			SessionID: sessionID,
		},
		Status:  string(status),
		Error:   errMsg,
		Summary: summary,
	})
}
