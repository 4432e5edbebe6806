package sequencer

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngeLeu/OSARI/internal/clock"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/input"
	"github.com/IngeLeu/OSARI/internal/presentation"
	"github.com/IngeLeu/OSARI/internal/simulate"
	"github.com/IngeLeu/OSARI/internal/sink"
	"github.com/IngeLeu/OSARI/internal/trial"
)

func ms(n int) time.Duration { return time.Duration(n) * time.Millisecond }

type session struct {
	ctx    context.Context
	screen *simulate.Recorder
	mem    *sink.Memory
	seq    *Sequencer
}

func baseConfig(main ...domain.Signal) domain.TaskConfig {
	cfg := domain.DefaultTaskConfig()
	cfg.CountdownEnabled = false
	cfg.PracticeEnabled = false
	cfg.InterTrialInterval = ms(50)
	cfg.Order = domain.OrderSequential
	cfg.MainBlocks = 1
	cfg.MainTrials = nil
	for _, sig := range main {
		cfg.MainTrials = append(cfg.MainTrials, domain.TrialSpec{Signal: sig})
	}
	return cfg
}

func newSession(t *testing.T, cfg domain.TaskConfig, out sink.Sink, opts ...simulate.Option) *session {
	t.Helper()
	ctx, cancel := context.WithCancelCause(context.Background())
	t.Cleanup(func() { cancel(nil) })

	c := clock.NewManual(time.Unix(1_700_000_000, 0))
	frames := clock.NewSimulated(c, ms(10))
	buf := input.NewBuffer(c, input.WithInterrupt(domain.KeyEscape, func() { cancel(domain.ErrAborted) }))
	screen := simulate.NewRecorder()
	who := simulate.NewParticipant(c, frames, buf, append([]simulate.Option{simulate.WithSurface(screen)}, opts...)...)

	mem := sink.NewMemory()
	if out == nil {
		out = mem
	}
	exec := trial.NewExecutor(cfg, c, frames, buf, who, out)
	return &session{
		ctx:    ctx,
		screen: screen,
		mem:    mem,
		seq:    New(cfg, exec, c, frames, buf, who),
	}
}

func outcomes(records []domain.TrialRecord) []domain.Outcome {
	var out []domain.Outcome
	for _, r := range records {
		out = append(out, r.Outcome)
	}
	return out
}

func TestStaircaseScenarioEndToEnd(t *testing.T) {
	cfg := baseConfig(domain.SignalStop, domain.SignalStop, domain.SignalGo)
	s := newSession(t, cfg, nil, simulate.WithScript(simulate.Sequence(
		simulate.ReleaseAt(ms(300)),
		simulate.Hold(),
		simulate.ReleaseAt(ms(400)),
	)))

	res, err := s.seq.Run(s.ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusCompleted, res.Status)
	assert.Equal(t, []time.Duration{ms(500), ms(475)}, res.Delays)
	assert.Equal(t, []domain.Outcome{
		domain.OutcomeIncorrectStop,
		domain.OutcomeCorrectStop,
		domain.OutcomeCorrectGo,
	}, outcomes(res.Records))

	require.Len(t, res.Records, 3)
	assert.Equal(t, ms(500), *res.Records[0].SSD)
	assert.Equal(t, ms(475), *res.Records[1].SSD)
	assert.Nil(t, res.Records[2].SSD)
	assert.Equal(t, ms(400), *res.Records[2].RT)
	assert.Equal(t, res.Records, s.mem.Records())

	for i, r := range res.Records {
		assert.Equal(t, 1, r.Block)
		assert.Equal(t, i+1, r.Trial)
		assert.Equal(t, domain.PhaseMain, r.Label)
	}
}

func TestPracticeToMainResetsDelay(t *testing.T) {
	cfg := baseConfig(domain.SignalStop)
	cfg.PracticeEnabled = true
	cfg.PracticeGoTrials = domain.RepeatTrials(domain.SignalGo, 1)
	cfg.PracticeMixedTrials = domain.RepeatTrials(domain.SignalStop, 1)
	s := newSession(t, cfg, nil, simulate.WithScript(simulate.Sequence(
		simulate.ReleaseAt(ms(300)),
		simulate.Hold(),
		simulate.Hold(),
	)))

	res, err := s.seq.Run(s.ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusCompleted, res.Status)
	assert.Equal(t, []time.Duration{ms(500), ms(500)}, res.Delays)
	require.Len(t, res.Records, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{res.Records[0].Block, res.Records[1].Block, res.Records[2].Block})
	assert.Equal(t, []domain.Phase{domain.PhasePracticeGo, domain.PhasePracticeMixed, domain.PhaseMain},
		[]domain.Phase{res.Records[0].Label, res.Records[1].Label, res.Records[2].Label})

	assert.Equal(t, []presentation.NoticeKind{
		presentation.NoticeInstructions,
		presentation.NoticePracticeIntro,
		presentation.NoticePracticeGo,
		presentation.NoticePressAndHold,
		presentation.NoticePracticeMixed,
		presentation.NoticePressAndHold,
		presentation.NoticeComprehension,
		presentation.NoticePressAndHold,
		presentation.NoticeEnd,
	}, s.screen.Notices())
}

func TestDelayCarriesAcrossMainBlocks(t *testing.T) {
	cfg := baseConfig(domain.SignalStop)
	cfg.MainBlocks = 3
	s := newSession(t, cfg, nil, simulate.WithScript(simulate.Constant(simulate.Hold())))

	res, err := s.seq.Run(s.ctx)
	require.NoError(t, err)

	assert.Equal(t, []time.Duration{ms(500), ms(525), ms(550)}, res.Delays)
	assert.Equal(t, []presentation.Notice{
		{Kind: presentation.NoticeBlockComplete, Block: 1, Blocks: 3},
		{Kind: presentation.NoticeBlockComplete, Block: 2, Blocks: 3},
	}, s.screen.NoticesOf(presentation.NoticeBlockComplete))
}

func TestDeclinedComprehensionEndsSession(t *testing.T) {
	cfg := baseConfig(domain.SignalGo)
	s := newSession(t, cfg, nil, simulate.WithComprehension(false))

	res, err := s.seq.Run(s.ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusDeclined, res.Status)
	assert.Empty(t, res.Records)
	assert.Empty(t, s.mem.Records())
	assert.Equal(t, []presentation.NoticeKind{
		presentation.NoticeInstructions,
		presentation.NoticeComprehension,
		presentation.NoticeEnd,
	}, s.screen.Notices())
}

func TestEscapeAbortsKeepingFinishedTrials(t *testing.T) {
	cfg := baseConfig(domain.SignalGo, domain.SignalGo, domain.SignalGo)
	escape := simulate.Hold()
	at := ms(200)
	escape.Escape = &at
	s := newSession(t, cfg, nil, simulate.WithScript(simulate.Sequence(simulate.ReleaseAt(ms(300)), escape)))

	res, err := s.seq.Run(s.ctx)
	require.NoError(t, err)

	assert.Equal(t, domain.SessionStatusAborted, res.Status)
	require.Len(t, res.Records, 1)
	assert.Equal(t, domain.OutcomeCorrectGo, res.Records[0].Outcome)
	assert.Len(t, s.mem.Records(), 1)
}

func TestSinkFailureFailsSession(t *testing.T) {
	boom := errors.New("permission denied")
	cfg := baseConfig(domain.SignalGo, domain.SignalGo)
	s := newSession(t, cfg, sink.Func(func(context.Context, domain.TrialRecord) error { return boom }),
		simulate.WithScript(simulate.Constant(simulate.ReleaseAt(ms(300)))))

	res, err := s.seq.Run(s.ctx)

	assert.ErrorIs(t, err, domain.ErrSinkWrite)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, domain.SessionStatusFailed, res.Status)
	assert.Empty(t, res.Records)
}

func TestStateRejectsForeignGoroutine(t *testing.T) {
	state := NewState(baseConfig(domain.SignalStop))
	require.NoError(t, state.enterBlock(Block{Index: 1, MainIndex: 1, Phase: domain.PhaseMain}))

	errc := make(chan error, 1)
	go func() {
		_, err := state.nextTrial(domain.TrialSpec{Signal: domain.SignalStop})
		errc <- err
	}()
	assert.Error(t, <-errc)

	p, err := state.nextTrial(domain.TrialSpec{Signal: domain.SignalStop})
	require.NoError(t, err)
	assert.Equal(t, ms(500), p.Delay)
	assert.Equal(t, 1, p.Position.Trial)
}

func TestStateAppliesLastOutcomeOnce(t *testing.T) {
	state := NewState(baseConfig(domain.SignalStop))
	require.NoError(t, state.enterBlock(Block{Index: 1, MainIndex: 1, Phase: domain.PhaseMain}))

	_, err := state.nextTrial(domain.TrialSpec{Signal: domain.SignalStop})
	require.NoError(t, err)
	require.NoError(t, state.complete(trial.Result{Outcome: domain.OutcomeCorrectStop, Reported: true}))

	// A Go trial consumes the outcome; the following Stop trial does not see it again.
	_, err = state.nextTrial(domain.TrialSpec{Signal: domain.SignalGo})
	require.NoError(t, err)
	require.NoError(t, state.complete(trial.Result{Outcome: domain.OutcomeCorrectGo, Reported: true}))

	p, err := state.nextTrial(domain.TrialSpec{Signal: domain.SignalStop})
	require.NoError(t, err)
	assert.Equal(t, ms(525), p.Delay)
	assert.Equal(t, domain.OutcomeNone, state.Last)
}
