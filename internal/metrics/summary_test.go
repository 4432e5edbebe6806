package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/IngeLeu/OSARI/internal/domain"
)

func dur(s float64) *time.Duration {
	d := domain.SecondsToDuration(s)
	return &d
}

func TestSummarizeMainTrialsOnly(t *testing.T) {
	records := []domain.TrialRecord{
		{Label: domain.PhasePracticeGo, Signal: domain.SignalGo, Released: true, RT: dur(0.1), Outcome: domain.OutcomeCorrectGo},
		{Label: domain.PhaseMain, Signal: domain.SignalGo, Released: true, RT: dur(0.7), Outcome: domain.OutcomeCorrectGo},
		{Label: domain.PhaseMain, Signal: domain.SignalGo, Released: true, RT: dur(0.9), Outcome: domain.OutcomeCorrectGo},
		{Label: domain.PhaseMain, Signal: domain.SignalGo, Outcome: domain.OutcomeIncorrectGo},
		{Label: domain.PhaseMain, Signal: domain.SignalStop, SSD: dur(0.5), Released: true, RT: dur(0.3), Outcome: domain.OutcomeIncorrectStop},
		{Label: domain.PhaseMain, Signal: domain.SignalStop, SSD: dur(0.6), Outcome: domain.OutcomeCorrectStop},
	}

	s := Summarize(records, 800*time.Millisecond)

	assert.Equal(t, 5, s.Trials)
	assert.Equal(t, 3, s.GoTrials)
	assert.Equal(t, 2, s.StopTrials)
	assert.Equal(t, 2, s.CorrectGo)
	assert.Equal(t, 1, s.IncorrectGo)
	assert.Equal(t, 1, s.CorrectStop)
	assert.Equal(t, 1, s.IncorrectStop)
	assert.InDelta(t, 0.8, s.MeanGoRT, 1e-9)
	assert.InDelta(t, 0.1, s.GoRTSD, 1e-9)
	assert.InDelta(t, 0.1, s.MeanTargetOffset, 1e-9)
	assert.InDelta(t, 0.5, s.StopSuccessRate, 1e-9)
	assert.InDelta(t, 0.55, s.MeanSSD, 1e-9)
	assert.InDelta(t, 0.25, s.SSRT, 1e-9)
}

func TestSummarizeEmpty(t *testing.T) {
	assert.Equal(t, Summary{}, Summarize(nil, time.Second))
}
