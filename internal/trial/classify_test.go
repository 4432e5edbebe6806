package trial

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngeLeu/OSARI/internal/domain"
)

func TestClassifyOutcomeTable(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want domain.Outcome
	}{
		{"go released", Observation{Signal: domain.SignalGo, Released: true, ReleaseTime: 300 * time.Millisecond}, domain.OutcomeCorrectGo},
		{"go expired", Observation{Signal: domain.SignalGo}, domain.OutcomeIncorrectGo},
		{"stop released before delay", Observation{Signal: domain.SignalStop, Delay: 500 * time.Millisecond, Released: true, ReleaseTime: 300 * time.Millisecond}, domain.OutcomeIncorrectStop},
		{"stop released after delay", Observation{Signal: domain.SignalStop, Delay: 500 * time.Millisecond, Released: true, ReleaseTime: 600 * time.Millisecond}, domain.OutcomeIncorrectStop},
		{"stop expired", Observation{Signal: domain.SignalStop, Delay: 500 * time.Millisecond}, domain.OutcomeCorrectStop},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.obs))
		})
	}
}

func TestBuildRecordIsDeterministic(t *testing.T) {
	pos := Position{Block: 3, Phase: domain.PhaseMain, Trial: 7}
	obs := Observation{Signal: domain.SignalStop, Delay: 475 * time.Millisecond, Released: true, ReleaseTime: 412 * time.Millisecond}

	a := BuildRecord(pos, obs)
	b := BuildRecord(pos, obs)

	assert.Equal(t, a, b)
	assert.Equal(t, a.TSV(), b.TSV())
	assert.Equal(t, "3\tmain\t7\t1\t1\t0.475\t0.412", a.TSV())
}

func TestBuildRecordNotApplicableFields(t *testing.T) {
	rec := BuildRecord(Position{Block: 1, Phase: domain.PhasePracticeGo, Trial: 1}, Observation{Signal: domain.SignalGo})

	assert.Nil(t, rec.SSD)
	assert.Nil(t, rec.RT)
	assert.False(t, rec.Released)
	assert.Equal(t, domain.OutcomeIncorrectGo, rec.Outcome)
	assert.Equal(t, "1\tpractice-go\t1\t0\t0\tNaN\tNaN", rec.TSV())
}

func TestTargetOffset(t *testing.T) {
	assert.Equal(t, 500*time.Millisecond, TargetOffset(300*time.Millisecond, 800*time.Millisecond))
	assert.Equal(t, 50*time.Millisecond, TargetOffset(850*time.Millisecond, 800*time.Millisecond))
}

func TestMachineRejectsDisallowedTransitions(t *testing.T) {
	var seen []State
	m := newMachine(func(_, to State) { seen = append(seen, to) })

	require.NoError(t, m.to(StateCountingDown))
	require.NoError(t, m.to(StateArmed))
	require.NoError(t, m.to(StateRunning))
	assert.Error(t, m.to(StateClassified))
	require.NoError(t, m.to(StateExpired))
	assert.True(t, IsTerminal(m.state))
	require.NoError(t, m.to(StateClassified))
	require.NoError(t, m.to(StateReported))
	assert.Error(t, m.to(StateArmed))

	assert.Equal(t, []State{StateCountingDown, StateArmed, StateRunning, StateExpired, StateClassified, StateReported}, seen)
}
