package sequencer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/IngeLeu/OSARI/internal/domain"
)

func countSignals(specs []domain.TrialSpec) (goes, stops int) {
	for _, s := range specs {
		if s.Signal == domain.SignalStop {
			stops++
		} else {
			goes++
		}
	}
	return goes, stops
}

func TestPlanLaysOutPracticeThenMain(t *testing.T) {
	cfg := domain.DefaultTaskConfig()
	blocks := Plan(cfg, NewRand(7))

	require.Len(t, blocks, 5)
	assert.Equal(t, domain.PhasePracticeGo, blocks[0].Phase)
	assert.Equal(t, domain.PhasePracticeMixed, blocks[1].Phase)
	for i, b := range blocks {
		assert.Equal(t, i+1, b.Index)
	}
	for i, b := range blocks[2:] {
		assert.Equal(t, domain.PhaseMain, b.Phase)
		assert.Equal(t, i+1, b.MainIndex)
		goes, stops := countSignals(b.Trials)
		assert.Equal(t, 15, goes)
		assert.Equal(t, 5, stops)
	}
}

func TestPlanShuffleIsSeeded(t *testing.T) {
	cfg := domain.DefaultTaskConfig()

	a := Plan(cfg, NewRand(42))
	b := Plan(cfg, NewRand(42))
	assert.Equal(t, a, b)

	seq := cfg
	seq.Order = domain.OrderSequential
	plain := Plan(seq, NewRand(42))
	assert.Equal(t, cfg.MainTrials, plain[2].Trials)
}

func TestPlanDoesNotAliasConfig(t *testing.T) {
	cfg := domain.DefaultTaskConfig()
	before := append([]domain.TrialSpec(nil), cfg.MainTrials...)
	Plan(cfg, NewRand(1))
	assert.Equal(t, before, cfg.MainTrials)
}

func TestPlanWithoutPractice(t *testing.T) {
	cfg := domain.DefaultTaskConfig()
	cfg.PracticeEnabled = false
	cfg.MainBlocks = 2

	blocks := Plan(cfg, nil)
	require.Len(t, blocks, 2)
	assert.Equal(t, 1, blocks[0].Index)
	assert.Equal(t, 1, blocks[0].MainIndex)
}
