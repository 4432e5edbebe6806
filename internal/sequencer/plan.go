// Package sequencer runs a whole session: instructions, practice, the
// comprehension check and the main blocks, threading the staircase from
// trial to trial.
package sequencer

import (
	"math/rand/v2"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// Block is one run of trials sharing a phase.
type Block struct {
	// Index counts every block of the session from 1, practice included.
	Index int
	// MainIndex counts main blocks from 1; zero for practice blocks.
	MainIndex int
	Phase     domain.Phase
	Trials    []domain.TrialSpec
}

// Plan lays out the blocks of a session. With random order each block is
// shuffled independently from rng.
func Plan(cfg domain.TaskConfig, rng *rand.Rand) []Block {
	var blocks []Block
	add := func(phase domain.Phase, mainIndex int, trials []domain.TrialSpec) {
		ordered := append([]domain.TrialSpec(nil), trials...)
		if cfg.Order == domain.OrderRandom && rng != nil {
			rng.Shuffle(len(ordered), func(i, j int) {
				ordered[i], ordered[j] = ordered[j], ordered[i]
			})
		}
		blocks = append(blocks, Block{
			Index:     len(blocks) + 1,
			MainIndex: mainIndex,
			Phase:     phase,
			Trials:    ordered,
		})
	}

	if cfg.PracticeEnabled {
		add(domain.PhasePracticeGo, 0, cfg.PracticeGoTrials)
		add(domain.PhasePracticeMixed, 0, cfg.PracticeMixedTrials)
	}
	for i := 1; i <= cfg.MainBlocks; i++ {
		add(domain.PhaseMain, i, cfg.MainTrials)
	}
	return blocks
}

// NewRand returns the shuffling source for a session seed.
func NewRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x5851f42d4c957f2d))
}
