// Package sink receives completed trial records.
package sink

import (
	"context"
	"fmt"
	"sync"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// Sink persists one record per completed trial. Records arrive in trial
// order and are never modified afterwards.
type Sink interface {
	Write(ctx context.Context, record domain.TrialRecord) error
}

// Func adapts a function to a Sink.
type Func func(ctx context.Context, record domain.TrialRecord) error

func (f Func) Write(ctx context.Context, record domain.TrialRecord) error {
	return f(ctx, record)
}

// Multi writes to every sink in order and stops at the first failure.
type Multi []Sink

func (m Multi) Write(ctx context.Context, record domain.TrialRecord) error {
	for i, s := range m {
		if s == nil {
			continue
		}
		if err := s.Write(ctx, record); err != nil {
			return fmt.Errorf("sink %d: %w", i, err)
		}
	}
	return nil
}

// Memory keeps records in memory.
type Memory struct {
	mu      sync.Mutex
	records []domain.TrialRecord
}

func NewMemory() *Memory {
	return &Memory{}
}

func (m *Memory) Write(_ context.Context, record domain.TrialRecord) error {
	m.mu.Lock()
	m.records = append(m.records, record)
	m.mu.Unlock()
	return nil
}

// Records returns a copy of everything written so far.
func (m *Memory) Records() []domain.TrialRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.TrialRecord(nil), m.records...)
}
