// Package store persists sessions and their trial records.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/IngeLeu/OSARI/internal/domain"
)

// Store defines the interface for data persistence.
type Store interface {
	// Session operations
	CreateSession(ctx context.Context, session *domain.Session) error
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)
	ListSessions(ctx context.Context, limit int) ([]domain.Session, error)
	UpdateSessionStarted(ctx context.Context, sessionID string, startedAt time.Time) error
	UpdateSessionFinished(ctx context.Context, sessionID string, status domain.SessionStatus, endedAt time.Time, errMsg string, summary json.RawMessage) error

	// Trial operations
	AppendTrial(ctx context.Context, sessionID string, record domain.TrialRecord) (int64, error)
	ListTrials(ctx context.Context, sessionID string) ([]domain.StoredTrial, error)

	// Lifecycle
	Close() error
}

// TrialSink writes a session's records into a Store.
type TrialSink struct {
	store     Store
	sessionID string
}

func NewTrialSink(s Store, sessionID string) *TrialSink {
	return &TrialSink{store: s, sessionID: sessionID}
}

func (t *TrialSink) Write(ctx context.Context, record domain.TrialRecord) error {
	_, err := t.store.AppendTrial(ctx, t.sessionID, record)
	return err
}
