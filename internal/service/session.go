package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/policy"
)

// CreateSessionRequest is the body of a session creation.
type CreateSessionRequest struct {
	ParticipantID string `json:"participant_id"`
	// Config overrides fields of the default task configuration.
	Config json.RawMessage `json:"config,omitempty"`
}

// CreateSession validates a task configuration, checks it against the
// admission policy and stores the new session. Nothing runs yet.
func (s *Service) CreateSession(ctx context.Context, req CreateSessionRequest) (*domain.Session, error) {
	cfg := domain.DefaultTaskConfig()
	if len(req.Config) > 0 && string(req.Config) != "null" {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			return nil, &domain.ConfigurationError{Problems: []string{"invalid config: " + err.Error()}}
		}
	}
	if req.ParticipantID != "" {
		cfg.ParticipantID = req.ParticipantID
	}
	cfg.ParticipantID = strings.TrimSpace(cfg.ParticipantID)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if s.policyEngine != nil {
		decision, err := s.policyEngine.EvaluateSession(ctx, cfg, policy.Limits{MaxMainBlocks: s.config.MaxMainBlocks})
		if err != nil {
			return nil, fmt.Errorf("failed to evaluate session policy: %w", err)
		}
		if !decision.Allowed() {
			s.logger.Warnf("session for participant %q blocked: %s", cfg.ParticipantID, strings.Join(decision.Reasons, "; "))
			return nil, &domain.PolicyError{Reasons: decision.Reasons}
		}
	}

	session := &domain.Session{
		SessionID:     "sess_" + uuid.New().String()[:8],
		ParticipantID: cfg.ParticipantID,
		Status:        domain.SessionStatusCreated,
		Config:        cfg,
		CreatedAt:     time.Now(),
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Infof("session %s created for participant %s", session.SessionID, session.ParticipantID)
	return session, nil
}

// GetSession returns a session or domain.ErrSessionNotFound.
func (s *Service) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	session, err := s.store.GetSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	if session == nil {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// ListSessions returns the most recent sessions first.
func (s *Service) ListSessions(ctx context.Context, limit int) ([]domain.Session, error) {
	if limit <= 0 {
		limit = 50
	}
	sessions, err := s.store.ListSessions(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// ListTrials returns the stored records of a session in trial order.
func (s *Service) ListTrials(ctx context.Context, sessionID string) ([]domain.StoredTrial, error) {
	if _, err := s.GetSession(ctx, sessionID); err != nil {
		return nil, err
	}
	trials, err := s.store.ListTrials(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("failed to list trials: %w", err)
	}
	return trials, nil
}

// TrialsTSV renders the stored records of a session in the record file
// format, header included.
func (s *Service) TrialsTSV(ctx context.Context, sessionID string) (string, error) {
	trials, err := s.ListTrials(ctx, sessionID)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString(domain.RecordHeader)
	b.WriteByte('\n')
	for _, t := range trials {
		b.WriteString(t.Record.TSV())
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// AbortSession stops a running session. A session that never started is
// marked aborted directly; a finished one is left alone.
func (s *Service) AbortSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	s.mu.Lock()
	if rt, running := s.running[sessionID]; running {
		s.mu.Unlock()
		rt.cancel(domain.ErrAborted)
		select {
		case <-rt.done:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return s.GetSession(ctx, sessionID)
	}
	defer s.mu.Unlock()

	session, err := s.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.SessionStatusCreated {
		return nil, fmt.Errorf("%w: session %s is %s", domain.ErrSessionState, sessionID, session.Status)
	}
	if err := s.store.UpdateSessionFinished(ctx, sessionID, domain.SessionStatusAborted, time.Now(), "", nil); err != nil {
		return nil, fmt.Errorf("failed to abort session: %w", err)
	}
	s.logger.Infof("session %s aborted before start", sessionID)
	return s.GetSession(ctx, sessionID)
}
