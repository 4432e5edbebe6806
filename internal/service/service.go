// Package service owns session lifecycles: admission, the per-session control
// loop and persistence of how each session ended.
package service

import (
	"context"
	"sync"

	"github.com/labstack/gommon/log"

	"github.com/IngeLeu/OSARI/internal/config"
	"github.com/IngeLeu/OSARI/internal/domain"
	"github.com/IngeLeu/OSARI/internal/hub"
	"github.com/IngeLeu/OSARI/internal/input"
	"github.com/IngeLeu/OSARI/internal/logging"
	"github.com/IngeLeu/OSARI/internal/policy"
	"github.com/IngeLeu/OSARI/internal/repository"
	"github.com/IngeLeu/OSARI/internal/ws"
)

type Service struct {
	store        store.Store
	hub          *hub.Hub
	config       *config.Config
	policyEngine *policy.Engine
	logger       *log.Logger

	mu      sync.Mutex
	running map[string]*runtime
	wg      sync.WaitGroup
}

// runtime is a session whose control loop is running.
type runtime struct {
	cancel context.CancelCauseFunc
	// keys is nil for simulated sessions, which take no display input.
	keys *input.Buffer
	done chan struct{}
}

func New(store store.Store, h *hub.Hub, cfg *config.Config, policyEngine *policy.Engine, logger *log.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{
		store:        store,
		hub:          h,
		config:       cfg,
		policyEngine: policyEngine,
		logger:       logger,
		running:      make(map[string]*runtime),
	}
}

// SessionKeys returns the input buffer of a running live session.
func (s *Service) SessionKeys(sessionID string) (ws.KeySink, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rt, ok := s.running[sessionID]
	if !ok || rt.keys == nil {
		return nil, false
	}
	return rt.keys, true
}

// Running reports whether a session's control loop is active.
func (s *Service) Running(sessionID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.running[sessionID]
	return ok
}

// Wait blocks until the session's control loop has finished, or ctx is done.
// It returns at once when the session is not running.
func (s *Service) Wait(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	rt, ok := s.running[sessionID]
	s.mu.Unlock()
	if !ok {
		return nil
	}
	select {
	case <-rt.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Shutdown aborts every running session and waits for their loops to write
// their final status.
func (s *Service) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, rt := range s.running {
		rt.cancel(domain.ErrAborted)
	}
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
