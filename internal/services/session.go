package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nexconsult/pncp-vagas/internal/models"
)

// QueryFunc produces a query result. It must honour ctx.
type QueryFunc func(ctx context.Context) (*models.QueryResult, error)

// Session serialises the queries of one client. Starting a query cancels
// the previous one, and only the newest generation may store its result.
type Session struct {
	ID string

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
	last       *models.QueryResult
	lastUsed   time.Time
}

// NewSession creates an idle session
func NewSession(id string) *Session {
	return &Session{ID: id, lastUsed: time.Now()}
}

// Run cancels any in-flight query and runs fn as the new current
// generation. A run that was superseded returns ErrSuperseded and leaves
// the stored result untouched, even when fn itself succeeded.
func (s *Session) Run(ctx context.Context, fn QueryFunc) (*models.QueryResult, uint64, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	s.cancel = cancel
	s.lastUsed = time.Now()
	s.mu.Unlock()

	res, err := fn(runCtx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.generation != gen {
		return nil, gen, fmt.Errorf("%w by generation %d", ErrSuperseded, s.generation)
	}
	s.cancel = nil
	if err != nil {
		return nil, gen, err
	}
	s.last = res
	return res, gen, nil
}

// Cancel aborts the in-flight query, if any. It reports whether one was running.
func (s *Session) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancel == nil {
		return false
	}
	s.cancel()
	s.cancel = nil
	s.generation++
	return true
}

// Generation returns the current generation token
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Last returns the most recent completed result
func (s *Session) Last() *models.QueryResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Running reports whether a query is in flight
func (s *Session) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastUsed
}

// SessionManager keeps one Session per client id and expires idle ones
type SessionManager struct {
	ttl      time.Duration
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewSessionManager creates a manager expiring sessions idle for ttl
func NewSessionManager(ttl time.Duration) *SessionManager {
	return &SessionManager{ttl: ttl, sessions: make(map[string]*Session)}
}

// Get returns the session for id, creating it when needed
func (m *SessionManager) Get(id string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		s = NewSession(id)
		m.sessions[id] = s
	}
	return s
}

// Lookup returns an existing session
func (m *SessionManager) Lookup(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Count returns the number of live sessions
func (m *SessionManager) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Expire removes idle sessions that have no query in flight
func (m *SessionManager) Expire(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if !s.Running() && now.Sub(s.idleSince()) > m.ttl {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

// StartCleanupRoutine expires idle sessions periodically until ctx is done
func (m *SessionManager) StartCleanupRoutine(ctx context.Context, every time.Duration) {
	go func() {
		ticker := time.NewTicker(every)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				m.Expire(now)
			}
		}
	}()
}
