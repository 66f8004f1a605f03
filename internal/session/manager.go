// Package session tracks the games being played over the HTTP transport.
// Each session owns one engine and serializes every command sent to it.
package session

import (
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jwebster45206/textland/pkg/engine"
)

var ErrSessionNotFound = errors.New("session not found")

// Factory builds the engine for a new session. Each call should return an
// engine over its own world so sessions never share mutable state.
type Factory func() (*engine.Engine, error)

// Session is one player's game.
type Session struct {
	ID        uuid.UUID
	CreatedAt time.Time

	mu         sync.Mutex
	engine     *engine.Engine
	lastActive time.Time
}

// Do runs fn with exclusive access to the session's engine.
func (s *Session) Do(fn func(e *engine.Engine) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActive = time.Now()
	return fn(s.engine)
}

// LastActive reports when the session last ran a command.
func (s *Session) LastActive() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActive
}

// Manager holds the active sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	factory  Factory
	logger   *slog.Logger
}

func NewManager(factory Factory, logger *slog.Logger) *Manager {
	return &Manager{
		sessions: make(map[uuid.UUID]*Session),
		factory:  factory,
		logger:   logger,
	}
}

// Create starts a new session with a fresh engine.
func (m *Manager) Create() (*Session, error) {
	e, err := m.factory()
	if err != nil {
		return nil, err
	}
	now := time.Now()
	s := &Session{
		ID:         uuid.New(),
		CreatedAt:  now,
		engine:     e,
		lastActive: now,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", s.ID)
	return s, nil
}

func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

func (m *Manager) Delete(id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(m.sessions, id)
	m.logger.Debug("Session deleted", "session_id", id)
	return nil
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Prune drops sessions idle for longer than maxIdle and returns how many
// were removed.
func (m *Manager) Prune(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)

	m.mu.Lock()
	defer m.mu.Unlock()
	removed := 0
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	if removed > 0 {
		m.logger.Info("Pruned idle sessions", "count", removed, "remaining", len(m.sessions))
	}
	return removed
}
