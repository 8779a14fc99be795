package session

import (
	"errors"
	"sync"

	"go.uber.org/zap"

	"github.com/hokusei/nippo/internal/domain/entity"
)

// ErrNotFound is returned when a session id is unknown or expired.
var ErrNotFound = errors.New("session not found")

// Manager owns the live sessions, keyed by id. Session state is ephemeral:
// nothing survives a process restart beyond what was written to the store.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	logger   *zap.Logger
}

// NewManager creates an empty session manager.
func NewManager(logger *zap.Logger) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		logger:   logger,
	}
}

// Create starts a new session for the department.
func (m *Manager) Create(dept entity.Department) *Session {
	s := New(dept)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.logger.Info("Session created",
		zap.String("session_id", s.ID),
		zap.String("department", dept.Code))
	return s
}

// Get returns the session with the given id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s, nil
}

// Remove drops a session.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Count returns the number of live sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
