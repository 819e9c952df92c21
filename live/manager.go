package live

import (
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("live session not found")

// DefaultMaxIdle is how long a disconnected session is kept for reattach.
const DefaultMaxIdle = 30 * time.Minute

// Manager tracks live-search sessions and fans store changes out to them.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	maxIdle  time.Duration
	now      func() time.Time
}

func NewManager() *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		maxIdle:  DefaultMaxIdle,
		now:      time.Now,
	}
}

// Create starts a new session, pruning disconnected sessions that have been
// idle longer than the retention window.
func (m *Manager) Create() *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.pruneLocked()
	now := m.now()
	s := &Session{
		ID:         uuid.New().String(),
		CreatedAt:  now,
		LastActive: now,
	}
	m.sessions[s.ID] = s
	return s
}

func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	return s, ok
}

func (m *Manager) List() []*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	list := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		list = append(list, s)
	}
	return list
}

// Remove drops a session.
func (m *Manager) Remove(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(m.sessions, id)
	return nil
}

// Broadcast tells every connected client to recompute its results. It
// never blocks on a slow client.
func (m *Manager) Broadcast() {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sessions {
		s.signal()
	}
}

func (m *Manager) pruneLocked() {
	cutoff := m.now().Add(-m.maxIdle)
	for id, s := range m.sessions {
		last, connected := s.idleSince()
		if !connected && last.Before(cutoff) {
			delete(m.sessions, id)
		}
	}
}
