package session

import (
	"context"
	"sync"
	"time"
)

// sweepInterval bounds how often Save scans for expired sessions.
const sweepInterval = time.Minute

type MemoryStore struct {
	mu        sync.RWMutex
	sessions  map[string]Session
	lastSweep time.Time
	now       func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]Session), now: time.Now}
}

// Save stores the session and, at most once per sweepInterval, drops every
// expired session so ones never loaded again do not pile up.
func (m *MemoryStore) Save(ctx context.Context, s *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if now.Sub(m.lastSweep) >= sweepInterval {
		for id, held := range m.sessions {
			if held.Expired(now) {
				delete(m.sessions, id)
			}
		}
		m.lastSweep = now
	}
	if s.Expired(now) {
		delete(m.sessions, s.ID)
		return nil
	}
	m.sessions[s.ID] = *s
	return nil
}

func (m *MemoryStore) Load(ctx context.Context, id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrSessionNotFound
	}
	if s.Expired(m.now()) {
		_ = m.Delete(ctx, id)
		return nil, ErrSessionNotFound
	}
	return &s, nil
}

func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// Len reports how many sessions are held.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}
