package engine

import (
	"sync"

	"github.com/talgya/ninth-gate/internal/gate"
)

// MemoryStore keeps saves in process. Used by headless simulation runs
// and tests.
type MemoryStore struct {
	mu          sync.Mutex
	saves       map[string]*gate.Session
	Transitions []Transition
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{saves: make(map[string]*gate.Session)}
}

// SaveSession stores a copy of s under key.
func (m *MemoryStore) SaveSession(key string, s *gate.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saves[key] = s.Clone()
	return nil
}

// LoadSession returns a copy of the session under key, or ErrNoSave.
func (m *MemoryStore) LoadSession(key string) (*gate.Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.saves[key]
	if !ok {
		return nil, ErrNoSave
	}
	return s.Clone(), nil
}

// ClearSession removes the save under key.
func (m *MemoryStore) ClearSession(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saves, key)
	return nil
}

// AppendTransitions records ts in order.
func (m *MemoryStore) AppendTransitions(ts []Transition) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Transitions = append(m.Transitions, ts...)
	return nil
}
