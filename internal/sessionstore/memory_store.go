package sessionstore

import (
	"sync"
	"time"

	"github.com/optionchain/simulator/internal/models"
)

// MemoryStore is a mutex-guarded map[id]*Session — the reference Store
// implementation and the one wired into SessionManager by default.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*models.Session
}

// NewMemoryStore constructs an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{sessions: make(map[string]*models.Session)}
}

// Get returns a clone of the stored session, or KindNotFound.
func (m *MemoryStore) Get(id string) (*models.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, models.NewNotFound(id)
	}
	return s.Clone(), nil
}

// Save inserts or replaces the session. The critical section holds only for
// a single map write, bounding lock hold time to a pointer assignment.
func (m *MemoryStore) Save(s *models.Session) error {
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = time.Now().UTC()
	}
	stored := s.Clone()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[stored.ID] = stored
	return nil
}

// Delete removes the session, reporting whether it was present.
func (m *MemoryStore) Delete(id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return false, nil
	}
	delete(m.sessions, id)
	return true, nil
}

// Cleanup drops every session that is terminal or idle past ttl.
func (m *MemoryStore) Cleanup(now time.Time, ttl time.Duration) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	reclaimed := 0
	for id, s := range m.sessions {
		if !s.IsActive(now, ttl) {
			delete(m.sessions, id)
			reclaimed++
		}
	}
	return reclaimed, nil
}

// ActiveIDs returns every id currently held, active or not — callers that
// need only active ids should filter with a subsequent Get.
func (m *MemoryStore) ActiveIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	return ids
}

var _ Store = (*MemoryStore)(nil)
