package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"mortgage-qualification-engine/internal/models"
)

// MemoryStore keeps sessions in process. Used for local runs and tests.
type MemoryStore struct {
	mu       sync.Mutex
	sessions map[string][]byte
	turns    map[string]struct{}
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		turns:    make(map[string]struct{}),
	}
}

// Load returns a copy of the stored session.
func (m *MemoryStore) Load(_ context.Context, id string) (*models.Session, error) {
	m.mu.Lock()
	data, ok := m.sessions[id]
	m.mu.Unlock()
	if !ok {
		return nil, models.ErrSessionNotFound
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	return &sess, nil
}

// Save stores a snapshot of the session.
func (m *MemoryStore) Save(_ context.Context, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}

	m.mu.Lock()
	m.sessions[sess.ID] = data
	m.mu.Unlock()
	return nil
}

// Delete removes the session and its turn lock.
func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.sessions, id)
	delete(m.turns, id)
	m.mu.Unlock()
	return nil
}

// AcquireTurn takes the per-session turn lock.
func (m *MemoryStore) AcquireTurn(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, busy := m.turns[id]; busy {
		return models.ErrTurnInProgress
	}
	m.turns[id] = struct{}{}
	return nil
}

// ReleaseTurn drops the turn lock.
func (m *MemoryStore) ReleaseTurn(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.turns, id)
	m.mu.Unlock()
	return nil
}
