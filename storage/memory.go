package storage

import (
	"context"
	"encoding/json"
	"sync"

	"attuned-server/game"
	"attuned-server/gameerrors"
	"attuned-server/profile"
)

// MemoryStore is the in-process backend used when no database is
// configured, and in tests. Sessions round-trip through JSON so loads
// never alias saved state.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]byte
	history  []game.PlayRecord
	users    map[string]*game.User
	profiles map[string]*profile.Profile
}

// NewMemoryStore returns an empty in-memory backend.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string][]byte),
		users:    make(map[string]*game.User),
		profiles: make(map[string]*profile.Profile),
	}
}

// Close implements the backend lifecycle; nothing to release.
func (m *MemoryStore) Close() {}

func (m *MemoryStore) SaveSession(_ context.Context, s *game.Session) error {
	b, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = b
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, id string) (*game.Session, error) {
	m.mu.RLock()
	b, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, gameerrors.ErrSessionNotFound
	}
	var s game.Session
	if err := json.Unmarshal(b, &s); err != nil {
		return nil, err
	}
	game.MigrateTurnState(&s.State)
	return &s, nil
}

func (m *MemoryStore) RecordPlay(_ context.Context, rec game.PlayRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.history = append(m.history, rec)
	return nil
}

func (m *MemoryStore) RecentItemIDs(_ context.Context, playerID string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 100
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []string
	for i := len(m.history) - 1; i >= 0 && len(out) < limit; i-- {
		if m.history[i].PrimaryPlayerID == playerID {
			out = append(out, m.history[i].ItemID)
		}
	}
	return out, nil
}

func (m *MemoryStore) GetUser(_ context.Context, id string) (*game.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id], nil
}

func (m *MemoryStore) GetProfile(_ context.Context, userID string) (*profile.Profile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.profiles[userID], nil
}

// PutUser seeds an account. Used by dev-mode bootstrap and tests.
func (m *MemoryStore) PutUser(u *game.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[u.ID] = u
}

// PutProfile seeds a stored profile. Used by dev-mode bootstrap and
// tests.
func (m *MemoryStore) PutProfile(userID string, p *profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = p
}
