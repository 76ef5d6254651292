package store

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/af-corp/chatbot-gateway/internal/types"
)

// MemoryStore keeps everything in process memory. It backs the "memory"
// storage driver and the service tests.
type MemoryStore struct {
	mu       sync.RWMutex
	clients  map[string]*types.Client // by key hash
	sessions map[string]*types.Session
	messages map[string][]types.Message
	files    map[string][]*types.FileUpload
	now      func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		clients:  make(map[string]*types.Client),
		sessions: make(map[string]*types.Session),
		messages: make(map[string][]types.Message),
		files:    make(map[string][]*types.FileUpload),
		now:      time.Now,
	}
}

func (m *MemoryStore) CreateClient(_ context.Context, c *types.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = m.now()
	}
	cp := *c
	m.clients[c.APIKeyHash] = &cp
	return nil
}

func (m *MemoryStore) LookupClient(_ context.Context, keyHash string) (*types.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.clients[keyHash]
	if !ok || !c.IsActive {
		return nil, ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (m *MemoryStore) DeactivateClient(_ context.Context, keyHash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.clients[keyHash]
	if !ok || !c.IsActive {
		return ErrNotFound
	}
	c.IsActive = false
	return nil
}

func (m *MemoryStore) CreateSession(_ context.Context, s *types.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = now
	}
	s.LastActivity = now
	cp := *s
	m.sessions[s.ID] = &cp
	return nil
}

func (m *MemoryStore) GetSession(_ context.Context, clientID, sessionID string) (*types.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[sessionID]
	if !ok || s.ClientID != clientID {
		return nil, ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (m *MemoryStore) UpdateSessionConfig(_ context.Context, sessionID string, cfg types.SessionConfig) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	s.Config = cfg
	s.LastActivity = m.now()
	return nil
}

func (m *MemoryStore) SessionStats(_ context.Context, clientID string, activeSince time.Time) (types.SessionStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var stats types.SessionStats
	for _, s := range m.sessions {
		if s.ClientID != clientID {
			continue
		}
		stats.TotalSessions++
		if !s.LastActivity.Before(activeSince) {
			stats.ActiveSessions++
		}
	}
	return stats, nil
}

func (m *MemoryStore) AppendMessage(_ context.Context, sessionID string, msg *types.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return ErrNotFound
	}
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	if msg.Timestamp == nil {
		ts := m.now()
		msg.Timestamp = &ts
	}
	m.messages[sessionID] = append(m.messages[sessionID], *msg)
	s.LastActivity = *msg.Timestamp
	return nil
}

func (m *MemoryStore) RecentMessages(_ context.Context, sessionID string, limit int) ([]types.Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	all := m.messages[sessionID]
	if limit > 0 && len(all) > limit {
		all = all[len(all)-limit:]
	}
	out := make([]types.Message, len(all))
	copy(out, all)
	return out, nil
}

func (m *MemoryStore) CountMessages(_ context.Context, sessionID string) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.messages[sessionID]), nil
}

func (m *MemoryStore) ClearMessages(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.messages[sessionID])
	delete(m.messages, sessionID)
	return n, nil
}

func (m *MemoryStore) SaveFile(_ context.Context, f *types.FileUpload) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[f.SessionID]; !ok {
		return ErrNotFound
	}
	for _, existing := range m.files[f.SessionID] {
		existing.IsActive = false
	}
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.UploadedAt.IsZero() {
		f.UploadedAt = m.now()
	}
	f.IsActive = true
	cp := *f
	m.files[f.SessionID] = append(m.files[f.SessionID], &cp)
	return nil
}

func (m *MemoryStore) ActiveFile(_ context.Context, sessionID string) (*types.FileUpload, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	files := m.files[sessionID]
	for i := len(files) - 1; i >= 0; i-- {
		if files[i].IsActive {
			cp := *files[i]
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (m *MemoryStore) DeactivateFiles(_ context.Context, sessionID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, f := range m.files[sessionID] {
		if f.IsActive {
			f.IsActive = false
			n++
		}
	}
	return n, nil
}
