package chat

import (
	"context"
	"sort"
	"sync"
	"time"
)

type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
	messages map[string][]Message
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]Session),
		messages: make(map[string][]Message),
	}
}

func (m *MemoryStore) CreateSession(_ context.Context, id string, createdAt time.Time) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := Session{ID: id, CreatedAt: createdAt}
	m.sessions[id] = s
	return s, nil
}

// CreateMessage appends in call order, which keeps equal timestamps in insertion order.
func (m *MemoryStore) CreateMessage(_ context.Context, arg CreateMessageParams) (Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	msg := Message{
		ID:        arg.ID,
		SessionID: arg.SessionID,
		Content:   arg.Content,
		IsUser:    arg.IsUser,
		NodeKey:   arg.NodeKey,
		Type:      arg.Type,
		Timestamp: arg.Timestamp,
	}
	m.messages[arg.SessionID] = append(m.messages[arg.SessionID], msg)
	return msg, nil
}

func (m *MemoryStore) ListMessages(_ context.Context, sessionID string) ([]Message, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := append([]Message{}, m.messages[sessionID]...)
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Timestamp.Before(items[j].Timestamp)
	})
	return items, nil
}
