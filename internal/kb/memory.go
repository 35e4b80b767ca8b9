package kb

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
)

// MemoryStore keeps the document as encoded JSON so readers never share nested values.
type MemoryStore struct {
	mu       sync.RWMutex
	document map[string]json.RawMessage
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (map[string]any, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.document == nil {
		return nil, pgx.ErrNoRows
	}
	return m.decode()
}

func (m *MemoryStore) SetField(_ context.Context, field string, value any) (map[string]any, error) {
	encoded, err := json.Marshal(value)
	if err != nil {
		return nil, fmt.Errorf("failed to encode field %s: %w", field, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.document == nil {
		m.document = map[string]json.RawMessage{}
	}
	m.document[field] = encoded
	return m.decode()
}

func (m *MemoryStore) RemoveField(_ context.Context, field string) (map[string]any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.document == nil {
		m.document = map[string]json.RawMessage{}
	}
	delete(m.document, field)
	return m.decode()
}

func (m *MemoryStore) Seed(_ context.Context, document map[string]any) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.document != nil {
		return false, nil
	}

	encoded := make(map[string]json.RawMessage, len(document))
	for field, value := range document {
		raw, err := json.Marshal(value)
		if err != nil {
			return false, fmt.Errorf("failed to encode field %s: %w", field, err)
		}
		encoded[field] = raw
	}
	m.document = encoded
	return true, nil
}

// decode must be called with the lock held.
func (m *MemoryStore) decode() (map[string]any, error) {
	document := make(map[string]any, len(m.document))
	for field, raw := range m.document {
		var value any
		if err := json.Unmarshal(raw, &value); err != nil {
			return nil, fmt.Errorf("failed to decode field %s: %w", field, err)
		}
		document[field] = value
	}
	return document, nil
}
