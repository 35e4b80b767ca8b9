package workflow

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// MemoryStore keeps workflows in process memory. It reports absent rows with pgx.ErrNoRows so
// the service treats it exactly like the postgres store.
type MemoryStore struct {
	mu        sync.RWMutex
	workflows map[uuid.UUID]Workflow
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		workflows: make(map[uuid.UUID]Workflow),
	}
}

func (m *MemoryStore) Create(_ context.Context, arg CreateParams) (Workflow, error) {
	w := Workflow{
		ID:          arg.ID,
		Name:        arg.Name,
		Description: arg.Description,
		Version:     arg.Version,
		IsActive:    arg.IsActive,
		Nodes:       arg.Nodes,
		StartNode:   arg.StartNode,
		Tags:        arg.Tags,
		Metadata:    arg.Metadata,
		CreatedAt:   arg.CreatedAt,
		UpdatedAt:   arg.UpdatedAt,
	}.Clone()
	if w.Nodes == nil {
		w.Nodes = map[string]Node{}
	}
	if w.Tags == nil {
		w.Tags = []string{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.workflows[w.ID] = w
	return w.Clone(), nil
}

func (m *MemoryStore) GetByID(_ context.Context, id uuid.UUID) (Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	w, ok := m.workflows[id]
	if !ok {
		return Workflow{}, pgx.ErrNoRows
	}
	return w.Clone(), nil
}

func (m *MemoryStore) GetByName(_ context.Context, name string) (Workflow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var (
		found Workflow
		ok    bool
	)
	for _, w := range m.workflows {
		if w.Name != name {
			continue
		}
		if !ok || w.UpdatedAt.After(found.UpdatedAt) {
			found, ok = w, true
		}
	}
	if !ok {
		return Workflow{}, pgx.ErrNoRows
	}
	return found.Clone(), nil
}

func (m *MemoryStore) List(_ context.Context, arg ListParams) ([]Workflow, error) {
	filter := Filter{IsActive: arg.IsActive, Tags: arg.Tags, Category: arg.Category}

	m.mu.RLock()
	items := make([]Workflow, 0, len(m.workflows))
	for _, w := range m.workflows {
		if filter.Matches(w) {
			items = append(items, w.Clone())
		}
	}
	m.mu.RUnlock()

	sort.SliceStable(items, func(i, j int) bool {
		if items[i].UpdatedAt.Equal(items[j].UpdatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].UpdatedAt.After(items[j].UpdatedAt)
	})
	return items, nil
}

func (m *MemoryStore) Update(_ context.Context, arg UpdateParams) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workflows[arg.ID]
	if !ok {
		return false, nil
	}

	if arg.Name != nil {
		w.Name = *arg.Name
	}
	if arg.Description != nil {
		w.Description = *arg.Description
	}
	if arg.Version != nil {
		w.Version = *arg.Version
	}
	if arg.IsActive != nil {
		w.IsActive = *arg.IsActive
	}
	if arg.Nodes != nil {
		w.Nodes = cloneNodes(arg.Nodes)
	}
	if arg.StartNode != nil {
		w.StartNode = *arg.StartNode
	}
	if arg.Tags != nil {
		w.Tags = append([]string{}, arg.Tags...)
	}
	if arg.Metadata != nil {
		metadata := *arg.Metadata
		w.Metadata = &metadata
	}
	w.UpdatedAt = arg.UpdatedAt

	m.workflows[arg.ID] = w
	return true, nil
}

func (m *MemoryStore) Delete(_ context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.workflows[id]; !ok {
		return false, nil
	}
	delete(m.workflows, id)
	return true, nil
}
