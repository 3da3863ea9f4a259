package goals

import (
	"context"
	"sort"
	"sync"
)

// Store persists goals. Implementations must be safe for concurrent use.
type Store interface {
	// Save inserts or replaces a goal by id.
	Save(ctx context.Context, g Goal) error

	// Get returns a goal. Returns ErrNotFound if it doesn't exist.
	Get(ctx context.Context, id string) (Goal, error)

	// List returns every goal ordered by creation time, then id.
	List(ctx context.Context) ([]Goal, error)

	// Delete removes a goal. Returns ErrNotFound if it doesn't exist.
	Delete(ctx context.Context, id string) error
}

// MemoryStore keeps goals in process memory.
type MemoryStore struct {
	mu    sync.RWMutex
	goals map[string]Goal
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{goals: make(map[string]Goal)}
}

func (m *MemoryStore) Save(_ context.Context, g Goal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.goals[g.ID] = g
	return nil
}

func (m *MemoryStore) Get(_ context.Context, id string) (Goal, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.goals[id]
	if !ok {
		return Goal{}, ErrNotFound
	}
	return g, nil
}

func (m *MemoryStore) List(_ context.Context) ([]Goal, error) {
	m.mu.RLock()
	out := make([]Goal, 0, len(m.goals))
	for _, g := range m.goals {
		out = append(out, g)
	}
	m.mu.RUnlock()
	SortByCreated(out)
	return out, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.goals[id]; !ok {
		return ErrNotFound
	}
	delete(m.goals, id)
	return nil
}

// SortByCreated orders goals by creation time, then id. Store
// implementations use it so List is stable across backends.
func SortByCreated(gs []Goal) {
	sort.SliceStable(gs, func(i, j int) bool {
		if !gs[i].CreatedAt.Equal(gs[j].CreatedAt) {
			return gs[i].CreatedAt.Before(gs[j].CreatedAt)
		}
		return gs[i].ID < gs[j].ID
	})
}
