package store

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/matzehuels/kintree/pkg/graph"
)

// Memory keeps trees in a map. Stored trees are deep copies, so callers may
// keep mutating what they saved or loaded.
type Memory struct {
	mu    sync.RWMutex
	trees map[string][]byte
	now   func() time.Time
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{trees: make(map[string][]byte), now: time.Now}
}

func (m *Memory) Save(ctx context.Context, t *Tree) error {
	if err := ValidateID(t.ID); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	prev, _ := m.get(t.ID)
	stamp(t, prev, m.now())
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	m.trees[t.ID] = data
	return nil
}

func (m *Memory) Load(ctx context.Context, id string) (*Tree, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.get(id)
	if !ok {
		return nil, notFound(id)
	}
	return t, nil
}

func (m *Memory) get(id string) (*Tree, bool) {
	data, ok := m.trees[id]
	if !ok {
		return nil, false
	}
	var t Tree
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, false
	}
	return &t, true
}

func (m *Memory) SaveLayout(ctx context.Context, id, kind string, doc graph.LayoutDocument, expect time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	t, ok := m.get(id)
	if !ok {
		return notFound(id)
	}
	if err := setLayout(t, kind, doc, expect); err != nil {
		return err
	}
	data, err := json.Marshal(t)
	if err != nil {
		return err
	}
	m.trees[id] = data
	return nil
}

func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trees[id]; !ok {
		return notFound(id)
	}
	delete(m.trees, id)
	return nil
}

func (m *Memory) List(ctx context.Context) ([]Summary, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Summary, 0, len(m.trees))
	for id := range m.trees {
		if t, ok := m.get(id); ok {
			out = append(out, t.Summarize())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) Close() error { return nil }

var _ Store = (*Memory)(nil)
