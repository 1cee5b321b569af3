package external

import (
	"context"
	"fmt"
	"sync"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// InMemoryStore is a volatile KVStore.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[core.Container]map[string]any
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[core.Container]map[string]any)}
}

// Get implements core.KVStore.
func (s *InMemoryStore) Get(_ context.Context, c core.Container, names []string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(names))
	for _, name := range names {
		if v, ok := s.values[c][name]; ok {
			out[name] = util.DeepCopy(v)
		}
	}
	return out, nil
}

// Put implements core.KVStore.
func (s *InMemoryStore) Put(_ context.Context, c core.Container, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[c]; !ok {
		s.values[c] = make(map[string]any)
	}
	s.values[c][name] = util.DeepCopy(value)
	return nil
}

// Delete implements core.KVStore.
func (s *InMemoryStore) Delete(_ context.Context, c core.Container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.values[c][name]; !ok {
		return fmt.Errorf("external data [%s]: %w", name, core.ErrNotFound)
	}
	delete(s.values[c], name)
	return nil
}

var _ core.KVStore = (*InMemoryStore)(nil)
