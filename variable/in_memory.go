package variable

import (
	"context"
	"sync"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// InMemoryStore is a volatile VariableStore keeping values per container in
// a process local map. It is safe for concurrent access. Values are deep
// copied on the way in and out to prevent external mutation of internal
// state.
type InMemoryStore struct {
	mu     sync.RWMutex
	values map[core.Container]map[string]any
}

// NewInMemoryStore constructs an empty in-memory variable store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{values: make(map[core.Container]map[string]any)}
}

// Get returns copies of the values present for names.
func (s *InMemoryStore) Get(_ context.Context, c core.Container, names []string) (map[string]any, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]any, len(names))
	vars, ok := s.values[c]
	if !ok {
		return out, nil
	}
	for _, name := range names {
		if v, ok := vars[name]; ok {
			out[name] = util.DeepCopy(v)
		}
	}
	return out, nil
}

// Set stores a copy of value.
func (s *InMemoryStore) Set(_ context.Context, c core.Container, name string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	vars, ok := s.values[c]
	if !ok {
		vars = make(map[string]any)
		s.values[c] = vars
	}
	vars[name] = util.DeepCopy(value)
	return nil
}

var _ core.VariableStore = (*InMemoryStore)(nil)
