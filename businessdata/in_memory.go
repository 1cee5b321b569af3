package businessdata

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/hupe1980/bpmcore/core"
)

type refKey struct {
	container core.Container
	name      string
}

// InMemoryStore is a volatile BusinessDataRepository. Objects are cloned on
// save and retrieval.
type InMemoryStore struct {
	mu      sync.RWMutex
	nextID  int64
	objects map[int64]*core.BusinessObject
	refs    map[refKey]*core.BusinessDataRef
}

// NewInMemoryStore returns an empty repository.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		objects: make(map[int64]*core.BusinessObject),
		refs:    make(map[refKey]*core.BusinessDataRef),
	}
}

// FindRefs implements core.BusinessDataRepository.
func (s *InMemoryStore) FindRefs(_ context.Context, c core.Container, names []string) (map[string]*core.BusinessDataRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*core.BusinessDataRef, len(names))
	for _, name := range names {
		if ref, ok := s.refs[refKey{c, name}]; ok {
			out[name] = cloneRef(ref)
		}
	}
	return out, nil
}

// FindByIDs implements core.BusinessDataRepository. Unknown ids are omitted.
func (s *InMemoryStore) FindByIDs(_ context.Context, ids []int64) (map[int64]*core.BusinessObject, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[int64]*core.BusinessObject, len(ids))
	for _, id := range ids {
		if obj, ok := s.objects[id]; ok {
			out[id] = obj.Clone()
		}
	}
	return out, nil
}

// Save implements core.BusinessDataRepository.
func (s *InMemoryStore) Save(_ context.Context, obj *core.BusinessObject) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if obj.PersistenceID == 0 {
		s.nextID++
		obj.PersistenceID = s.nextID
	} else if obj.PersistenceID > s.nextID {
		s.nextID = obj.PersistenceID
	}
	s.objects[obj.PersistenceID] = obj.Clone()
	return nil
}

// Delete implements core.BusinessDataRepository.
func (s *InMemoryStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.objects[id]; !ok {
		return fmt.Errorf("business object %d: %w", id, core.ErrNotFound)
	}
	delete(s.objects, id)
	return nil
}

// SetRef implements core.BusinessDataRepository.
func (s *InMemoryStore) SetRef(_ context.Context, c core.Container, ref *core.BusinessDataRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refs[refKey{c, ref.Name}] = cloneRef(ref)
	return nil
}

// DeleteRef implements core.BusinessDataRepository.
func (s *InMemoryStore) DeleteRef(_ context.Context, c core.Container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.refs, refKey{c, name})
	return nil
}

func cloneRef(ref *core.BusinessDataRef) *core.BusinessDataRef {
	cp := *ref
	cp.IDs = slices.Clone(ref.IDs)
	return &cp
}

var _ core.BusinessDataRepository = (*InMemoryStore)(nil)
