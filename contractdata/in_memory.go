package contractdata

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/bpmcore/core"
	"github.com/hupe1980/bpmcore/internal/util"
)

// InMemoryStore is a volatile ContractDataStore. Saving a name again for
// the same container replaces the earlier record.
type InMemoryStore struct {
	mu      sync.RWMutex
	records map[core.Container]map[string]*core.ContractDataRecord
}

// NewInMemoryStore returns an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{records: make(map[core.Container]map[string]*core.ContractDataRecord)}
}

// Save implements core.ContractDataStore.
func (s *InMemoryStore) Save(_ context.Context, c core.Container, values map[string]any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	recs, ok := s.records[c]
	if !ok {
		recs = make(map[string]*core.ContractDataRecord, len(values))
		s.records[c] = recs
	}
	now := time.Now().UTC()
	for name, v := range values {
		recs[name] = &core.ContractDataRecord{
			ID:        uuid.NewString(),
			Container: c,
			Name:      name,
			Value:     util.DeepCopy(v),
			Created:   now,
		}
	}
	return nil
}

// Get implements core.ContractDataStore.
func (s *InMemoryStore) Get(_ context.Context, c core.Container, name string) (*core.ContractDataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[c][name]
	if !ok {
		return nil, fmt.Errorf("contract data [%s]: %w", name, core.ErrNotFound)
	}
	return copyRecord(rec), nil
}

// List implements core.ContractDataStore. Records are sorted by name.
func (s *InMemoryStore) List(_ context.Context, c core.Container) ([]*core.ContractDataRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*core.ContractDataRecord, 0, len(s.records[c]))
	for _, rec := range s.records[c] {
		out = append(out, copyRecord(rec))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func copyRecord(rec *core.ContractDataRecord) *core.ContractDataRecord {
	cp := *rec
	cp.Value = util.DeepCopy(rec.Value)
	return &cp
}

var _ core.ContractDataStore = (*InMemoryStore)(nil)
