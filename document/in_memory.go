package document

import (
	"context"
	"sort"
	"sync"

	"github.com/hupe1980/bpmcore/core"
)

// InMemoryStore is a trivial in-process DocumentStore. It keeps all
// documents in a nested map guarded by an RWMutex. Documents are copied on
// save / retrieval to avoid accidental external mutation of internal
// buffers.
//
// Layout: container -> document name -> document
type InMemoryStore struct {
	mu        sync.RWMutex
	documents map[core.Container]map[string]*core.Document
}

// NewInMemoryStore returns an empty in-memory document store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{documents: make(map[core.Container]map[string]*core.Document)}
}

// Save stores (or overwrites) the document under its name.
func (s *InMemoryStore) Save(_ context.Context, c core.Container, doc *core.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.documents[c]; !exists {
		s.documents[c] = make(map[string]*core.Document)
	}
	s.documents[c][doc.Name] = clone(doc)
	return nil
}

// Get returns copies of the documents present for names.
func (s *InMemoryStore) Get(_ context.Context, c core.Container, names []string) (map[string]*core.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]*core.Document, len(names))
	docs := s.documents[c]
	for _, name := range names {
		if doc, ok := docs[name]; ok {
			out[name] = clone(doc)
		}
	}
	return out, nil
}

// List returns the document names stored for the container, sorted.
func (s *InMemoryStore) List(_ context.Context, c core.Container) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	names := make([]string, 0, len(s.documents[c]))
	for name := range s.documents[c] {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Delete removes the document if present or returns ErrNotFound.
func (s *InMemoryStore) Delete(_ context.Context, c core.Container, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	docs, ok := s.documents[c]
	if !ok {
		return ErrNotFound
	}
	if _, ok := docs[name]; !ok {
		return ErrNotFound
	}
	delete(docs, name)
	return nil
}

func clone(doc *core.Document) *core.Document {
	cp := *doc
	if doc.Content != nil {
		cp.Content = make([]byte, len(doc.Content))
		copy(cp.Content, doc.Content)
	}
	return &cp
}

var _ core.DocumentStore = (*InMemoryStore)(nil)
