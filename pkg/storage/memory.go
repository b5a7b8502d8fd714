package storage

import (
	"context"
	"sync"
)

// MemoryStore keeps documents in process memory. Documents are copied on
// the way in and out.
type MemoryStore struct {
	mu   sync.RWMutex
	docs map[string]Document
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{docs: make(map[string]Document)}
}

func (s *MemoryStore) Save(_ context.Context, doc Document) (Document, error) {
	doc, err := prepare(doc)
	if err != nil {
		return Document{}, err
	}
	s.mu.Lock()
	s.docs[doc.ID] = doc
	s.mu.Unlock()
	return doc.clone(), nil
}

func (s *MemoryStore) Load(_ context.Context, id string) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.docs[id]
	if !ok {
		return Document{}, notFound(id)
	}
	return doc.clone(), nil
}

func (s *MemoryStore) List(context.Context) ([]Meta, error) {
	s.mu.RLock()
	out := make([]Meta, 0, len(s.docs))
	for _, d := range s.docs {
		out = append(out, d.Meta())
	}
	s.mu.RUnlock()
	sortMetas(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.docs, id)
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Close() error { return nil }

var _ Store = (*MemoryStore)(nil)
