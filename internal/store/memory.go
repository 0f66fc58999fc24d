package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/bridgewatch/bridgewatch/pkg/infra"
)

// MemoryStore keeps records in insertion order. It is safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]infra.Infrastructure
	order   []string
}

// NewMemoryStore creates a store holding the given records.
func NewMemoryStore(records ...infra.Infrastructure) *MemoryStore {
	s := &MemoryStore{records: make(map[string]infra.Infrastructure)}
	for _, rec := range records {
		s.records[rec.ID] = clone(rec)
		s.order = append(s.order, rec.ID)
	}
	return s
}

func (s *MemoryStore) List(ctx context.Context) ([]infra.Infrastructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]infra.Infrastructure, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, clone(s.records[id]))
	}
	return out, nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (infra.Infrastructure, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records[id]
	if !ok {
		return infra.Infrastructure{}, fmt.Errorf("get %s: %w", id, ErrNotFound)
	}
	return clone(rec), nil
}

func (s *MemoryStore) Add(ctx context.Context, rec infra.Infrastructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; ok {
		return fmt.Errorf("add %s: %w", rec.ID, ErrExists)
	}
	s.records[rec.ID] = clone(rec)
	s.order = append(s.order, rec.ID)
	return nil
}

func (s *MemoryStore) Update(ctx context.Context, rec infra.Infrastructure) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[rec.ID]; !ok {
		return fmt.Errorf("update %s: %w", rec.ID, ErrNotFound)
	}
	s.records[rec.ID] = clone(rec)
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return fmt.Errorf("delete %s: %w", id, ErrNotFound)
	}
	delete(s.records, id)
	s.order = slices.DeleteFunc(s.order, func(k string) bool { return k == id })
	return nil
}

func clone(rec infra.Infrastructure) infra.Infrastructure {
	rec.Photo = slices.Clone(rec.Photo)
	return rec
}
