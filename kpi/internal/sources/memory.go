package sources

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository keeps sources for the life of the process. It starts
// with the default source.
type InMemoryRepository struct {
	mu      sync.RWMutex
	sources map[string]*Source
}

func NewInMemoryRepository() *InMemoryRepository {
	now := time.Now().UTC()
	def := Default()
	def.CreatedAt, def.UpdatedAt = now, now
	return &InMemoryRepository{
		sources: map[string]*Source{DefaultID: def},
	}
}

func clone(s *Source) *Source {
	c := *s
	c.Indices = append([]string(nil), s.Indices...)
	return &c
}

func (r *InMemoryRepository) Get(ctx context.Context, id string) (*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sources[id]
	if !ok {
		return nil, ErrSourceNotFound
	}
	return clone(s), nil
}

func (r *InMemoryRepository) List(ctx context.Context) ([]*Source, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Source, 0, len(r.sources))
	for _, s := range r.sources {
		out = append(out, clone(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *InMemoryRepository) Upsert(ctx context.Context, s *Source) error {
	if err := s.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	s.UpdatedAt = now
	if existing, ok := r.sources[s.ID]; ok {
		s.CreatedAt = existing.CreatedAt
	} else {
		s.CreatedAt = now
	}
	r.sources[s.ID] = clone(s)
	return nil
}

func (r *InMemoryRepository) Delete(ctx context.Context, id string) error {
	if id == DefaultID {
		return ErrSourceProtected
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sources[id]; !ok {
		return ErrSourceNotFound
	}
	delete(r.sources, id)
	return nil
}

func (r *InMemoryRepository) Close() {}
