package store

import (
	"context"
	"path"
	"sort"
	"sync"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
)

// Event is one document held by a MemoryStore. Fields are keyed by their
// dotted names, as in FieldMap.
type Event struct {
	Index     string
	Timestamp time.Time
	Fields    map[string]string
}

// MemoryStore evaluates KPI aggregations over events held in memory.
// Distinct counts are exact.
type MemoryStore struct {
	mu      sync.RWMutex
	indices map[string]struct{}
	events  []Event
}

// NewMemory returns a store holding events.
func NewMemory(events ...Event) *MemoryStore {
	m := &MemoryStore{indices: make(map[string]struct{})}
	m.Add(events...)
	return m
}

// CreateIndex registers an index that may hold no events.
func (m *MemoryStore) CreateIndex(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.indices[name] = struct{}{}
}

// Add appends events, creating their indices.
func (m *MemoryStore) Add(events ...Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range events {
		m.indices[e.Index] = struct{}{}
		m.events = append(m.events, e)
	}
}

// Indices lists the known index names in order.
func (m *MemoryStore) Indices() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.indices))
	for name := range m.indices {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func matchAny(patterns []string, index string) bool {
	for _, p := range patterns {
		if ok, _ := path.Match(p, index); ok {
			return true
		}
	}
	return false
}

// each calls fn for every event in scope that matches terms.
func (m *MemoryStore) each(ctx context.Context, scope Scope, terms []Term, fn func(Event)) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	from, to := scope.From.UnixMilli(), scope.To.UnixMilli()
	for _, e := range m.events {
		if err := ctx.Err(); err != nil {
			return err
		}
		ts := e.Timestamp.UnixMilli()
		if ts < from || ts >= to {
			continue
		}
		if e.Fields[scope.Fields.HostName] != scope.HostName || !matchAny(scope.Indices, e.Index) {
			continue
		}
		matched := true
		for _, t := range terms {
			if e.Fields[t.Field] != t.Value {
				matched = false
				break
			}
		}
		if matched {
			fn(e)
		}
	}
	return nil
}

// ResolveIndices implements EventStore.
func (m *MemoryStore) ResolveIndices(ctx context.Context, patterns []string) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	names := m.Indices()
	var resolved []string
	for _, p := range patterns {
		for _, name := range names {
			if ok, _ := path.Match(p, name); ok {
				resolved = append(resolved, p)
				break
			}
		}
	}
	return resolved, nil
}

// CountHistogram implements EventStore.
func (m *MemoryStore) CountHistogram(ctx context.Context, scope Scope, terms []Term, plan histogram.Plan) (int64, []int64, error) {
	var total int64
	buckets := make([]int64, plan.Count())
	err := m.each(ctx, scope, terms, func(e Event) {
		total++
		if i := plan.Index(e.Timestamp); i >= 0 {
			buckets[i]++
		}
	})
	if err != nil {
		return 0, nil, err
	}
	return total, buckets, nil
}

// CardinalityHistogram implements EventStore.
func (m *MemoryStore) CardinalityHistogram(ctx context.Context, scope Scope, field string, plan histogram.Plan) ([]int64, error) {
	sets := make([]map[string]struct{}, plan.Count())
	err := m.each(ctx, scope, nil, func(e Event) {
		v := e.Fields[field]
		i := plan.Index(e.Timestamp)
		if v == "" || i < 0 {
			return
		}
		if sets[i] == nil {
			sets[i] = make(map[string]struct{})
		}
		sets[i][v] = struct{}{}
	})
	if err != nil {
		return nil, err
	}
	out := make([]int64, len(sets))
	for i, s := range sets {
		out[i] = int64(len(s))
	}
	return out, nil
}

// Cardinality implements EventStore.
func (m *MemoryStore) Cardinality(ctx context.Context, scope Scope, field string) (int64, error) {
	seen := make(map[string]struct{})
	err := m.each(ctx, scope, nil, func(e Event) {
		if v := e.Fields[field]; v != "" {
			seen[v] = struct{}{}
		}
	})
	if err != nil {
		return 0, err
	}
	return int64(len(seen)), nil
}

// Span implements EventStore.
func (m *MemoryStore) Span(ctx context.Context, scope Scope) (histogram.Span, error) {
	var span histogram.Span
	err := m.each(ctx, scope, nil, func(e Event) {
		ts := e.Timestamp.UTC()
		if span.IsZero() || ts.Before(span.First) {
			span.First = ts
		}
		if span.Last.IsZero() || ts.After(span.Last) {
			span.Last = ts
		}
	})
	return span, err
}

// Ping implements EventStore.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}
