package store

import (
	"context"
	"encoding/json"
	"sync"
)

// InspectEntry is one query issued to the store.
type InspectEntry struct {
	Kind    string          `json:"kind"`
	Indices []string        `json:"indices"`
	DSL     json.RawMessage `json:"dsl"`
}

// Inspector collects the DSL of every query issued under a context. It is
// safe for concurrent use by the parallel sub-queries of one request.
type Inspector struct {
	mu      sync.Mutex
	entries []InspectEntry
}

type inspectorKey struct{}

// WithInspector returns a context whose store queries are recorded in in.
func WithInspector(ctx context.Context, in *Inspector) context.Context {
	return context.WithValue(ctx, inspectorKey{}, in)
}

func inspectorFrom(ctx context.Context) *Inspector {
	in, _ := ctx.Value(inspectorKey{}).(*Inspector)
	return in
}

func (in *Inspector) record(kind string, indices []string, body []byte) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.entries = append(in.entries, InspectEntry{
		Kind:    kind,
		Indices: append([]string(nil), indices...),
		DSL:     json.RawMessage(body),
	})
}

// Entries returns a copy of the recorded queries.
func (in *Inspector) Entries() []InspectEntry {
	in.mu.Lock()
	defer in.mu.Unlock()
	return append([]InspectEntry(nil), in.entries...)
}
