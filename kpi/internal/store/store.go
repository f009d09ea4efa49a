// Package store queries the event store backing host KPIs.
//
// The store is consumed through EventStore. SearchStore speaks the
// OpenSearch / Elasticsearch aggregation DSL to either backend and wraps
// every call in a circuit breaker; MemoryStore evaluates the same
// aggregations over events held in memory.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
)

var (
	// ErrUnavailable means the store could not be reached or failed
	// server-side. Callers decide whether to retry.
	ErrUnavailable = errors.New("event store unavailable")

	// ErrIndexNotFound means a concrete index named in the request does not exist.
	ErrIndexNotFound = errors.New("index not found")

	// ErrBadRequest means the store rejected the query itself.
	ErrBadRequest = errors.New("event store rejected query")
)

// Term is an exact-match filter on a keyword field.
type Term struct {
	Field string
	Value string
}

// Scope restricts a query to one host, a set of indices and a time range.
// From is inclusive, To exclusive.
type Scope struct {
	Indices  []string
	HostName string
	From     time.Time
	To       time.Time
	Fields   FieldMap
}

// EventStore is the read-only aggregation surface used by the aggregator.
type EventStore interface {
	// ResolveIndices returns the patterns that match at least one index.
	ResolveIndices(ctx context.Context, patterns []string) ([]string, error)

	// CountHistogram counts events matching terms per bucket of plan and in
	// total.
	CountHistogram(ctx context.Context, scope Scope, terms []Term, plan histogram.Plan) (int64, []int64, error)

	// CardinalityHistogram estimates distinct values of field per bucket.
	CardinalityHistogram(ctx context.Context, scope Scope, field string, plan histogram.Plan) ([]int64, error)

	// Cardinality estimates distinct values of field over the whole scope.
	Cardinality(ctx context.Context, scope Scope, field string) (int64, error)

	// Span returns the first and last event timestamps in scope.
	Span(ctx context.Context, scope Scope) (histogram.Span, error)

	// Ping checks connectivity.
	Ping(ctx context.Context) error
}
