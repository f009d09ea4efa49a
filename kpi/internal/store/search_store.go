package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/metrics"
)

// Query kinds, used for metrics and inspection.
const (
	KindCountHistogram       = "count_histogram"
	KindCardinalityHistogram = "cardinality_histogram"
	KindCardinality          = "cardinality"
	KindSpan                 = "span"
	KindResolve              = "resolve"
	KindPing                 = "ping"
)

// rawResponse is a backend reply before classification.
type rawResponse struct {
	StatusCode int
	Body       []byte
}

// backend is the transport a SearchStore drives. OpenSearch and
// Elasticsearch implement it with their own clients.
type backend interface {
	search(ctx context.Context, indices []string, body []byte) (*rawResponse, error)
	catIndices(ctx context.Context, pattern string) (*rawResponse, error)
	info(ctx context.Context) (*rawResponse, error)
}

// BreakerSettings configures the circuit breaker around store calls.
type BreakerSettings struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold uint32
}

// DefaultBreakerSettings trips after five consecutive availability
// failures and probes again after 30 seconds.
func DefaultBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:             "event-store",
		MaxRequests:      1,
		Interval:         60 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// Options tune a SearchStore.
type Options struct {
	// PrecisionThreshold is passed to every cardinality aggregation.
	// Zero leaves the store default.
	PrecisionThreshold int
	Breaker            BreakerSettings
	Logger             *slog.Logger
}

// SearchStore implements EventStore over the search DSL.
type SearchStore struct {
	backend   backend
	breaker   *gobreaker.CircuitBreaker
	precision int
	logger    *slog.Logger
}

func newSearchStore(b backend, opts Options) *SearchStore {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "store"))

	bs := opts.Breaker
	if bs.Name == "" {
		bs = DefaultBreakerSettings()
	}
	metrics.BreakerState.WithLabelValues(bs.Name).Set(0)

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        bs.Name,
		MaxRequests: bs.MaxRequests,
		Interval:    bs.Interval,
		Timeout:     bs.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= bs.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
		// Rejected queries and cancellations say nothing about store health.
		IsSuccessful: func(err error) bool {
			return !errors.Is(err, ErrUnavailable)
		},
	})

	return &SearchStore{
		backend:   b,
		breaker:   breaker,
		precision: opts.PrecisionThreshold,
		logger:    logger,
	}
}

// call runs fn through the breaker and classifies the outcome.
func (s *SearchStore) call(ctx context.Context, kind string, fn func() (*rawResponse, error)) ([]byte, error) {
	start := time.Now()
	out, err := s.breaker.Execute(func() (interface{}, error) {
		resp, err := fn()
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		if resp.StatusCode >= http.StatusMultipleChoices {
			return nil, classify(resp)
		}
		return resp.Body, nil
	})
	metrics.StoreDuration.WithLabelValues(kind).Observe(time.Since(start).Seconds())

	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		err = fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err != nil {
		metrics.StoreQueries.WithLabelValues(kind, "error").Inc()
		s.logger.DebugContext(ctx, "store query failed", slog.String("kind", kind), slog.String("error", err.Error()))
		return nil, err
	}
	metrics.StoreQueries.WithLabelValues(kind, "ok").Inc()
	return out.([]byte), nil
}

func (s *SearchStore) search(ctx context.Context, kind string, indices []string, body map[string]interface{}) (*searchResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("encode %s query: %w", kind, err)
	}
	if in := inspectorFrom(ctx); in != nil {
		in.record(kind, indices, payload)
	}

	raw, err := s.call(ctx, kind, func() (*rawResponse, error) {
		return s.backend.search(ctx, indices, payload)
	})
	if err != nil {
		return nil, err
	}
	return decodeSearch(raw)
}

// ResolveIndices implements EventStore.
func (s *SearchStore) ResolveIndices(ctx context.Context, patterns []string) ([]string, error) {
	var resolved []string
	for _, pattern := range patterns {
		raw, err := s.call(ctx, KindResolve, func() (*rawResponse, error) {
			return s.backend.catIndices(ctx, pattern)
		})
		if errors.Is(err, ErrIndexNotFound) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("resolve %q: %w", pattern, err)
		}

		var rows []struct {
			Index string `json:"index"`
		}
		if err := json.Unmarshal(raw, &rows); err != nil {
			return nil, fmt.Errorf("decode index list: %w", err)
		}
		if len(rows) > 0 {
			resolved = append(resolved, pattern)
		}
	}
	return resolved, nil
}

// CountHistogram implements EventStore.
func (s *SearchStore) CountHistogram(ctx context.Context, scope Scope, terms []Term, plan histogram.Plan) (int64, []int64, error) {
	resp, err := s.search(ctx, KindCountHistogram, scope.Indices, CountHistogramBody(scope, terms, plan))
	if err != nil {
		return 0, nil, err
	}
	return resp.countHistogram(plan)
}

// CardinalityHistogram implements EventStore.
func (s *SearchStore) CardinalityHistogram(ctx context.Context, scope Scope, field string, plan histogram.Plan) ([]int64, error) {
	resp, err := s.search(ctx, KindCardinalityHistogram, scope.Indices, CardinalityHistogramBody(scope, field, plan, s.precision))
	if err != nil {
		return nil, err
	}
	return resp.cardinalityHistogram(plan)
}

// Cardinality implements EventStore.
func (s *SearchStore) Cardinality(ctx context.Context, scope Scope, field string) (int64, error) {
	resp, err := s.search(ctx, KindCardinality, scope.Indices, CardinalityBody(scope, field, s.precision))
	if err != nil {
		return 0, err
	}
	return resp.cardinality()
}

// Span implements EventStore.
func (s *SearchStore) Span(ctx context.Context, scope Scope) (histogram.Span, error) {
	resp, err := s.search(ctx, KindSpan, scope.Indices, SpanBody(scope))
	if err != nil {
		return histogram.Span{}, err
	}
	return resp.span(), nil
}

// Ping implements EventStore.
func (s *SearchStore) Ping(ctx context.Context) error {
	_, err := s.call(ctx, KindPing, func() (*rawResponse, error) {
		return s.backend.info(ctx)
	})
	return err
}

type errorBody struct {
	Error json.RawMessage `json:"error"`
}

type errorCause struct {
	Type   string `json:"type"`
	Reason string `json:"reason"`
}

// classify maps an error reply onto the store sentinels.
func classify(resp *rawResponse) error {
	cause := errorCause{Reason: http.StatusText(resp.StatusCode)}
	var body errorBody
	if json.Unmarshal(resp.Body, &body) == nil && len(body.Error) > 0 {
		if json.Unmarshal(body.Error, &cause) != nil {
			var reason string
			if json.Unmarshal(body.Error, &reason) == nil {
				cause.Reason = reason
			}
		}
	}

	switch {
	case resp.StatusCode == http.StatusNotFound && cause.Type == "index_not_found_exception":
		return fmt.Errorf("%w: %s", ErrIndexNotFound, cause.Reason)
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError:
		return fmt.Errorf("%w: status %d: %s", ErrUnavailable, resp.StatusCode, cause.Reason)
	default:
		return fmt.Errorf("%w: status %d: %s %s", ErrBadRequest, resp.StatusCode, cause.Type, cause.Reason)
	}
}
