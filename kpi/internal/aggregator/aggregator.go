// Package aggregator computes host KPIs from the event store.
package aggregator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/metrics"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/models"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

const (
	DefaultMaxBuckets  = 1000
	DefaultAutoBuckets = 6
)

// TimeRange is the half-open range [From, To) split into Interval buckets.
// With Auto set, Interval is ignored and the buckets are derived from the
// data span.
type TimeRange struct {
	From     time.Time
	To       time.Time
	Interval time.Duration
	Auto     bool
}

// HostKpiQuery selects the events of one host.
type HostKpiQuery struct {
	HostName      string
	TimeRange     TimeRange
	SourceIndices []string
	// Fields overrides the ECS field names. Empty entries keep the defaults.
	Fields store.FieldMap
}

// Options tune an Aggregator.
type Options struct {
	// MaxBuckets caps a fixed plan. Larger requests are bucketed from the
	// data span instead.
	MaxBuckets int
	// AutoBuckets is the bucket target for plans derived from the data span.
	AutoBuckets int
	Logger      *slog.Logger
}

// Aggregator computes HostKpiResults. It holds no per-call state and is safe
// for concurrent use.
type Aggregator struct {
	store       store.EventStore
	maxBuckets  int
	autoBuckets int
	logger      *slog.Logger
}

func New(s store.EventStore, opts Options) *Aggregator {
	if opts.MaxBuckets <= 0 {
		opts.MaxBuckets = DefaultMaxBuckets
	}
	if opts.AutoBuckets <= 0 {
		opts.AutoBuckets = DefaultAutoBuckets
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Aggregator{
		store:       s,
		maxBuckets:  opts.MaxBuckets,
		autoBuckets: opts.AutoBuckets,
		logger:      opts.Logger.With(slog.String("component", "aggregator")),
	}
}

func validate(q HostKpiQuery) error {
	tr := q.TimeRange
	switch {
	case strings.TrimSpace(q.HostName) == "":
		return &QueryError{Reason: "host name is required"}
	case len(q.SourceIndices) == 0:
		return &QueryError{Reason: "at least one source index is required"}
	case tr.From.IsZero() || tr.To.IsZero():
		return &QueryError{Reason: "time range bounds are required"}
	case tr.From.UnixMilli() >= tr.To.UnixMilli():
		return &QueryError{Reason: "time range start must be before its end"}
	case !tr.Auto && tr.Interval < time.Millisecond:
		return &QueryError{Reason: "interval must be at least 1ms"}
	}
	for _, idx := range q.SourceIndices {
		if strings.TrimSpace(idx) == "" {
			return &QueryError{Reason: "source index patterns must not be blank"}
		}
	}
	return nil
}

// Compute returns the KPIs of q.HostName. It fails with a QueryError before
// touching the store when q is malformed, with an IndexError when no source
// pattern matches an index, and with the store's error otherwise. Results
// are never partial.
func (a *Aggregator) Compute(ctx context.Context, q HostKpiQuery) (*models.HostKpiResult, error) {
	if err := validate(q); err != nil {
		return nil, err
	}
	start := time.Now()
	defer func() {
		metrics.ComputeDuration.Observe(time.Since(start).Seconds())
	}()

	resolved, err := a.store.ResolveIndices(ctx, q.SourceIndices)
	if err != nil {
		return nil, fmt.Errorf("resolve source indices: %w", err)
	}
	if len(resolved) == 0 {
		return nil, &IndexError{Patterns: q.SourceIndices}
	}

	scope := store.Scope{
		Indices:  resolved,
		HostName: q.HostName,
		From:     q.TimeRange.From,
		To:       q.TimeRange.To,
		Fields:   q.Fields.WithDefaults(),
	}
	plan, err := a.plan(ctx, scope, q.TimeRange)
	if err != nil {
		return nil, err
	}
	scope.From, scope.To = plan.From, plan.To

	var (
		successTotal, failureTotal int64
		success, failure           []int64
		srcBuckets, dstBuckets     []int64
		srcTotal, dstTotal         int64
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		successTotal, success, err = a.store.CountHistogram(gctx, scope, scope.Fields.AuthSuccess(), plan)
		return wrap("auth success", err)
	})
	g.Go(func() (err error) {
		failureTotal, failure, err = a.store.CountHistogram(gctx, scope, scope.Fields.AuthFailure(), plan)
		return wrap("auth failure", err)
	})
	g.Go(func() (err error) {
		srcBuckets, err = a.store.CardinalityHistogram(gctx, scope, scope.Fields.SourceIP, plan)
		return wrap("source ip histogram", err)
	})
	g.Go(func() (err error) {
		dstBuckets, err = a.store.CardinalityHistogram(gctx, scope, scope.Fields.DestinationIP, plan)
		return wrap("destination ip histogram", err)
	})
	g.Go(func() (err error) {
		srcTotal, err = a.store.Cardinality(gctx, scope, scope.Fields.SourceIP)
		return wrap("source ip cardinality", err)
	})
	g.Go(func() (err error) {
		dstTotal, err = a.store.Cardinality(gctx, scope, scope.Fields.DestinationIP)
		return wrap("destination ip cardinality", err)
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	starts := plan.Starts()
	result := &models.HostKpiResult{
		Interval:     plan.Interval,
		AutoInterval: plan.Auto,
	}
	result.AuthSuccess, result.AuthSuccessHistogram = countMetric(starts, success)
	result.AuthFailure, result.AuthFailureHistogram = countMetric(starts, failure)
	result.UniqueSourceIPs, result.UniqueSourceIPsHistogram = cardinalityMetric(starts, srcBuckets, srcTotal)
	result.UniqueDestinationIPs, result.UniqueDestinationIPsHistogram = cardinalityMetric(starts, dstBuckets, dstTotal)

	if result.AuthSuccess != successTotal || result.AuthFailure != failureTotal {
		a.logger.DebugContext(ctx, "bucket sums differ from matched totals",
			slog.Int64("success_sum", result.AuthSuccess),
			slog.Int64("success_total", successTotal),
			slog.Int64("failure_sum", result.AuthFailure),
			slog.Int64("failure_total", failureTotal))
	}
	metrics.HistogramBuckets.Observe(float64(len(starts)))
	a.logger.DebugContext(ctx, "computed host kpis",
		slog.String("host", q.HostName),
		slog.String("plan", plan.String()),
		slog.Int("indices", len(resolved)))

	return result, nil
}

// plan builds the fixed plan for the request, or one derived from the data
// span when automatic bucketing was asked for or the fixed plan has too many
// buckets.
func (a *Aggregator) plan(ctx context.Context, scope store.Scope, tr TimeRange) (histogram.Plan, error) {
	if !tr.Auto {
		plan, err := histogram.NewPlan(scope.From, scope.To, tr.Interval, a.maxBuckets)
		if err == nil {
			return plan, nil
		}
		if !errors.Is(err, histogram.ErrTooManyBuckets) {
			return histogram.Plan{}, &QueryError{Reason: err.Error()}
		}
	}

	span, err := a.store.Span(ctx, scope)
	if err != nil {
		return histogram.Plan{}, fmt.Errorf("event span: %w", err)
	}
	metrics.AutoPlans.Inc()
	return histogram.AutoPlan(span, scope.From, scope.To, a.autoBuckets), nil
}

func wrap(metric string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", metric, err)
}

func buckets(starts []time.Time, values []int64) []models.Bucket {
	out := make([]models.Bucket, len(starts))
	for i, s := range starts {
		out[i].Start = s
		if i < len(values) {
			out[i].Value = values[i]
		}
	}
	return out
}

// countMetric sums the buckets. The histogram is nil when nothing matched.
func countMetric(starts []time.Time, values []int64) (int64, []models.Bucket) {
	var total int64
	for _, v := range values {
		total += v
	}
	if total == 0 {
		return 0, nil
	}
	return total, buckets(starts, values)
}

// cardinalityMetric pairs the whole-range estimate with the per-bucket
// estimates. The estimate is raised to the largest bucket since a union is
// never smaller than its parts.
func cardinalityMetric(starts []time.Time, values []int64, total int64) (int64, []models.Bucket) {
	for _, v := range values {
		if v > total {
			total = v
		}
	}
	return total, buckets(starts, values)
}
