// Package service implements the host KPI API surface shared by the HTTP
// and NATS transports.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/common/logging"
	"github.com/telhawk-systems/telhawk-kpi/common/messaging"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/aggregator"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/models"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/sources"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

// Request outcomes, used as metric labels and NATS error codes.
const (
	OutcomeOK          = "ok"
	OutcomeInvalid     = "invalid_query"
	OutcomeNoIndex     = "no_source_index"
	OutcomeNotFound    = "not_found"
	OutcomeProtected   = "protected"
	OutcomeUnavailable = "store_unavailable"
	OutcomeCancelled   = "cancelled"
	OutcomeError       = "internal_error"
)

// Outcome classifies err for metrics and error codes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return OutcomeOK
	case errors.Is(err, aggregator.ErrInvalidQuery), errors.Is(err, sources.ErrSourceInvalid):
		return OutcomeInvalid
	case errors.Is(err, aggregator.ErrNoSourceIndex):
		return OutcomeNoIndex
	case errors.Is(err, sources.ErrSourceNotFound):
		return OutcomeNotFound
	case errors.Is(err, sources.ErrSourceProtected):
		return OutcomeProtected
	case errors.Is(err, aggregator.ErrStoreUnavailable):
		return OutcomeUnavailable
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return OutcomeCancelled
	default:
		return OutcomeError
	}
}

// KPIService resolves sources and runs the aggregator.
type KPIService struct {
	startedAt  time.Time
	version    string
	aggregator *aggregator.Aggregator
	store      store.EventStore
	sources    sources.Repository
	messaging  messaging.Client
	logger     *slog.Logger
}

func NewKPIService(version string, agg *aggregator.Aggregator, st store.EventStore, repo sources.Repository, logger *slog.Logger) *KPIService {
	if logger == nil {
		logger = slog.Default()
	}
	return &KPIService{
		startedAt:  time.Now().UTC(),
		version:    version,
		aggregator: agg,
		store:      st,
		sources:    repo,
		logger:     logger.With(logging.Component("service")),
	}
}

// WithMessaging reports the broker connection in health checks.
func (s *KPIService) WithMessaging(client messaging.Client) *KPIService {
	s.messaging = client
	return s
}

// Sources exposes the source repository to the transports.
func (s *KPIService) Sources() sources.Repository {
	return s.sources
}

// Query converts req into an aggregator query using src for defaults.
func Query(req *models.HostDetailsRequest, src *sources.Source) (aggregator.HostKpiQuery, error) {
	// A blank interval asks for buckets derived from the data.
	var interval time.Duration
	auto := strings.TrimSpace(req.TimeRange.Interval) == ""
	if !auto {
		var err error
		interval, err = histogram.ParseInterval(req.TimeRange.Interval)
		if err != nil {
			return aggregator.HostKpiQuery{}, &aggregator.QueryError{Reason: err.Error()}
		}
	}
	indices := req.DefaultIndex
	if len(indices) == 0 {
		indices = src.Indices
	}
	return aggregator.HostKpiQuery{
		HostName: strings.TrimSpace(req.HostName),
		TimeRange: aggregator.TimeRange{
			From:     time.UnixMilli(req.TimeRange.From).UTC(),
			To:       time.UnixMilli(req.TimeRange.To).UTC(),
			Interval: interval,
			Auto:     auto,
		},
		SourceIndices: indices,
		Fields:        src.Fields,
	}, nil
}

// HostDetails computes the KPIs of one host and renders them for the wire.
func (s *KPIService) HostDetails(ctx context.Context, req *models.HostDetailsRequest) (*models.KpiHostDetailsData, error) {
	sourceID := req.SourceID
	if sourceID == "" {
		sourceID = sources.DefaultID
	}
	src, err := s.sources.Get(ctx, sourceID)
	if err != nil {
		return nil, fmt.Errorf("source %q: %w", sourceID, err)
	}

	q, err := Query(req, src)
	if err != nil {
		return nil, err
	}

	var inspector *store.Inspector
	if req.Inspect {
		inspector = &store.Inspector{}
		ctx = store.WithInspector(ctx, inspector)
	}

	start := time.Now()
	result, err := s.aggregator.Compute(ctx, q)
	if err != nil {
		s.logger.WarnContext(ctx, "host kpi computation failed",
			logging.Host(q.HostName),
			logging.Source(sourceID),
			logging.Outcome(Outcome(err)),
			logging.Error(err))
		return nil, err
	}

	data := result.ToWire(histogram.FormatInterval(result.Interval))
	if inspector != nil {
		data.Inspect = &models.Inspect{}
		for _, e := range inspector.Entries() {
			data.Inspect.DSL = append(data.Inspect.DSL, e.DSL)
		}
	}

	s.logger.InfoContext(ctx, "computed host kpis",
		logging.Host(q.HostName),
		logging.Source(sourceID),
		slog.String("interval", data.Interval),
		slog.Bool("auto_interval", result.AutoInterval),
		logging.Duration(time.Since(start).Milliseconds()))
	return &data, nil
}

// Health reports liveness.
func (s *KPIService) Health(ctx context.Context) *models.HealthResponse {
	resp := &models.HealthResponse{
		Status:        "healthy",
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startedAt).Seconds()),
	}
	if s.messaging != nil {
		st := messaging.CheckClientHealth(ctx, s.messaging)
		resp.NATS = &models.NATSHealthStatus{
			Connected: st.Connected,
			Latency:   st.Latency.Milliseconds(),
			Error:     st.Error,
		}
	}
	return resp
}

// Ready reports whether the event store answers.
func (s *KPIService) Ready(ctx context.Context) *models.ReadyResponse {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.store.Ping(ctx); err != nil {
		return &models.ReadyResponse{Ready: false, Store: "unavailable", Error: err.Error()}
	}
	return &models.ReadyResponse{Ready: true, Store: "ok"}
}
