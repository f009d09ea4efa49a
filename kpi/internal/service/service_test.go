package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/aggregator"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/models"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/sources"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

var base = time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

func event(index string, offset time.Duration, fields map[string]string) store.Event {
	return store.Event{Index: index, Timestamp: base.Add(offset), Fields: fields}
}

func login(hostField, host, outcome, src string, offset time.Duration) store.Event {
	return event("auditbeat-2024.06.01", offset, map[string]string{
		hostField:        host,
		"event.category": "authentication",
		"event.outcome":  outcome,
		"source.ip":      src,
		"destination.ip": "10.0.0.1",
	})
}

func newService(st store.EventStore) (*KPIService, *sources.InMemoryRepository) {
	repo := sources.NewInMemoryRepository()
	return NewKPIService("1.2.3", aggregator.New(st, aggregator.Options{}), st, repo, nil), repo
}

func request(host, interval string) *models.HostDetailsRequest {
	return &models.HostDetailsRequest{
		HostName: host,
		TimeRange: models.TimeRange{
			From:     base.UnixMilli(),
			To:       base.Add(time.Hour).UnixMilli(),
			Interval: interval,
		},
	}
}

func TestHostDetails(t *testing.T) {
	st := store.NewMemory(
		login("host.name", "web-01", "success", "192.0.2.1", 5*time.Minute),
		login("host.name", "web-01", "failure", "192.0.2.2", 40*time.Minute),
		login("host.name", "web-01", "failure", "192.0.2.2", 45*time.Minute),
		login("host.name", "db-01", "failure", "192.0.2.9", 45*time.Minute),
	)
	svc, _ := newService(st)

	data, err := svc.HostDetails(context.Background(), request(" web-01 ", "30m"))
	require.NoError(t, err)

	assert.Equal(t, models.TypeHostDetails, data.TypeName)
	assert.Equal(t, "30m", data.Interval)
	assert.Equal(t, int64(1), data.AuthSuccess)
	assert.Equal(t, int64(2), data.AuthFailure)
	require.Len(t, data.AuthFailureHistogram, 2)
	assert.Equal(t, base.Add(30*time.Minute).UnixMilli(), data.AuthFailureHistogram[1].X)
	assert.Equal(t, int64(2), data.AuthFailureHistogram[1].Y)
	assert.Equal(t, int64(2), data.UniqueSourceIPs)
	assert.Equal(t, int64(1), data.UniqueDestinationIPs)
	assert.Nil(t, data.Inspect)
}

func TestHostDetails_BlankIntervalIsAutomatic(t *testing.T) {
	st := store.NewMemory(
		login("host.name", "web-01", "success", "192.0.2.1", 5*time.Minute),
		login("host.name", "web-01", "failure", "192.0.2.2", 40*time.Minute),
		login("host.name", "web-01", "failure", "192.0.2.2", 45*time.Minute),
	)
	svc, _ := newService(st)

	for _, interval := range []string{"", "  "} {
		data, err := svc.HostDetails(context.Background(), request("web-01", interval))
		require.NoError(t, err)

		assert.Equal(t, "10m", data.Interval)
		require.Len(t, data.AuthFailureHistogram, 5)
		assert.Equal(t, base.UnixMilli(), data.AuthFailureHistogram[0].X)
		assert.Equal(t, int64(2), data.AuthFailureHistogram[4].Y)
		assert.Equal(t, int64(1), data.AuthSuccess)
		assert.Equal(t, int64(2), data.UniqueSourceIPs)
	}
}

func TestHostDetails_SourceFieldsAndIndices(t *testing.T) {
	st := store.NewMemory(
		login("observer.name", "fw-01", "failure", "192.0.2.7", 10*time.Minute),
	)
	svc, repo := newService(st)
	require.NoError(t, repo.Upsert(context.Background(), &sources.Source{
		ID:      "firewall",
		Name:    "Firewall",
		Indices: []string{"auditbeat-*"},
		Fields:  store.FieldMap{HostName: "observer.name"},
	}))

	req := request("fw-01", "1h")
	req.SourceID = "firewall"
	data, err := svc.HostDetails(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, int64(1), data.AuthFailure)
	assert.Nil(t, data.AuthSuccessHistogram)
	assert.NotNil(t, data.UniqueSourceIPsHistogram)
}

func TestHostDetails_Errors(t *testing.T) {
	st := store.NewMemory(login("host.name", "web-01", "success", "192.0.2.1", time.Minute))
	svc, _ := newService(st)

	tests := []struct {
		name    string
		mutate  func(*models.HostDetailsRequest)
		wantErr error
		outcome string
	}{
		{"unknown source", func(r *models.HostDetailsRequest) { r.SourceID = "nope" }, sources.ErrSourceNotFound, OutcomeNotFound},
		{"bad interval", func(r *models.HostDetailsRequest) { r.TimeRange.Interval = "soon" }, aggregator.ErrInvalidQuery, OutcomeInvalid},
		{"inverted range", func(r *models.HostDetailsRequest) { r.TimeRange.To = r.TimeRange.From }, aggregator.ErrInvalidQuery, OutcomeInvalid},
		{"blank host", func(r *models.HostDetailsRequest) { r.HostName = "  " }, aggregator.ErrInvalidQuery, OutcomeInvalid},
		{"missing index", func(r *models.HostDetailsRequest) { r.DefaultIndex = []string{"packetbeat-*"} }, aggregator.ErrNoSourceIndex, OutcomeNoIndex},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := request("web-01", "30m")
			tt.mutate(req)
			_, err := svc.HostDetails(context.Background(), req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.outcome, Outcome(err))
		})
	}
}

// emptyCluster answers every search with empty aggregations.
func emptyCluster(t *testing.T) *store.SearchStore {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch {
		case strings.HasPrefix(r.URL.Path, "/_cat/indices"):
			fmt.Fprint(w, `[{"index":"auditbeat-2024.06.01"}]`)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			fmt.Fprint(w, `{"hits":{"total":{"value":0}},"aggregations":{"histogram":{"buckets":[]},"unique":{"value":0}}}`)
		default:
			fmt.Fprint(w, `{}`)
		}
	}))
	t.Cleanup(srv.Close)

	client, err := opensearch.NewClient(opensearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return store.NewOpenSearch(client, store.Options{Breaker: store.BreakerSettings{
		Name:             "service-test",
		MaxRequests:      1,
		Timeout:          time.Second,
		FailureThreshold: 100,
	}})
}

func TestHostDetails_Inspect(t *testing.T) {
	svc, _ := newService(emptyCluster(t))

	req := request("web-01", "30m")
	req.Inspect = true
	data, err := svc.HostDetails(context.Background(), req)
	require.NoError(t, err)

	require.NotNil(t, data.Inspect)
	assert.Len(t, data.Inspect.DSL, 6)
	assert.Nil(t, data.AuthSuccessHistogram)
	assert.Nil(t, data.AuthFailureHistogram)
	assert.Len(t, data.UniqueSourceIPsHistogram, 2)
}

func TestQuery(t *testing.T) {
	src := &sources.Source{ID: "s", Indices: []string{"a-*", "b-*"}, Fields: store.FieldMap{HostName: "agent.name"}}

	q, err := Query(request(" web-01\n", "15m"), src)
	require.NoError(t, err)
	assert.Equal(t, "web-01", q.HostName)
	assert.Equal(t, []string{"a-*", "b-*"}, q.SourceIndices)
	assert.Equal(t, 15*time.Minute, q.TimeRange.Interval)
	assert.Equal(t, base, q.TimeRange.From)
	assert.Equal(t, "agent.name", q.Fields.HostName)

	req := request("web-01", "15m")
	req.DefaultIndex = []string{"c-*"}
	q, err = Query(req, src)
	require.NoError(t, err)
	assert.Equal(t, []string{"c-*"}, q.SourceIndices)

	q, err = Query(request("web-01", ""), src)
	require.NoError(t, err)
	assert.True(t, q.TimeRange.Auto)
	assert.Zero(t, q.TimeRange.Interval)

	q, err = Query(request("web-01", "1h"), src)
	require.NoError(t, err)
	assert.False(t, q.TimeRange.Auto)
}

func TestOutcome(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, OutcomeOK},
		{fmt.Errorf("wrap: %w", sources.ErrSourceInvalid), OutcomeInvalid},
		{sources.ErrSourceProtected, OutcomeProtected},
		{fmt.Errorf("q: %w", aggregator.ErrStoreUnavailable), OutcomeUnavailable},
		{context.Canceled, OutcomeCancelled},
		{context.DeadlineExceeded, OutcomeCancelled},
		{errors.New("boom"), OutcomeError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Outcome(tt.err), "%v", tt.err)
	}
}

func TestHealthAndReady(t *testing.T) {
	svc, _ := newService(store.NewMemory())

	health := svc.Health(context.Background())
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "1.2.3", health.Version)
	assert.Nil(t, health.NATS)

	ready := svc.Ready(context.Background())
	assert.True(t, ready.Ready)
	assert.Equal(t, "ok", ready.Store)
}
