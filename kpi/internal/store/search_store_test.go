package store

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestOpenSearch(t *testing.T, handler http.HandlerFunc) *SearchStore {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{srv.URL},
		DisableRetry: true,
	})
	require.NoError(t, err)

	breaker := DefaultBreakerSettings()
	breaker.Name = t.Name()
	breaker.FailureThreshold = 2
	return NewOpenSearch(client, Options{PrecisionThreshold: 3000, Breaker: breaker})
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	io.WriteString(w, body)
}

func TestSearchStore_CountHistogram(t *testing.T) {
	scope, plan := testScope(t)
	starts := plan.Starts()

	var gotPath string
	var gotQuery string
	var gotBody map[string]interface{}
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		json.NewDecoder(r.Body).Decode(&gotBody)
		writeJSON(w, http.StatusOK, `{
			"hits": {"total": {"value": 7, "relation": "eq"}},
			"aggregations": {"histogram": {"buckets": [
				{"key": `+ms(starts[0])+`, "doc_count": 5},
				{"key": `+ms(starts[2])+`, "doc_count": 2},
				{"key": `+ms(starts[2].Add(-24*time.Hour))+`, "doc_count": 9}
			]}}
		}`)
	})

	total, buckets, err := s.CountHistogram(context.Background(), scope, scope.Fields.AuthSuccess(), plan)
	require.NoError(t, err)
	assert.Equal(t, int64(7), total)
	assert.Equal(t, []int64{5, 0, 2, 0}, buckets)
	assert.Equal(t, "/auditbeat-*,filebeat-*/_search", gotPath)
	assert.Contains(t, gotQuery, "ignore_unavailable=true")
	assert.Contains(t, gotQuery, "allow_no_indices=true")
	assert.Contains(t, gotBody, "aggs")
}

func TestSearchStore_CardinalityHistogram(t *testing.T) {
	scope, plan := testScope(t)
	starts := plan.Starts()

	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{
			"hits": {"total": {"value": 300}},
			"aggregations": {"histogram": {"buckets": [
				{"key": `+ms(starts[0])+`, "doc_count": 100, "unique": {"value": 52}},
				{"key": `+ms(starts[1])+`, "doc_count": 0, "unique": {"value": 0}},
				{"key": `+ms(starts[2])+`, "doc_count": 80, "unique": {"value": 31}},
				{"key": `+ms(starts[3])+`, "doc_count": 120, "unique": {"value": 88}}
			]}}
		}`)
	})

	buckets, err := s.CardinalityHistogram(context.Background(), scope, "source.ip", plan)
	require.NoError(t, err)
	assert.Equal(t, []int64{52, 0, 31, 88}, buckets)
}

func TestSearchStore_CardinalityAndSpan(t *testing.T) {
	scope, _ := testScope(t)
	first := time.Date(2019, 2, 9, 16, 12, 45, 0, time.UTC)
	last := time.Date(2019, 2, 10, 2, 40, 10, 0, time.UTC)

	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		aggs := body["aggs"].(map[string]interface{})
		if _, ok := aggs["unique"]; ok {
			writeJSON(w, http.StatusOK, `{"aggregations": {"unique": {"value": 121}}}`)
			return
		}
		writeJSON(w, http.StatusOK, `{"aggregations": {
			"first": {"value": `+ms(first)+`, "value_as_string": "2019-02-09T16:12:45.000Z"},
			"last": {"value": `+ms(last)+`}
		}}`)
	})

	n, err := s.Cardinality(context.Background(), scope, "source.ip")
	require.NoError(t, err)
	assert.Equal(t, int64(121), n)

	span, err := s.Span(context.Background(), scope)
	require.NoError(t, err)
	assert.True(t, first.Equal(span.First))
	assert.True(t, last.Equal(span.Last))
}

func TestSearchStore_EmptySpan(t *testing.T) {
	scope, _ := testScope(t)
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"aggregations": {"first": {"value": null}, "last": {"value": null}}}`)
	})

	span, err := s.Span(context.Background(), scope)
	require.NoError(t, err)
	assert.True(t, span.IsZero())
}

func TestSearchStore_ResolveIndices(t *testing.T) {
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/_cat/indices/auditbeat-*":
			assert.Equal(t, "json", r.URL.Query().Get("format"))
			writeJSON(w, http.StatusOK, `[{"index": "auditbeat-2019.02.09"}]`)
		case "/_cat/indices/filebeat-*":
			writeJSON(w, http.StatusOK, `[]`)
		case "/_cat/indices/winlogbeat":
			writeJSON(w, http.StatusNotFound, `{"error": {"type": "index_not_found_exception", "reason": "no such index [winlogbeat]"}, "status": 404}`)
		default:
			t.Errorf("unexpected path %s", r.URL.Path)
			w.WriteHeader(http.StatusBadRequest)
		}
	})

	resolved, err := s.ResolveIndices(context.Background(), []string{"auditbeat-*", "filebeat-*", "winlogbeat"})
	require.NoError(t, err)
	assert.Equal(t, []string{"auditbeat-*"}, resolved)
}

func TestSearchStore_ErrorClassification(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
		want   error
	}{
		{"server error", http.StatusInternalServerError, `{"error": {"type": "exception", "reason": "boom"}}`, ErrUnavailable},
		{"overloaded", http.StatusTooManyRequests, `{"error": {"type": "es_rejected_execution_exception"}}`, ErrUnavailable},
		{"bad query", http.StatusBadRequest, `{"error": {"type": "parsing_exception", "reason": "unknown field"}}`, ErrBadRequest},
		{"missing index", http.StatusNotFound, `{"error": {"type": "index_not_found_exception", "reason": "no such index"}}`, ErrIndexNotFound},
		{"string error", http.StatusUnauthorized, `{"error": "unauthorized"}`, ErrBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scope, _ := testScope(t)
			s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
				writeJSON(w, tt.status, tt.body)
			})
			_, err := s.Cardinality(context.Background(), scope, "source.ip")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSearchStore_TransportFailure(t *testing.T) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses:    []string{"http://127.0.0.1:1"},
		DisableRetry: true,
	})
	require.NoError(t, err)
	s := NewOpenSearch(client, Options{})

	scope, _ := testScope(t)
	_, err = s.Cardinality(context.Background(), scope, "source.ip")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, s.Ping(context.Background()), ErrUnavailable)
}

func TestSearchStore_BreakerOpens(t *testing.T) {
	var calls int32
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusServiceUnavailable, `{"error": {"type": "cluster_block_exception"}}`)
	})
	scope, _ := testScope(t)

	for i := 0; i < 2; i++ {
		_, err := s.Cardinality(context.Background(), scope, "source.ip")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	_, err := s.Cardinality(context.Background(), scope, "source.ip")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Contains(t, err.Error(), "circuit breaker is open")
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestSearchStore_BadRequestsDoNotTrip(t *testing.T) {
	var calls int32
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		writeJSON(w, http.StatusBadRequest, `{"error": {"type": "parsing_exception"}}`)
	})
	scope, _ := testScope(t)

	for i := 0; i < 5; i++ {
		_, err := s.Cardinality(context.Background(), scope, "source.ip")
		assert.ErrorIs(t, err, ErrBadRequest)
	}
	assert.Equal(t, int32(5), atomic.LoadInt32(&calls))
}

func TestSearchStore_Cancelled(t *testing.T) {
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	scope, _ := testScope(t)
	_, err := s.Cardinality(ctx, scope, "source.ip")
	assert.ErrorIs(t, err, context.Canceled)
	assert.NotErrorIs(t, err, ErrUnavailable)
}

func TestSearchStore_Inspector(t *testing.T) {
	s := newTestOpenSearch(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"aggregations": {"unique": {"value": 3}}}`)
	})
	in := &Inspector{}
	ctx := WithInspector(context.Background(), in)

	scope, _ := testScope(t)
	_, err := s.Cardinality(ctx, scope, "destination.ip")
	require.NoError(t, err)

	entries := in.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, KindCardinality, entries[0].Kind)
	assert.Equal(t, scope.Indices, entries[0].Indices)
	assert.Contains(t, string(entries[0].DSL), `"destination.ip"`)
}

func TestElasticsearchBackend(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		switch {
		case r.URL.Path == "/":
			writeJSON(w, http.StatusOK, `{"name": "es", "cluster_name": "test", "version": {"number": "8.11.1"}}`)
		case strings.HasPrefix(r.URL.Path, "/_cat/indices/"):
			writeJSON(w, http.StatusOK, `[{"index": "packetbeat-2019.02.10"}]`)
		case strings.HasSuffix(r.URL.Path, "/_search"):
			writeJSON(w, http.StatusOK, `{"aggregations": {"unique": {"value": 154}}}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	client, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	s := NewElasticsearch(client, Options{})

	require.NoError(t, s.Ping(context.Background()))

	resolved, err := s.ResolveIndices(context.Background(), []string{"packetbeat-*"})
	require.NoError(t, err)
	assert.Equal(t, []string{"packetbeat-*"}, resolved)

	scope, _ := testScope(t)
	n, err := s.Cardinality(context.Background(), scope, "destination.ip")
	require.NoError(t, err)
	assert.Equal(t, int64(154), n)
}

func ms(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
