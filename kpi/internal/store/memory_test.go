package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
)

func authEvent(index, host string, ts time.Time, outcome, src string) Event {
	return Event{
		Index:     index,
		Timestamp: ts,
		Fields: map[string]string{
			"host.name":      host,
			"event.category": "authentication",
			"event.outcome":  outcome,
			"source.ip":      src,
		},
	}
}

func TestMemoryStore(t *testing.T) {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	m := NewMemory(
		authEvent("auditbeat-2024.03.01", "web-01", base.Add(10*time.Minute), "success", "10.0.0.1"),
		authEvent("auditbeat-2024.03.01", "web-01", base.Add(20*time.Minute), "failure", "10.0.0.2"),
		authEvent("auditbeat-2024.03.01", "web-01", base.Add(70*time.Minute), "failure", "10.0.0.2"),
		authEvent("auditbeat-2024.03.01", "web-01", base.Add(80*time.Minute), "failure", "10.0.0.3"),
		authEvent("auditbeat-2024.03.01", "db-01", base.Add(30*time.Minute), "failure", "10.0.0.9"),
		authEvent("filebeat-2024.03.01", "web-01", base.Add(40*time.Minute), "failure", "10.0.0.8"),
		authEvent("auditbeat-2024.03.01", "web-01", base.Add(5*time.Hour), "failure", "10.0.0.7"),
	)
	m.CreateIndex("winlogbeat-2024.03.01")

	ctx := context.Background()
	plan, err := histogram.NewPlan(base, base.Add(2*time.Hour), time.Hour, 0)
	require.NoError(t, err)
	scope := Scope{
		Indices:  []string{"auditbeat-*"},
		HostName: "web-01",
		From:     plan.From,
		To:       plan.To,
		Fields:   DefaultFieldMap(),
	}

	t.Run("resolve", func(t *testing.T) {
		resolved, err := m.ResolveIndices(ctx, []string{"auditbeat-*", "packetbeat-*", "winlogbeat-*"})
		require.NoError(t, err)
		assert.Equal(t, []string{"auditbeat-*", "winlogbeat-*"}, resolved)
	})

	t.Run("count histogram", func(t *testing.T) {
		total, buckets, err := m.CountHistogram(ctx, scope, scope.Fields.AuthFailure(), plan)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		assert.Equal(t, []int64{1, 2}, buckets)

		total, buckets, err = m.CountHistogram(ctx, scope, scope.Fields.AuthSuccess(), plan)
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, []int64{1, 0}, buckets)
	})

	t.Run("cardinality", func(t *testing.T) {
		buckets, err := m.CardinalityHistogram(ctx, scope, "source.ip", plan)
		require.NoError(t, err)
		assert.Equal(t, []int64{2, 2}, buckets)

		n, err := m.Cardinality(ctx, scope, "source.ip")
		require.NoError(t, err)
		assert.Equal(t, int64(3), n)

		n, err = m.Cardinality(ctx, scope, "destination.ip")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("span", func(t *testing.T) {
		span, err := m.Span(ctx, scope)
		require.NoError(t, err)
		assert.Equal(t, base.Add(10*time.Minute), span.First)
		assert.Equal(t, base.Add(80*time.Minute), span.Last)

		other := scope
		other.HostName = "missing"
		span, err = m.Span(ctx, other)
		require.NoError(t, err)
		assert.True(t, span.IsZero())
	})

	t.Run("cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := m.Cardinality(cctx, scope, "source.ip")
		assert.ErrorIs(t, err, context.Canceled)
	})
}
