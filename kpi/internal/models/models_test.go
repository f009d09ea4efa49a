package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToWire_Fixture(t *testing.T) {
	start := time.Date(2019, 2, 9, 16, 0, 0, 0, time.UTC)
	buckets := func(values ...int64) []Bucket {
		out := make([]Bucket, len(values))
		for i, v := range values {
			out[i] = Bucket{Start: start.Add(time.Duration(i) * 3 * time.Hour), Value: v}
		}
		return out
	}
	r := &HostKpiResult{
		UniqueSourceIPs:               121,
		UniqueSourceIPsHistogram:      buckets(52, 0, 31, 88),
		UniqueDestinationIPs:          154,
		UniqueDestinationIPsHistogram: buckets(61, 0, 45, 114),
	}

	raw, err := json.Marshal(r.ToWire(""))
	require.NoError(t, err)

	expected := `{
		"authSuccess": 0,
		"authSuccessHistogram": null,
		"authFailure": 0,
		"authFailureHistogram": null,
		"uniqueSourceIps": 121,
		"uniqueSourceIpsHistogram": [
			{"x": 1549728000000, "y": 52, "__typename": "KpiHostHistogramData"},
			{"x": 1549738800000, "y": 0, "__typename": "KpiHostHistogramData"},
			{"x": 1549749600000, "y": 31, "__typename": "KpiHostHistogramData"},
			{"x": 1549760400000, "y": 88, "__typename": "KpiHostHistogramData"}
		],
		"uniqueDestinationIps": 154,
		"uniqueDestinationIpsHistogram": [
			{"x": 1549728000000, "y": 61, "__typename": "KpiHostHistogramData"},
			{"x": 1549738800000, "y": 0, "__typename": "KpiHostHistogramData"},
			{"x": 1549749600000, "y": 45, "__typename": "KpiHostHistogramData"},
			{"x": 1549760400000, "y": 114, "__typename": "KpiHostHistogramData"}
		],
		"__typename": "KpiHostDetailsData"
	}`
	assert.JSONEq(t, expected, string(raw))
}

func TestToWire_EmptyIPHistogramsAreArrays(t *testing.T) {
	r := &HostKpiResult{
		AuthFailure:          1,
		AuthFailureHistogram: []Bucket{{Start: time.UnixMilli(0), Value: 1}},
	}
	w := r.ToWire("1h")

	raw, err := json.Marshal(w)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Nil(t, decoded["authSuccessHistogram"])
	assert.Equal(t, []interface{}{}, decoded["uniqueSourceIpsHistogram"])
	assert.Equal(t, []interface{}{}, decoded["uniqueDestinationIpsHistogram"])
	assert.Equal(t, "1h", decoded["interval"])
	assert.Len(t, decoded["authFailureHistogram"], 1)
}
