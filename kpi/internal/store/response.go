package store

import (
	"encoding/json"
	"fmt"
	"math"
	"time"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
)

type valueAgg struct {
	Value *float64 `json:"value"`
}

type histogramBucket struct {
	Key      float64   `json:"key"`
	DocCount int64     `json:"doc_count"`
	Unique   *valueAgg `json:"unique,omitempty"`
}

type searchResponse struct {
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
	} `json:"hits"`
	Aggregations struct {
		Histogram *struct {
			Buckets []histogramBucket `json:"buckets"`
		} `json:"histogram,omitempty"`
		Unique *valueAgg `json:"unique,omitempty"`
		First  *valueAgg `json:"first,omitempty"`
		Last   *valueAgg `json:"last,omitempty"`
	} `json:"aggregations"`
}

func decodeSearch(body []byte) (*searchResponse, error) {
	var resp searchResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

// fold places histogram buckets into plan order. Buckets the store returns
// outside the plan are dropped; plan buckets the store omitted stay zero.
func fold(plan histogram.Plan, buckets []histogramBucket, value func(histogramBucket) int64) []int64 {
	out := make([]int64, plan.Count())
	for _, b := range buckets {
		i := plan.IndexMillis(int64(b.Key))
		if i < 0 || i >= len(out) {
			continue
		}
		out[i] += value(b)
	}
	return out
}

func docCount(b histogramBucket) int64 {
	return b.DocCount
}

func uniqueCount(b histogramBucket) int64 {
	if b.Unique == nil {
		return 0
	}
	return b.Unique.int64()
}

func (v *valueAgg) int64() int64 {
	if v == nil || v.Value == nil {
		return 0
	}
	return int64(math.Round(*v.Value))
}

func (v *valueAgg) time() (time.Time, bool) {
	if v == nil || v.Value == nil {
		return time.Time{}, false
	}
	return time.UnixMilli(int64(*v.Value)).UTC(), true
}

func (r *searchResponse) countHistogram(plan histogram.Plan) (int64, []int64, error) {
	if r.Aggregations.Histogram == nil {
		return 0, nil, fmt.Errorf("response missing %s aggregation", aggHistogram)
	}
	return r.Hits.Total.Value, fold(plan, r.Aggregations.Histogram.Buckets, docCount), nil
}

func (r *searchResponse) cardinalityHistogram(plan histogram.Plan) ([]int64, error) {
	if r.Aggregations.Histogram == nil {
		return nil, fmt.Errorf("response missing %s aggregation", aggHistogram)
	}
	return fold(plan, r.Aggregations.Histogram.Buckets, uniqueCount), nil
}

func (r *searchResponse) cardinality() (int64, error) {
	if r.Aggregations.Unique == nil {
		return 0, fmt.Errorf("response missing %s aggregation", aggUnique)
	}
	return r.Aggregations.Unique.int64(), nil
}

func (r *searchResponse) span() histogram.Span {
	first, ok1 := r.Aggregations.First.time()
	last, ok2 := r.Aggregations.Last.time()
	if !ok1 || !ok2 {
		return histogram.Span{}
	}
	return histogram.Span{First: first, Last: last}
}
