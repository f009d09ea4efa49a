package store

import (
	"fmt"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/histogram"
)

const (
	aggHistogram = "histogram"
	aggUnique    = "unique"
	aggFirst     = "first"
	aggLast      = "last"
)

// filterQuery builds the bool filter shared by every KPI query: host, time
// range and any additional terms.
func filterQuery(scope Scope, terms []Term) map[string]interface{} {
	filter := []interface{}{
		map[string]interface{}{
			"term": map[string]interface{}{
				scope.Fields.HostName: scope.HostName,
			},
		},
		map[string]interface{}{
			"range": map[string]interface{}{
				scope.Fields.Timestamp: map[string]interface{}{
					"gte":    scope.From.UnixMilli(),
					"lt":     scope.To.UnixMilli(),
					"format": "epoch_millis",
				},
			},
		},
	}
	for _, t := range terms {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{
				t.Field: t.Value,
			},
		})
	}
	return map[string]interface{}{
		"bool": map[string]interface{}{
			"filter": filter,
		},
	}
}

// dateHistogram returns a fixed-interval date_histogram whose keys line up
// with plan and which emits empty buckets across the whole plan.
func dateHistogram(field string, plan histogram.Plan) map[string]interface{} {
	return map[string]interface{}{
		"field":          field,
		"fixed_interval": fmt.Sprintf("%dms", plan.Interval.Milliseconds()),
		"offset":         fmt.Sprintf("+%dms", plan.OffsetMillis()),
		"min_doc_count":  0,
		"extended_bounds": map[string]interface{}{
			"min": plan.From.UnixMilli(),
			"max": plan.LastStart().UnixMilli(),
		},
	}
}

func cardinality(field string, precision int) map[string]interface{} {
	agg := map[string]interface{}{
		"field": field,
	}
	if precision > 0 {
		agg["precision_threshold"] = precision
	}
	return map[string]interface{}{"cardinality": agg}
}

// CountHistogramBody builds the DSL for a bucketed count of events matching terms.
func CountHistogramBody(scope Scope, terms []Term, plan histogram.Plan) map[string]interface{} {
	return map[string]interface{}{
		"size":             0,
		"track_total_hits": true,
		"query":            filterQuery(scope, terms),
		"aggs": map[string]interface{}{
			aggHistogram: map[string]interface{}{
				"date_histogram": dateHistogram(scope.Fields.Timestamp, plan),
			},
		},
	}
}

// CardinalityHistogramBody builds the DSL for bucketed distinct counts of field.
func CardinalityHistogramBody(scope Scope, field string, plan histogram.Plan, precision int) map[string]interface{} {
	return map[string]interface{}{
		"size":  0,
		"query": filterQuery(scope, nil),
		"aggs": map[string]interface{}{
			aggHistogram: map[string]interface{}{
				"date_histogram": dateHistogram(scope.Fields.Timestamp, plan),
				"aggs": map[string]interface{}{
					aggUnique: cardinality(field, precision),
				},
			},
		},
	}
}

// CardinalityBody builds the DSL for a whole-range distinct count of field.
func CardinalityBody(scope Scope, field string, precision int) map[string]interface{} {
	return map[string]interface{}{
		"size":  0,
		"query": filterQuery(scope, nil),
		"aggs": map[string]interface{}{
			aggUnique: cardinality(field, precision),
		},
	}
}

// SpanBody builds the DSL for the first and last event timestamps.
func SpanBody(scope Scope) map[string]interface{} {
	ts := scope.Fields.Timestamp
	return map[string]interface{}{
		"size":  0,
		"query": filterQuery(scope, nil),
		"aggs": map[string]interface{}{
			aggFirst: map[string]interface{}{"min": map[string]interface{}{"field": ts}},
			aggLast:  map[string]interface{}{"max": map[string]interface{}{"field": ts}},
		},
	}
}
