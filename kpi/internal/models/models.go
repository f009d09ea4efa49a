package models

import (
	"encoding/json"
	"time"
)

// Type tags carried on the wire.
const (
	TypeHostDetails   = "KpiHostDetailsData"
	TypeHostHistogram = "KpiHostHistogramData"
)

// Bucket is one histogram bucket. Value is an event count for the auth
// metrics and a distinct count for the IP metrics.
type Bucket struct {
	Start time.Time
	Value int64
}

// HostKpiResult summarizes authentication and network activity of one host.
// The auth histograms are nil when the metric matched no events at all; the
// IP histograms are always populated.
type HostKpiResult struct {
	AuthSuccess          int64
	AuthSuccessHistogram []Bucket
	AuthFailure          int64
	AuthFailureHistogram []Bucket

	UniqueSourceIPs               int64
	UniqueSourceIPsHistogram      []Bucket
	UniqueDestinationIPs          int64
	UniqueDestinationIPsHistogram []Bucket

	// Interval is the effective bucket width. AutoInterval is set when it
	// was derived from the data rather than taken from the request.
	Interval     time.Duration
	AutoInterval bool
}

// TimeRange is the request time range in epoch milliseconds.
type TimeRange struct {
	From     int64  `json:"from"`
	To       int64  `json:"to"`
	Interval string `json:"interval"`
}

// HostDetailsRequest asks for the KPIs of one host.
type HostDetailsRequest struct {
	SourceID     string    `json:"source_id,omitempty"`
	HostName     string    `json:"host_name"`
	TimeRange    TimeRange `json:"timerange"`
	DefaultIndex []string  `json:"default_index,omitempty"`
	Inspect      bool      `json:"inspect,omitempty"`
}

// KpiHostHistogramData is the wire form of a Bucket.
type KpiHostHistogramData struct {
	X        int64  `json:"x"`
	Y        int64  `json:"y"`
	TypeName string `json:"__typename"`
}

// Inspect carries the store queries behind a result.
type Inspect struct {
	DSL []json.RawMessage `json:"dsl"`
}

// KpiHostDetailsData is the wire form of a HostKpiResult.
type KpiHostDetailsData struct {
	AuthSuccess                   int64                  `json:"authSuccess"`
	AuthSuccessHistogram          []KpiHostHistogramData `json:"authSuccessHistogram"`
	AuthFailure                   int64                  `json:"authFailure"`
	AuthFailureHistogram          []KpiHostHistogramData `json:"authFailureHistogram"`
	UniqueSourceIPs               int64                  `json:"uniqueSourceIps"`
	UniqueSourceIPsHistogram      []KpiHostHistogramData `json:"uniqueSourceIpsHistogram"`
	UniqueDestinationIPs          int64                  `json:"uniqueDestinationIps"`
	UniqueDestinationIPsHistogram []KpiHostHistogramData `json:"uniqueDestinationIpsHistogram"`
	Interval                      string                 `json:"interval,omitempty"`
	Inspect                       *Inspect               `json:"inspect,omitempty"`
	TypeName                      string                 `json:"__typename"`
}

// histogramData converts buckets, keeping nil as nil so an absent histogram
// encodes as null.
func histogramData(buckets []Bucket) []KpiHostHistogramData {
	if buckets == nil {
		return nil
	}
	out := make([]KpiHostHistogramData, len(buckets))
	for i, b := range buckets {
		out[i] = KpiHostHistogramData{
			X:        b.Start.UnixMilli(),
			Y:        b.Value,
			TypeName: TypeHostHistogram,
		}
	}
	return out
}

// alwaysData is histogramData for histograms that must never be null.
func alwaysData(buckets []Bucket) []KpiHostHistogramData {
	out := histogramData(buckets)
	if out == nil {
		out = []KpiHostHistogramData{}
	}
	return out
}

// ToWire renders r in its wire form. interval is the formatted effective
// bucket width.
func (r *HostKpiResult) ToWire(interval string) KpiHostDetailsData {
	return KpiHostDetailsData{
		AuthSuccess:                   r.AuthSuccess,
		AuthSuccessHistogram:          histogramData(r.AuthSuccessHistogram),
		AuthFailure:                   r.AuthFailure,
		AuthFailureHistogram:          histogramData(r.AuthFailureHistogram),
		UniqueSourceIPs:               r.UniqueSourceIPs,
		UniqueSourceIPsHistogram:      alwaysData(r.UniqueSourceIPsHistogram),
		UniqueDestinationIPs:          r.UniqueDestinationIPs,
		UniqueDestinationIPsHistogram: alwaysData(r.UniqueDestinationIPsHistogram),
		Interval:                      interval,
		TypeName:                      TypeHostDetails,
	}
}
