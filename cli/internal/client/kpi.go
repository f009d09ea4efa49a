package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// KPIClient talks to the KPI service API.
type KPIClient struct {
	baseURL string
	token   string
	client  *http.Client
}

// NewKPIClient creates a KPIClient pointing at baseURL. An empty token
// sends no Authorization header.
func NewKPIClient(baseURL, token string) *KPIClient {
	return &KPIClient{
		baseURL: baseURL,
		token:   token,
		client:  &http.Client{Timeout: 60 * time.Second},
	}
}

// TimeRange bounds a KPI query in epoch milliseconds.
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

// HistogramPoint is one bucket: X is the bucket start in epoch ms.
type HistogramPoint struct {
	X int64 `json:"x"`
	Y int64 `json:"y"`
}

// HostDetails is the KPI result of one host.
type HostDetails struct {
	AuthSuccess                   int64            `json:"authSuccess"`
	AuthSuccessHistogram          []HistogramPoint `json:"authSuccessHistogram"`
	AuthFailure                   int64            `json:"authFailure"`
	AuthFailureHistogram          []HistogramPoint `json:"authFailureHistogram"`
	UniqueSourceIPs               int64            `json:"uniqueSourceIps"`
	UniqueSourceIPsHistogram      []HistogramPoint `json:"uniqueSourceIpsHistogram"`
	UniqueDestinationIPs          int64            `json:"uniqueDestinationIps"`
	UniqueDestinationIPsHistogram []HistogramPoint `json:"uniqueDestinationIpsHistogram"`
	Interval                      string           `json:"interval,omitempty"`
	Inspect                       *struct {
		DSL []json.RawMessage `json:"dsl"`
	} `json:"inspect,omitempty"`
}

// Source is a named set of index patterns.
type Source struct {
	ID        string            `json:"id"`
	Name      string            `json:"name"`
	Indices   []string          `json:"indices"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}

// HostDetails runs a host KPI query.
func (c *KPIClient) HostDetails(ctx context.Context, req HostDetailsRequest) (*HostDetails, error) {
	var out HostDetails
	if err := c.do(ctx, http.MethodPost, "/api/v1/kpi/host-details", &jsonAPIRequestData{
		Type:       "kpi-host-details",
		Attributes: req,
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListSources returns every configured source.
func (c *KPIClient) ListSources(ctx context.Context) ([]Source, error) {
	var resources []jsonAPIResource
	if err := c.do(ctx, http.MethodGet, "/api/v1/sources", nil, &resources); err != nil {
		return nil, err
	}
	out := make([]Source, 0, len(resources))
	for _, r := range resources {
		var s Source
		if err := json.Unmarshal(r.Attributes, &s); err != nil {
			return nil, fmt.Errorf("decode source %s: %w", r.ID, err)
		}
		out = append(out, s)
	}
	return out, nil
}

// GetSource returns one source.
func (c *KPIClient) GetSource(ctx context.Context, id string) (*Source, error) {
	var s Source
	if err := c.do(ctx, http.MethodGet, "/api/v1/sources/"+url.PathEscape(id), nil, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

// SaveSource creates or replaces a source.
func (c *KPIClient) SaveSource(ctx context.Context, s Source) (*Source, error) {
	var out Source
	if err := c.do(ctx, http.MethodPost, "/api/v1/sources", &jsonAPIRequestData{
		Type: "sources",
		ID:   s.ID,
		Attributes: map[string]interface{}{
			"name":    s.Name,
			"indices": s.Indices,
			"fields":  s.Fields,
		},
	}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSource removes a source.
func (c *KPIClient) DeleteSource(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/v1/sources/"+url.PathEscape(id), nil, nil)
}

// do sends a JSON:API request. out receives data.attributes for single
// resources, or the raw resources when out is *[]jsonAPIResource.
func (c *KPIClient) do(ctx context.Context, method, path string, data *jsonAPIRequestData, out interface{}) error {
	var body io.Reader
	if data != nil {
		payload, err := json.Marshal(jsonAPIRequest{Data: *data})
		if err != nil {
			return err
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", contentTypeJSONAPI)
	if body != nil {
		req.Header.Set("Content-Type", contentTypeJSONAPI)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	var doc jsonAPIDocument
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		if resp.StatusCode >= http.StatusBadRequest {
			return &APIError{StatusCode: resp.StatusCode}
		}
		return fmt.Errorf("failed to decode response: %w", err)
	}
	if len(doc.Errors) > 0 {
		e := doc.Errors[0]
		return &APIError{StatusCode: resp.StatusCode, Code: e.Code, Detail: e.Detail}
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return &APIError{StatusCode: resp.StatusCode}
	}
	if out == nil {
		return nil
	}

	if list, ok := out.(*[]jsonAPIResource); ok {
		return json.Unmarshal(doc.Data, list)
	}
	var res jsonAPIResource
	if err := json.Unmarshal(doc.Data, &res); err != nil {
		return fmt.Errorf("unexpected response format: %w", err)
	}
	return json.Unmarshal(res.Attributes, out)
}
