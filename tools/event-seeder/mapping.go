package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

func keyword() map[string]interface{} { return map[string]interface{}{"type": "keyword"} }

func object(props map[string]interface{}) map[string]interface{} {
	return map[string]interface{}{"properties": props}
}

// ecsMapping types the fields the KPI queries filter and aggregate on.
// Dynamic mapping would make host.name and the addresses text fields.
func ecsMapping() map[string]interface{} {
	return map[string]interface{}{
		"mappings": map[string]interface{}{
			"properties": map[string]interface{}{
				"@timestamp": map[string]interface{}{"type": "date"},
				"host":       object(map[string]interface{}{"name": keyword()}),
				"event": object(map[string]interface{}{
					"kind":     keyword(),
					"category": keyword(),
					"action":   keyword(),
					"outcome":  keyword(),
				}),
				"source": object(map[string]interface{}{
					"ip":   map[string]interface{}{"type": "ip"},
					"port": map[string]interface{}{"type": "integer"},
				}),
				"destination": object(map[string]interface{}{
					"ip":   map[string]interface{}{"type": "ip"},
					"port": map[string]interface{}{"type": "integer"},
				}),
				"network": object(map[string]interface{}{"transport": keyword()}),
				"user":    object(map[string]interface{}{"name": keyword()}),
			},
		},
	}
}

// EnsureIndex creates index with the ECS mapping. An index that already
// exists is left untouched and reported with created false.
func EnsureIndex(ctx context.Context, client *opensearch.Client, index string) (bool, error) {
	body, err := json.Marshal(ecsMapping())
	if err != nil {
		return false, fmt.Errorf("failed to serialize mapping: %w", err)
	}

	req := opensearchapi.IndicesCreateRequest{
		Index: index,
		Body:  bytes.NewReader(body),
	}
	res, err := req.Do(ctx, client)
	if err != nil {
		return false, fmt.Errorf("failed to create index: %w", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		msg, _ := io.ReadAll(res.Body)
		if res.StatusCode == http.StatusBadRequest && strings.Contains(string(msg), "resource_already_exists_exception") {
			return false, nil
		}
		return false, fmt.Errorf("create index failed with status %s: %s", res.Status(), string(msg))
	}
	return true, nil
}
