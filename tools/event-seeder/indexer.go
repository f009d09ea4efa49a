package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchutil"
)

// IndexResult summarizes one bulk run.
type IndexResult struct {
	Indexed int64
	Failed  int64
	Errors  []string
}

// Index bulk-writes docs into index.
func Index(ctx context.Context, client *opensearch.Client, index string, docs []map[string]interface{}) (*IndexResult, error) {
	res := &IndexResult{}
	var mu sync.Mutex
	var indexed, failed int64

	bi, err := opensearchutil.NewBulkIndexer(opensearchutil.BulkIndexerConfig{
		Client:     client,
		Index:      index,
		NumWorkers: 2,
		FlushBytes: 1 << 20,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create bulk indexer: %w", err)
	}

	for _, doc := range docs {
		data, err := json.Marshal(doc)
		if err != nil {
			atomic.AddInt64(&failed, 1)
			continue
		}
		err = bi.Add(ctx, opensearchutil.BulkIndexerItem{
			Action: "index",
			Body:   bytes.NewReader(data),
			OnSuccess: func(ctx context.Context, item opensearchutil.BulkIndexerItem, resp opensearchutil.BulkIndexerResponseItem) {
				atomic.AddInt64(&indexed, 1)
			},
			OnFailure: func(ctx context.Context, item opensearchutil.BulkIndexerItem, resp opensearchutil.BulkIndexerResponseItem, err error) {
				atomic.AddInt64(&failed, 1)
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					res.Errors = append(res.Errors, err.Error())
				} else {
					res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", resp.Error.Type, resp.Error.Reason))
				}
			},
		})
		if err != nil {
			atomic.AddInt64(&failed, 1)
		}
	}

	if err := bi.Close(ctx); err != nil {
		return nil, fmt.Errorf("bulk indexer close: %w", err)
	}
	res.Indexed = atomic.LoadInt64(&indexed)
	res.Failed = atomic.LoadInt64(&failed)
	return res, nil
}
