package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

type elasticsearchBackend struct {
	client *elasticsearch.Client
}

// NewElasticsearch returns a SearchStore backed by an Elasticsearch cluster.
// The DSL is shared with the OpenSearch backend.
func NewElasticsearch(client *elasticsearch.Client, opts Options) *SearchStore {
	return newSearchStore(&elasticsearchBackend{client: client}, opts)
}

func (b *elasticsearchBackend) search(ctx context.Context, indices []string, body []byte) (*rawResponse, error) {
	ignore, allow := true, true
	req := esapi.SearchRequest{
		Index:             indices,
		Body:              bytes.NewReader(body),
		IgnoreUnavailable: &ignore,
		AllowNoIndices:    &allow,
	}
	res, err := req.Do(ctx, b.client)
	return readElasticsearch(res, err)
}

func (b *elasticsearchBackend) catIndices(ctx context.Context, pattern string) (*rawResponse, error) {
	req := esapi.CatIndicesRequest{
		Index:  []string{pattern},
		Format: "json",
		H:      []string{"index"},
	}
	res, err := req.Do(ctx, b.client)
	return readElasticsearch(res, err)
}

func (b *elasticsearchBackend) info(ctx context.Context) (*rawResponse, error) {
	c := b.client
	res, err := c.Info(c.Info.WithContext(ctx))
	return readElasticsearch(res, err)
}

func readElasticsearch(res *esapi.Response, err error) (*rawResponse, error) {
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return &rawResponse{StatusCode: res.StatusCode, Body: body}, nil
}
