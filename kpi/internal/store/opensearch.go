package store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/opensearch-project/opensearch-go/v2"
	"github.com/opensearch-project/opensearch-go/v2/opensearchapi"
)

type opensearchBackend struct {
	client *opensearch.Client
}

// NewOpenSearch returns a SearchStore backed by an OpenSearch cluster.
func NewOpenSearch(client *opensearch.Client, opts Options) *SearchStore {
	return newSearchStore(&opensearchBackend{client: client}, opts)
}

func (b *opensearchBackend) search(ctx context.Context, indices []string, body []byte) (*rawResponse, error) {
	c := b.client
	res, err := c.Search(
		c.Search.WithContext(ctx),
		c.Search.WithIndex(indices...),
		c.Search.WithBody(bytes.NewReader(body)),
		c.Search.WithIgnoreUnavailable(true),
		c.Search.WithAllowNoIndices(true),
	)
	return readOpenSearch(res, err)
}

func (b *opensearchBackend) catIndices(ctx context.Context, pattern string) (*rawResponse, error) {
	c := b.client
	res, err := c.Cat.Indices(
		c.Cat.Indices.WithContext(ctx),
		c.Cat.Indices.WithIndex(pattern),
		c.Cat.Indices.WithFormat("json"),
		c.Cat.Indices.WithH("index"),
	)
	return readOpenSearch(res, err)
}

func (b *opensearchBackend) info(ctx context.Context) (*rawResponse, error) {
	c := b.client
	res, err := c.Info(c.Info.WithContext(ctx))
	return readOpenSearch(res, err)
}

func readOpenSearch(res *opensearchapi.Response, err error) (*rawResponse, error) {
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
