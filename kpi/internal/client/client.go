// Package client connects to the configured event store backend.
package client

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/opensearch-project/opensearch-go/v2"

	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/config"
	"github.com/telhawk-systems/telhawk-kpi/kpi/internal/store"
)

func transport(cfg config.StoreConfig) http.RoundTripper {
	return &http.Transport{
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Insecure,
		},
		MaxIdleConnsPerHost: 32,
	}
}

// NewOpenSearch creates an OpenSearch client and checks that the cluster answers.
func NewOpenSearch(ctx context.Context, cfg config.StoreConfig) (*opensearch.Client, error) {
	client, err := opensearch.NewClient(opensearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create opensearch client: %w", err)
	}

	info, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping opensearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("opensearch returned error: %s", info.Status())
	}
	return client, nil
}

// NewElasticsearch creates an Elasticsearch client and checks that the cluster answers.
func NewElasticsearch(ctx context.Context, cfg config.StoreConfig) (*elasticsearch.Client, error) {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{cfg.URL},
		Username:  cfg.Username,
		Password:  cfg.Password,
		Transport: transport(cfg),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create elasticsearch client: %w", err)
	}

	info, err := client.Info(client.Info.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to ping elasticsearch: %w", err)
	}
	defer info.Body.Close()

	if info.IsError() {
		return nil, fmt.Errorf("elasticsearch returned error: %s", info.Status())
	}
	return client, nil
}

// StoreOptions maps the store configuration onto search store options.
func StoreOptions(cfg config.StoreConfig, logger *slog.Logger) store.Options {
	breaker := store.DefaultBreakerSettings()
	if cfg.Breaker.FailureThreshold > 0 {
		breaker.FailureThreshold = uint32(cfg.Breaker.FailureThreshold)
	}
	if cfg.Breaker.TimeoutSeconds > 0 {
		breaker.Timeout = time.Duration(cfg.Breaker.TimeoutSeconds) * time.Second
	}
	if cfg.Breaker.IntervalSeconds > 0 {
		breaker.Interval = time.Duration(cfg.Breaker.IntervalSeconds) * time.Second
	}
	return store.Options{
		PrecisionThreshold: cfg.PrecisionThreshold,
		Breaker:            breaker,
		Logger:             logger,
	}
}

// NewStore connects the configured backend. The memory backend starts empty.
func NewStore(ctx context.Context, cfg config.StoreConfig, logger *slog.Logger) (store.EventStore, error) {
	switch cfg.Backend {
	case config.BackendOpenSearch:
		c, err := NewOpenSearch(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewOpenSearch(c, StoreOptions(cfg, logger)), nil
	case config.BackendElasticsearch:
		c, err := NewElasticsearch(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return store.NewElasticsearch(c, StoreOptions(cfg, logger)), nil
	case config.BackendMemory:
		return store.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}
}
