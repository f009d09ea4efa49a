package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8084, cfg.Server.Port)
	assert.Equal(t, BackendOpenSearch, cfg.Store.Backend)
	assert.Equal(t, 1000, cfg.Store.MaxBuckets)
	assert.Equal(t, 6, cfg.Store.AutoBuckets)
	assert.Equal(t, 3000, cfg.Store.PrecisionThreshold)
	assert.Equal(t, 5, cfg.Store.Breaker.FailureThreshold)
	assert.False(t, cfg.NATS.Enabled)
	assert.False(t, cfg.Redis.Enabled)
	assert.Empty(t, cfg.Auth.JWTSecret)
	assert.Equal(t, int64(60), int64(cfg.Redis.Window().Seconds()))
}

func TestLoad_FileAndEnv(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9000
  cors_origins: ["https://soc.example.com"]
store:
  backend: elasticsearch
  url: http://es:9200
  max_buckets: 500
logging:
  level: debug
`)
	t.Setenv("KPI_STORE_MAX_BUCKETS", "200")
	t.Setenv("KPI_AUTH_JWT_SECRET", "from-env")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, []string{"https://soc.example.com"}, cfg.Server.CORSOrigins)
	assert.Equal(t, BackendElasticsearch, cfg.Store.Backend)
	assert.Equal(t, "http://es:9200", cfg.Store.URL)
	assert.Equal(t, 200, cfg.Store.MaxBuckets)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	valid := func() Config {
		return Config{Store: StoreConfig{Backend: BackendMemory, MaxBuckets: 1000, AutoBuckets: 6}}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "memory backend", mutate: func(*Config) {}},
		{name: "unknown backend", mutate: func(c *Config) { c.Store.Backend = "solr" }, wantErr: "unknown store.backend"},
		{name: "opensearch without url", mutate: func(c *Config) { c.Store.Backend = BackendOpenSearch }, wantErr: "store.url is required"},
		{name: "zero max buckets", mutate: func(c *Config) { c.Store.MaxBuckets = 0 }, wantErr: "max_buckets"},
		{name: "auto above max", mutate: func(c *Config) { c.Store.AutoBuckets = 2000 }, wantErr: "auto_buckets"},
		{name: "redis without window", mutate: func(c *Config) { c.Redis.Enabled = true }, wantErr: "redis"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
