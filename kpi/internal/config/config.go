package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Store backends.
const (
	BackendOpenSearch    = "opensearch"
	BackendElasticsearch = "elasticsearch"
	BackendMemory        = "memory"
)

// Config contains runtime configuration for the KPI service.
type Config struct {
	Server      ServerConfig  `yaml:"server" mapstructure:"server"`
	Store       StoreConfig   `yaml:"store" mapstructure:"store"`
	Logging     LoggingConfig `yaml:"logging" mapstructure:"logging"`
	NATS        NATSConfig    `yaml:"nats" mapstructure:"nats"`
	Redis       RedisConfig   `yaml:"redis" mapstructure:"redis"`
	Auth        AuthConfig    `yaml:"auth" mapstructure:"auth"`
	DatabaseURL string        `yaml:"database_url" mapstructure:"database_url"`
}

// ServerConfig captures HTTP server settings.
type ServerConfig struct {
	Port                int      `yaml:"port" mapstructure:"port"`
	ReadTimeoutSeconds  int      `yaml:"read_timeout_seconds" mapstructure:"read_timeout_seconds"`
	WriteTimeoutSeconds int      `yaml:"write_timeout_seconds" mapstructure:"write_timeout_seconds"`
	IdleTimeoutSeconds  int      `yaml:"idle_timeout_seconds" mapstructure:"idle_timeout_seconds"`
	CORSOrigins         []string `yaml:"cors_origins" mapstructure:"cors_origins"`
}

// StoreConfig selects and tunes the event store.
type StoreConfig struct {
	Backend            string        `yaml:"backend" mapstructure:"backend"` // opensearch, elasticsearch or memory
	URL                string        `yaml:"url" mapstructure:"url"`
	Username           string        `yaml:"username" mapstructure:"username"`
	Password           string        `yaml:"password" mapstructure:"password"`
	Insecure           bool          `yaml:"insecure" mapstructure:"insecure"`
	PrecisionThreshold int           `yaml:"precision_threshold" mapstructure:"precision_threshold"`
	MaxBuckets         int           `yaml:"max_buckets" mapstructure:"max_buckets"`
	AutoBuckets        int           `yaml:"auto_buckets" mapstructure:"auto_buckets"`
	Breaker            BreakerConfig `yaml:"breaker" mapstructure:"breaker"`
}

// BreakerConfig tunes the circuit breaker around store queries.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	TimeoutSeconds   int `yaml:"timeout_seconds" mapstructure:"timeout_seconds"`
	IntervalSeconds  int `yaml:"interval_seconds" mapstructure:"interval_seconds"`
}

// LoggingConfig captures logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`   // debug, info, warn, error
	Format string `yaml:"format" mapstructure:"format"` // json or text
}

// NATSConfig captures NATS message broker connection settings.
type NATSConfig struct {
	URL           string `yaml:"url" mapstructure:"url"`
	Enabled       bool   `yaml:"enabled" mapstructure:"enabled"`
	MaxReconnects int    `yaml:"max_reconnects" mapstructure:"max_reconnects"`
	ReconnectWait int    `yaml:"reconnect_wait_seconds" mapstructure:"reconnect_wait_seconds"`
	JobTimeout    int    `yaml:"job_timeout_seconds" mapstructure:"job_timeout_seconds"`
}

// RedisConfig captures the rate limiter's Redis settings.
type RedisConfig struct {
	URL               string `yaml:"url" mapstructure:"url"`
	Enabled           bool   `yaml:"enabled" mapstructure:"enabled"`
	RequestsPerWindow int    `yaml:"requests_per_window" mapstructure:"requests_per_window"`
	WindowSeconds     int    `yaml:"window_seconds" mapstructure:"window_seconds"`
}

// AuthConfig enables bearer-token authentication when JWTSecret is set.
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
}

// ReadTimeout returns the configured read timeout as a duration.
func (s ServerConfig) ReadTimeout() time.Duration {
	return time.Duration(s.ReadTimeoutSeconds) * time.Second
}

// WriteTimeout returns the configured write timeout as a duration.
func (s ServerConfig) WriteTimeout() time.Duration {
	return time.Duration(s.WriteTimeoutSeconds) * time.Second
}

// IdleTimeout returns the configured idle timeout as a duration.
func (s ServerConfig) IdleTimeout() time.Duration {
	return time.Duration(s.IdleTimeoutSeconds) * time.Second
}

// ReconnectWaitDuration returns the reconnect wait as a time.Duration.
func (n NATSConfig) ReconnectWaitDuration() time.Duration {
	return time.Duration(n.ReconnectWait) * time.Second
}

// JobTimeoutDuration bounds the handling of one NATS job.
func (n NATSConfig) JobTimeoutDuration() time.Duration {
	return time.Duration(n.JobTimeout) * time.Second
}

// Window returns the rate limit window.
func (r RedisConfig) Window() time.Duration {
	return time.Duration(r.WindowSeconds) * time.Second
}

// Load reads configuration from the provided path and environment variables.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8084)
	v.SetDefault("server.read_timeout_seconds", 15)
	v.SetDefault("server.write_timeout_seconds", 60)
	v.SetDefault("server.idle_timeout_seconds", 60)
	v.SetDefault("server.cors_origins", []string{})

	v.SetDefault("store.backend", BackendOpenSearch)
	v.SetDefault("store.url", "https://localhost:9200")
	v.SetDefault("store.username", "admin")
	v.SetDefault("store.password", "admin")
	v.SetDefault("store.insecure", true)
	v.SetDefault("store.precision_threshold", 3000)
	v.SetDefault("store.max_buckets", 1000)
	v.SetDefault("store.auto_buckets", 6)
	v.SetDefault("store.breaker.failure_threshold", 5)
	v.SetDefault("store.breaker.timeout_seconds", 30)
	v.SetDefault("store.breaker.interval_seconds", 60)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("nats.url", "nats://nats:4222")
	v.SetDefault("nats.enabled", false)
	v.SetDefault("nats.max_reconnects", -1) // Infinite reconnects
	v.SetDefault("nats.reconnect_wait_seconds", 2)
	v.SetDefault("nats.job_timeout_seconds", 30)

	v.SetDefault("redis.url", "redis://redis:6379/0")
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.requests_per_window", 600)
	v.SetDefault("redis.window_seconds", 60)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("database_url", "")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/telhawk/kpi")
	}

	// Environment variables override
	v.SetEnvPrefix("KPI")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the service cannot start with.
func (c *Config) Validate() error {
	switch c.Store.Backend {
	case BackendOpenSearch, BackendElasticsearch:
		if c.Store.URL == "" {
			return fmt.Errorf("store.url is required for backend %q", c.Store.Backend)
		}
	case BackendMemory:
	default:
		return fmt.Errorf("unknown store.backend %q", c.Store.Backend)
	}
	if c.Store.MaxBuckets < 1 {
		return errors.New("store.max_buckets must be positive")
	}
	if c.Store.AutoBuckets < 1 || c.Store.AutoBuckets > c.Store.MaxBuckets {
		return errors.New("store.auto_buckets must be between 1 and store.max_buckets")
	}
	if c.Redis.Enabled && (c.Redis.RequestsPerWindow < 1 || c.Redis.WindowSeconds < 1) {
		return errors.New("redis.requests_per_window and redis.window_seconds must be positive")
	}
	return nil
}
