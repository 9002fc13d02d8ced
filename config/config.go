// Package config holds the SDK configuration: API endpoint and
// credentials, dispatch queue tuning, prompt cache TTLs, and the optional
// shared Redis cache.
//
// Precedence: defaults → YAML file → environment variables.
package config

import (
	"time"
)

// Config is the complete SDK configuration.
type Config struct {
	// API backend endpoint and credentials
	API APIConfig `yaml:"api"`

	// Queue dispatch queue tuning
	Queue QueueConfig `yaml:"queue"`

	// Cache prompt cache tuning
	Cache CacheConfig `yaml:"cache"`

	// Redis optional shared prompt cache
	Redis RedisConfig `yaml:"redis"`

	// Log logging configuration
	Log LogConfig `yaml:"log"`
}

// APIConfig configures the REST transport.
type APIConfig struct {
	// Backend base URL
	Host string `yaml:"host" env:"HOST"`
	// Project public key
	PublicKey string `yaml:"public_key" env:"PUBLIC_KEY"`
	// Project secret key
	SecretKey string `yaml:"secret_key" env:"SECRET_KEY"`
	// Per-call timeout
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Client-side ingestion rate limit, requests per second (0 disables)
	RateLimitRPS float64 `yaml:"rate_limit_rps" env:"RATE_LIMIT_RPS"`
	// Rate limit burst
	RateLimitBurst int `yaml:"rate_limit_burst" env:"RATE_LIMIT_BURST"`
}

// QueueConfig configures the batching dispatch queues.
type QueueConfig struct {
	// Flush when this many events are buffered
	MaxBatchSize int `yaml:"max_batch_size" env:"MAX_BATCH_SIZE"`
	// Periodic flush interval
	FlushInterval time.Duration `yaml:"flush_interval" env:"FLUSH_INTERVAL"`
	// Retry attempts per batch beyond the first
	MaxRetries int `yaml:"max_retries" env:"MAX_RETRIES"`
	// First retry delay
	BackoffInitial time.Duration `yaml:"backoff_initial" env:"BACKOFF_INITIAL"`
	// Retry delay ceiling
	BackoffMax time.Duration `yaml:"backoff_max" env:"BACKOFF_MAX"`
	// Exponential backoff factor
	BackoffMultiplier float64 `yaml:"backoff_multiplier" env:"BACKOFF_MULTIPLIER"`
	// Upper bound on Shutdown, including in-flight retries
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"SHUTDOWN_TIMEOUT"`
}

// CacheConfig configures the prompt resource cache.
type CacheConfig struct {
	// Entry freshness window
	DefaultTTL time.Duration `yaml:"default_ttl" env:"DEFAULT_TTL"`
	// Window extension after a failed refresh, to damp refresh storms
	StaleGrace time.Duration `yaml:"stale_grace" env:"STALE_GRACE"`
}

// RedisConfig configures the optional shared prompt cache layer.
type RedisConfig struct {
	Enabled   bool   `yaml:"enabled" env:"ENABLED"`
	Addr      string `yaml:"addr" env:"ADDR"`
	Password  string `yaml:"password" env:"PASSWORD"`
	DB        int    `yaml:"db" env:"DB"`
	KeyPrefix string `yaml:"key_prefix" env:"KEY_PREFIX"`
}

// LogConfig configures SDK logging.
type LogConfig struct {
	// debug, info, warn, error
	Level string `yaml:"level" env:"LEVEL"`
	// json or console
	Format string `yaml:"format" env:"FORMAT"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API:   DefaultAPIConfig(),
		Queue: DefaultQueueConfig(),
		Cache: DefaultCacheConfig(),
		Redis: DefaultRedisConfig(),
		Log:   DefaultLogConfig(),
	}
}

// DefaultAPIConfig returns the default transport configuration.
func DefaultAPIConfig() APIConfig {
	return APIConfig{
		Host:           "https://api.luminar.dev",
		Timeout:        10 * time.Second,
		RateLimitRPS:   0,
		RateLimitBurst: 10,
	}
}

// DefaultQueueConfig returns the default queue tuning.
func DefaultQueueConfig() QueueConfig {
	return QueueConfig{
		MaxBatchSize:      50,
		FlushInterval:     5 * time.Second,
		MaxRetries:        3,
		BackoffInitial:    500 * time.Millisecond,
		BackoffMax:        10 * time.Second,
		BackoffMultiplier: 2.0,
		ShutdownTimeout:   30 * time.Second,
	}
}

// DefaultCacheConfig returns the default prompt cache tuning.
func DefaultCacheConfig() CacheConfig {
	return CacheConfig{
		DefaultTTL: 60 * time.Second,
		StaleGrace: 10 * time.Second,
	}
}

// DefaultRedisConfig returns the default (disabled) Redis configuration.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Enabled:   false,
		Addr:      "localhost:6379",
		KeyPrefix: "luminar:prompt:",
	}
}

// DefaultLogConfig returns the default logging configuration.
func DefaultLogConfig() LogConfig {
	return LogConfig{
		Level:  "info",
		Format: "json",
	}
}

// Validate checks configuration consistency. It is called by the loader
// and by luminar.New before wiring components.
func (c *Config) Validate() error {
	if c.API.Host == "" {
		return errMissing("api.host")
	}
	if c.Queue.MaxBatchSize <= 0 {
		return errInvalid("queue.max_batch_size", "must be positive")
	}
	if c.Queue.MaxRetries < 0 {
		return errInvalid("queue.max_retries", "must not be negative")
	}
	if c.Queue.BackoffMultiplier < 1.0 {
		return errInvalid("queue.backoff_multiplier", "must be >= 1.0")
	}
	if c.Cache.DefaultTTL <= 0 {
		return errInvalid("cache.default_ttl", "must be positive")
	}
	if c.Cache.StaleGrace < 0 {
		return errInvalid("cache.stale_grace", "must not be negative")
	}
	if c.Redis.Enabled && c.Redis.Addr == "" {
		return errMissing("redis.addr")
	}
	return nil
}
