package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, 50, cfg.Queue.MaxBatchSize)
	assert.Equal(t, 5*time.Second, cfg.Queue.FlushInterval)
	assert.Equal(t, 60*time.Second, cfg.Cache.DefaultTTL)
	assert.False(t, cfg.Redis.Enabled)
}

func TestLoader_YAMLOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "luminar.yaml")
	content := `
api:
  host: https://observability.example.com
  public_key: pk-test
  secret_key: sk-test
queue:
  max_batch_size: 10
  flush_interval: 2s
cache:
  default_ttl: 30s
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := NewLoader().WithConfigPath(path).Load()
	require.NoError(t, err)

	assert.Equal(t, "https://observability.example.com", cfg.API.Host)
	assert.Equal(t, 10, cfg.Queue.MaxBatchSize)
	assert.Equal(t, 2*time.Second, cfg.Queue.FlushInterval)
	assert.Equal(t, 30*time.Second, cfg.Cache.DefaultTTL)
	// Untouched fields keep defaults.
	assert.Equal(t, 3, cfg.Queue.MaxRetries)
}

func TestLoader_EnvOverridesYAML(t *testing.T) {
	t.Setenv("LUMINAR_API_SECRET_KEY", "sk-from-env")
	t.Setenv("LUMINAR_QUEUE_MAX_BATCH_SIZE", "7")
	t.Setenv("LUMINAR_QUEUE_FLUSH_INTERVAL", "250ms")
	t.Setenv("LUMINAR_REDIS_ENABLED", "true")
	t.Setenv("LUMINAR_REDIS_ADDR", "redis.internal:6379")

	cfg, err := NewLoader().Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-from-env", cfg.API.SecretKey)
	assert.Equal(t, 7, cfg.Queue.MaxBatchSize)
	assert.Equal(t, 250*time.Millisecond, cfg.Queue.FlushInterval)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
}

func TestLoader_InvalidEnvValue(t *testing.T) {
	t.Setenv("LUMINAR_QUEUE_MAX_BATCH_SIZE", "not-a-number")

	_, err := NewLoader().Load()
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "LUMINAR_QUEUE_MAX_BATCH_SIZE")
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing host", func(c *Config) { c.API.Host = "" }},
		{"zero batch size", func(c *Config) { c.Queue.MaxBatchSize = 0 }},
		{"negative retries", func(c *Config) { c.Queue.MaxRetries = -1 }},
		{"multiplier below one", func(c *Config) { c.Queue.BackoffMultiplier = 0.5 }},
		{"zero ttl", func(c *Config) { c.Cache.DefaultTTL = 0 }},
		{"redis enabled without addr", func(c *Config) { c.Redis.Enabled = true; c.Redis.Addr = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}
