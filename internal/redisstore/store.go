// Package redisstore provides the optional Redis-backed shared prompt
// cache. When enabled, prompt entries fetched by one process become
// visible to every process sharing the Redis instance, cutting backend
// fetches across a fleet.
// This package is internal and should not be imported by external projects.
package redisstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = fmt.Errorf("cache miss")

// IsCacheMiss reports whether err is a cache miss.
func IsCacheMiss(err error) bool {
	return err == ErrCacheMiss
}

// Config configures the Redis store.
type Config struct {
	Addr       string        `yaml:"addr" json:"addr"`
	Password   string        `yaml:"password" json:"password"`
	DB         int           `yaml:"db" json:"db"`
	KeyPrefix  string        `yaml:"key_prefix" json:"key_prefix"`
	DefaultTTL time.Duration `yaml:"default_ttl" json:"default_ttl"`
}

// DefaultConfig returns the default store configuration.
func DefaultConfig() Config {
	return Config{
		Addr:       "localhost:6379",
		KeyPrefix:  "luminar:prompt:",
		DefaultTTL: 5 * time.Minute,
	}
}

// Store is a thin JSON value store on Redis with per-key TTLs.
type Store struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// NewStore connects to Redis and verifies the connection.
func NewStore(config Config, logger *zap.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	logger = logger.With(zap.String("component", "redisstore"))
	logger.Info("shared prompt store connected", zap.String("addr", config.Addr))

	return &Store{
		redis:  client,
		config: config,
		logger: logger,
	}, nil
}

// GetJSON reads and unmarshals the value for key into dest. Returns
// ErrCacheMiss when the key is absent.
func (s *Store) GetJSON(ctx context.Context, key string, dest any) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("redis store is closed")
	}

	val, err := s.redis.Get(ctx, s.config.KeyPrefix+key).Result()
	if err == redis.Nil {
		return ErrCacheMiss
	}
	if err != nil {
		s.logger.Error("redis get failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return fmt.Errorf("failed to unmarshal cached value: %w", err)
	}
	return nil
}

// SetJSON marshals value and stores it under key with the given TTL.
// A zero TTL uses the configured default.
func (s *Store) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("redis store is closed")
	}

	if ttl == 0 {
		ttl = s.config.DefaultTTL
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	if err := s.redis.Set(ctx, s.config.KeyPrefix+key, data, ttl).Err(); err != nil {
		s.logger.Error("redis set failed", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// Delete removes keys from the store.
func (s *Store) Delete(ctx context.Context, keys ...string) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("redis store is closed")
	}
	if len(keys) == 0 {
		return nil
	}

	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = s.config.KeyPrefix + k
	}
	if err := s.redis.Del(ctx, prefixed...).Err(); err != nil {
		s.logger.Error("redis delete failed", zap.Strings("keys", keys), zap.Error(err))
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return fmt.Errorf("redis store is closed")
	}
	return s.redis.Ping(ctx).Err()
}

// Close closes the store. Safe to call more than once.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.logger.Info("closing shared prompt store")
	return s.redis.Close()
}
