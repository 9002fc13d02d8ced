// Package rescache implements a TTL-based read-through cache for remotely
// fetched, versioned resources. A fresh entry is served without network
// access; a stale entry is served immediately while a background refresh
// runs; a failed refresh keeps the stale value usable for a grace period.
// Concurrent resolves of the same missing or stale key share one in-flight
// fetch (singleflight), so caller concurrency never amplifies fetch load.
// This package is internal and should not be imported by external projects.
package rescache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/luminar-ai/luminar-go/internal/metrics"
	"github.com/luminar-ai/luminar-go/types"
)

// Fetcher loads a resource from the backend. Errors must be classified via
// types.Error: types.ErrResourceNotFound for a confirmed absence, a
// retryable code for transient unavailability.
type Fetcher[V any] interface {
	Fetch(ctx context.Context, key string) (V, error)
}

// FetcherFunc adapts a function to the Fetcher interface.
type FetcherFunc[V any] func(ctx context.Context, key string) (V, error)

// Fetch implements Fetcher.
func (f FetcherFunc[V]) Fetch(ctx context.Context, key string) (V, error) {
	return f(ctx, key)
}

// Store is an optional shared second-level cache consulted before the
// Fetcher and written through after a successful fetch. Store failures are
// never fatal; the cache degrades to fetcher-only operation.
type Store[V any] interface {
	Get(ctx context.Context, key string) (V, bool, error)
	Set(ctx context.Context, key string, value V, ttl time.Duration) error
}

// Config tunes one Cache.
type Config struct {
	// Name labels metrics for this cache instance.
	Name string
	// DefaultTTL is the freshness window applied when a resolve does not
	// override it.
	DefaultTTL time.Duration
	// StaleGrace extends a stale entry's window after a failed refresh so
	// repeated resolves do not re-trigger the refresh immediately.
	StaleGrace time.Duration
	// FetchTimeout bounds background refresh fetches.
	FetchTimeout time.Duration
}

// entry is an immutable cache record; refreshes replace the whole entry so
// readers never observe a half-written state.
type entry[V any] struct {
	value     V
	fetchedAt time.Time
	ttl       time.Duration
}

func (e *entry[V]) freshAt(now time.Time) bool {
	return now.Before(e.fetchedAt.Add(e.ttl))
}

// ResolveOptions customizes a single resolve call.
type ResolveOptions[V any] struct {
	// TTL overrides Config.DefaultTTL for the entry written by this call.
	TTL time.Duration
	// Fallback is returned when the fetch fails and no cached value
	// exists. Fallback values are never written to the cache.
	Fallback *V
}

// Cache is a process-wide map from resource key to cached value, safe for
// concurrent use. Entries are replaced atomically on refresh; there is no
// capacity eviction, staleness is time-based only.
type Cache[V any] struct {
	cfg     Config
	fetcher Fetcher[V]
	store   Store[V]
	logger  *zap.Logger
	metrics *metrics.Collector

	mu      sync.RWMutex
	entries map[string]*entry[V]
	group   singleflight.Group
}

// New creates a Cache. store, logger, and collector may be nil.
func New[V any](cfg Config, fetcher Fetcher[V], store Store[V], logger *zap.Logger, collector *metrics.Collector) *Cache[V] {
	if cfg.Name == "" {
		cfg.Name = "resources"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = 60 * time.Second
	}
	if cfg.StaleGrace < 0 {
		cfg.StaleGrace = 0
	}
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cache[V]{
		cfg:     cfg,
		fetcher: fetcher,
		store:   store,
		logger:  logger.With(zap.String("component", "rescache"), zap.String("cache", cfg.Name)),
		metrics: collector,
		entries: make(map[string]*entry[V]),
	}
}

// Resolve returns the value for key. Fresh hit: returned immediately with
// no network access. Stale hit: the stale value is returned immediately
// and a coalesced refresh runs in the background. Miss: a blocking,
// coalesced fetch populates the cache.
func (c *Cache[V]) Resolve(ctx context.Context, key string, opts ResolveOptions[V]) (V, error) {
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}

	c.mu.RLock()
	e := c.entries[key]
	c.mu.RUnlock()

	if e != nil {
		if e.freshAt(time.Now()) {
			c.metrics.RecordCacheHit(c.cfg.Name, "fresh")
			return e.value, nil
		}
		c.metrics.RecordCacheHit(c.cfg.Name, "stale")
		go c.refresh(key, ttl)
		return e.value, nil
	}

	c.metrics.RecordCacheMiss(c.cfg.Name)

	v, err, _ := c.group.Do(key, func() (any, error) {
		// A coalesced caller may arrive after the flight that filled the
		// entry completed; serve the entry instead of fetching again.
		c.mu.RLock()
		cur := c.entries[key]
		c.mu.RUnlock()
		if cur != nil && cur.freshAt(time.Now()) {
			return cur.value, nil
		}
		return c.fetchAndStore(ctx, key, ttl)
	})
	if err != nil {
		if opts.Fallback != nil {
			c.logger.Warn("fetch failed, returning caller fallback",
				zap.String("key", key), zap.Error(err))
			return *opts.Fallback, nil
		}
		var zero V
		return zero, classifyFetchError(key, err)
	}
	return v.(V), nil
}

// Invalidate removes the entry for key; the next Resolve performs a
// blocking fetch.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
	c.group.Forget(key)
}

// Size returns the number of cached entries.
func (c *Cache[V]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// fetchAndStore consults the shared store, falls back to the fetcher, and
// writes the result to both cache levels.
func (c *Cache[V]) fetchAndStore(ctx context.Context, key string, ttl time.Duration) (any, error) {
	if c.store != nil {
		v, ok, err := c.store.Get(ctx, key)
		if err != nil {
			c.logger.Debug("shared cache read failed", zap.String("key", key), zap.Error(err))
		} else if ok {
			c.put(key, v, ttl)
			return v, nil
		}
	}

	v, err := c.fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	c.put(key, v, ttl)

	if c.store != nil {
		if err := c.store.Set(ctx, key, v, ttl); err != nil {
			c.logger.Debug("shared cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return v, nil
}

// refresh re-fetches a stale key in the background. Concurrent stale
// resolves join the same flight. On failure the stale entry is retained
// and its window extended by StaleGrace.
func (c *Cache[V]) refresh(key string, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.FetchTimeout)
	defer cancel()

	_, err, _ := c.group.Do(key, func() (any, error) {
		c.mu.RLock()
		cur := c.entries[key]
		c.mu.RUnlock()
		if cur != nil && cur.freshAt(time.Now()) {
			return cur.value, nil
		}
		return c.fetchAndStore(ctx, key, ttl)
	})
	if err != nil {
		c.mu.Lock()
		if cur, ok := c.entries[key]; ok {
			c.entries[key] = &entry[V]{value: cur.value, fetchedAt: time.Now(), ttl: c.cfg.StaleGrace}
		}
		c.mu.Unlock()
		c.logger.Warn("refresh failed, serving stale value for grace period",
			zap.String("key", key),
			zap.Duration("grace", c.cfg.StaleGrace),
			zap.Error(err),
		)
	}
}

func (c *Cache[V]) put(key string, v V, ttl time.Duration) {
	c.mu.Lock()
	c.entries[key] = &entry[V]{value: v, fetchedAt: time.Now(), ttl: ttl}
	c.mu.Unlock()
}

// classifyFetchError maps unclassified transient errors to
// types.ErrFetchUnavailable; NotFound and other classified errors pass
// through unchanged.
func classifyFetchError(key string, err error) error {
	if types.IsCode(err, types.ErrResourceNotFound) {
		return err
	}
	if types.IsRetryable(err) && !types.IsCode(err, types.ErrFetchUnavailable) {
		return types.WrapError(types.ErrFetchUnavailable, "resource "+key+" temporarily unavailable", err)
	}
	return err
}
