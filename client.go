package luminar

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/api"
	"github.com/luminar-ai/luminar-go/config"
	"github.com/luminar-ai/luminar-go/internal/dispatch"
	"github.com/luminar-ai/luminar-go/internal/metrics"
	"github.com/luminar-ai/luminar-go/internal/redisstore"
	"github.com/luminar-ai/luminar-go/internal/rescache"
	"github.com/luminar-ai/luminar-go/types"
)

// Client is the SDK entry point. All managers share one transport, one
// metrics registry, and one logger; the client is safe for concurrent use.
//
// Scores and trace/observation events travel on separate dispatch queues
// so a backlog of observation traffic never delays score delivery.
type Client struct {
	cfg      *config.Config
	logger   *zap.Logger
	registry *prometheus.Registry

	api        *api.Client
	scoreQueue *dispatch.Queue
	eventQueue *dispatch.Queue
	redis      *redisstore.Store

	scores   *ScoreManager
	traces   *TraceManager
	prompts  *PromptManager
	datasets *DatasetManager
}

func newClient(cfg *config.Config, o *options) (*Client, error) {
	logger := o.logger
	if logger == nil {
		l, err := newLogger(cfg.Log)
		if err != nil {
			return nil, fmt.Errorf("build logger: %w", err)
		}
		logger = l
	}

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("luminar", registry, logger)

	apiClient := api.NewClient(api.Config{
		Host:           cfg.API.Host,
		PublicKey:      cfg.API.PublicKey,
		SecretKey:      cfg.API.SecretKey,
		Timeout:        cfg.API.Timeout,
		RateLimitRPS:   cfg.API.RateLimitRPS,
		RateLimitBurst: cfg.API.RateLimitBurst,
	}, o.httpClient, logger, collector)

	queueCfg := dispatch.Config{
		MaxBatchSize:      cfg.Queue.MaxBatchSize,
		FlushInterval:     cfg.Queue.FlushInterval,
		MaxRetries:        cfg.Queue.MaxRetries,
		BackoffInitial:    cfg.Queue.BackoffInitial,
		BackoffMax:        cfg.Queue.BackoffMax,
		BackoffMultiplier: cfg.Queue.BackoffMultiplier,
		ShutdownTimeout:   cfg.Queue.ShutdownTimeout,
	}

	c := &Client{
		cfg:        cfg,
		logger:     logger,
		registry:   registry,
		api:        apiClient,
		scoreQueue: dispatch.New("scores", queueCfg, apiClient, logger, collector),
		eventQueue: dispatch.New("observations", queueCfg, apiClient, logger, collector),
	}

	var promptStore rescache.Store[*types.Prompt]
	if cfg.Redis.Enabled {
		store, err := redisstore.NewStore(redisstore.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			KeyPrefix:  cfg.Redis.KeyPrefix,
			DefaultTTL: cfg.Cache.DefaultTTL,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("connect shared prompt store: %w", err)
		}
		c.redis = store
		promptStore = &sharedPromptStore{store: store}
	}

	promptCache := rescache.New[*types.Prompt](rescache.Config{
		Name:         "prompts",
		DefaultTTL:   cfg.Cache.DefaultTTL,
		StaleGrace:   cfg.Cache.StaleGrace,
		FetchTimeout: cfg.API.Timeout,
	}, rescache.FetcherFunc[*types.Prompt](func(ctx context.Context, key string) (*types.Prompt, error) {
		name, query := parsePromptKey(key)
		return apiClient.FetchPrompt(ctx, name, query)
	}), promptStore, logger, collector)

	c.scores = &ScoreManager{queue: c.scoreQueue, logger: logger}
	c.traces = &TraceManager{queue: c.eventQueue, logger: logger}
	c.prompts = &PromptManager{cache: promptCache, redis: c.redis, logger: logger}
	c.datasets = &DatasetManager{api: apiClient, logger: logger}

	logger.Info("client initialized",
		zap.String("host", cfg.API.Host),
		zap.Bool("shared_cache", cfg.Redis.Enabled),
	)
	return c, nil
}

// Scores returns the score manager.
func (c *Client) Scores() *ScoreManager { return c.scores }

// Traces returns the trace and observation manager.
func (c *Client) Traces() *TraceManager { return c.traces }

// Prompts returns the prompt manager.
func (c *Client) Prompts() *PromptManager { return c.prompts }

// Datasets returns the dataset manager.
func (c *Client) Datasets() *DatasetManager { return c.datasets }

// MetricsRegistry exposes the client's Prometheus registry so the host
// application can mount it on its own /metrics handler.
func (c *Client) MetricsRegistry() *prometheus.Registry { return c.registry }

// Flush delivers everything buffered on all queues and waits for
// completion, including retries. Batches that exhaust their retry budget
// are reported, not requeued.
func (c *Client) Flush(ctx context.Context) error {
	return errors.Join(
		c.scoreQueue.Flush(ctx),
		c.eventQueue.Flush(ctx),
	)
}

// Shutdown closes all queues to new events, attempts final delivery, and
// releases resources. It is idempotent; concurrent calls observe the same
// outcome. Events accepted before Shutdown are never silently dropped:
// failures surface in the returned error.
func (c *Client) Shutdown(ctx context.Context) error {
	err := errors.Join(
		c.scoreQueue.Shutdown(ctx),
		c.eventQueue.Shutdown(ctx),
	)
	if c.redis != nil {
		if cerr := c.redis.Close(); cerr != nil {
			err = errors.Join(err, cerr)
		}
	}
	_ = c.logger.Sync()
	return err
}

// sharedPromptStore adapts the Redis store to the prompt cache's
// second-level store interface. Misses and transport failures are
// distinguished so the cache only logs the latter.
type sharedPromptStore struct {
	store *redisstore.Store
}

func (s *sharedPromptStore) Get(ctx context.Context, key string) (*types.Prompt, bool, error) {
	var p types.Prompt
	err := s.store.GetJSON(ctx, key, &p)
	if redisstore.IsCacheMiss(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return &p, true, nil
}

func (s *sharedPromptStore) Set(ctx context.Context, key string, value *types.Prompt, ttl time.Duration) error {
	return s.store.SetJSON(ctx, key, value, ttl)
}

// newLogger builds a zap logger from the log configuration.
func newLogger(cfg config.LogConfig) (*zap.Logger, error) {
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	level, err := zap.ParseAtomicLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parse log level %q: %w", cfg.Level, err)
	}

	zcfg := zap.NewProductionConfig()
	if cfg.Format == "console" {
		zcfg = zap.NewDevelopmentConfig()
	}
	zcfg.Level = level
	return zcfg.Build()
}
