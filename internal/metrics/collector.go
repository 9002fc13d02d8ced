// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// Collector records SDK metrics: dispatch queue activity, prompt cache
// effectiveness, and backend API calls. A nil *Collector is a valid noop
// receiver so metrics stay optional throughout the SDK.
type Collector struct {
	// Queue metrics
	eventsEnqueued *prometheus.CounterVec
	eventsDropped  *prometheus.CounterVec
	queueDepth     *prometheus.GaugeVec
	batchesSent    *prometheus.CounterVec
	batchRetries   *prometheus.CounterVec
	flushDuration  *prometheus.HistogramVec

	// Cache metrics
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	// API metrics
	apiRequests *prometheus.CounterVec
	apiDuration *prometheus.HistogramVec

	logger *zap.Logger
}

// NewCollector creates a metrics collector registered on reg. Each client
// owns its own registry, so two clients in one process never collide.
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.eventsEnqueued = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_enqueued_total",
			Help:      "Total number of telemetry events accepted by a queue",
		},
		[]string{"queue", "type"},
	)

	c.eventsDropped = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_dropped_total",
			Help:      "Total number of events discarded after delivery failed terminally",
		},
		[]string{"queue"},
	)

	c.queueDepth = factory.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "queue_depth",
			Help:      "Number of events currently buffered",
		},
		[]string{"queue"},
	)

	c.batchesSent = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batches_sent_total",
			Help:      "Total number of batch delivery outcomes",
		},
		[]string{"queue", "status"}, // status: delivered, failed
	)

	c.batchRetries = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "batch_retries_total",
			Help:      "Total number of batch delivery retries",
		},
		[]string{"queue"},
	)

	c.flushDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Flush duration in seconds, including retries",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 5, 15, 30},
		},
		[]string{"queue"},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_hits_total",
			Help:      "Total number of cache hits",
		},
		[]string{"cache", "state"}, // state: fresh, stale
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_misses_total",
			Help:      "Total number of cache misses",
		},
		[]string{"cache"},
	)

	c.apiRequests = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "api_requests_total",
			Help:      "Total number of backend API requests",
		},
		[]string{"endpoint", "status"},
	)

	c.apiDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "api_request_duration_seconds",
			Help:      "Backend API request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	return c
}

// RecordEnqueue records an accepted event and the resulting queue depth.
func (c *Collector) RecordEnqueue(queue string, eventType string, depth int) {
	if c == nil {
		return
	}
	c.eventsEnqueued.WithLabelValues(queue, eventType).Inc()
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordQueueDepth records the buffered event count after a drain.
func (c *Collector) RecordQueueDepth(queue string, depth int) {
	if c == nil {
		return
	}
	c.queueDepth.WithLabelValues(queue).Set(float64(depth))
}

// RecordBatch records one batch delivery outcome.
func (c *Collector) RecordBatch(queue string, delivered bool, size int) {
	if c == nil {
		return
	}
	status := "delivered"
	if !delivered {
		status = "failed"
		c.eventsDropped.WithLabelValues(queue).Add(float64(size))
	}
	c.batchesSent.WithLabelValues(queue, status).Inc()
}

// RecordRetry records one batch delivery retry.
func (c *Collector) RecordRetry(queue string) {
	if c == nil {
		return
	}
	c.batchRetries.WithLabelValues(queue).Inc()
}

// RecordFlush records the duration of one flush cycle.
func (c *Collector) RecordFlush(queue string, duration time.Duration) {
	if c == nil {
		return
	}
	c.flushDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

// RecordCacheHit records a cache hit; state is "fresh" or "stale".
func (c *Collector) RecordCacheHit(cache, state string) {
	if c == nil {
		return
	}
	c.cacheHits.WithLabelValues(cache, state).Inc()
}

// RecordCacheMiss records a cache miss.
func (c *Collector) RecordCacheMiss(cache string) {
	if c == nil {
		return
	}
	c.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordAPIRequest records one backend API call.
func (c *Collector) RecordAPIRequest(endpoint, status string, duration time.Duration) {
	if c == nil {
		return
	}
	c.apiRequests.WithLabelValues(endpoint, status).Inc()
	c.apiDuration.WithLabelValues(endpoint).Observe(duration.Seconds())
}
