// Package dispatch implements the asynchronous batching queue that ships
// telemetry events to the backend. Producers call Enqueue without ever
// blocking on network I/O; delivery happens in batches on size threshold,
// timer tick, or explicit Flush/Shutdown.
// This package is internal and should not be imported by external projects.
package dispatch

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/internal/metrics"
	"github.com/luminar-ai/luminar-go/internal/retry"
	"github.com/luminar-ai/luminar-go/types"
)

// Transport delivers one batch to the ingestion endpoint. Errors must be
// classified via types.Error so the queue can distinguish transient from
// permanent failures.
type Transport interface {
	SendBatch(ctx context.Context, batch types.Batch) error
}

// TransportFunc adapts a function to the Transport interface.
type TransportFunc func(ctx context.Context, batch types.Batch) error

// SendBatch implements Transport.
func (f TransportFunc) SendBatch(ctx context.Context, batch types.Batch) error {
	return f(ctx, batch)
}

// Config tunes one Queue.
type Config struct {
	MaxBatchSize      int
	FlushInterval     time.Duration
	MaxRetries        int
	BackoffInitial    time.Duration
	BackoffMax        time.Duration
	BackoffMultiplier float64
	ShutdownTimeout   time.Duration
}

// DefaultConfig returns sensible queue defaults.
func DefaultConfig() Config {
	return Config{
		MaxBatchSize:      50,
		FlushInterval:     5 * time.Second,
		MaxRetries:        3,
		BackoffInitial:    500 * time.Millisecond,
		BackoffMax:        10 * time.Second,
		BackoffMultiplier: 2.0,
		ShutdownTimeout:   30 * time.Second,
	}
}

// Queue buffers events and delivers them in FIFO batches. At most one
// batch is in flight at any time, so batch order matches assembly order.
//
// The pending buffer is owned by the queue and guarded by mu; flush
// execution is serialized by flushMu so concurrent Flush calls wait on the
// one in progress instead of duplicating delivery.
type Queue struct {
	name      string
	cfg       Config
	transport Transport
	retryer   retry.Retryer
	logger    *zap.Logger
	metrics   *metrics.Collector

	mu     sync.Mutex
	buf    []types.Event
	closed bool

	flushMu        sync.Mutex
	flushScheduled atomic.Bool

	stopTimer chan struct{}
	timerDone chan struct{}

	shutdownOnce sync.Once
	shutdownDone chan struct{}
	shutdownErr  error
}

// New creates a Queue and starts its interval flush loop. A non-positive
// FlushInterval disables the timer; metrics may be nil.
func New(name string, cfg Config, transport Transport, logger *zap.Logger, collector *metrics.Collector) *Queue {
	if cfg.MaxBatchSize <= 0 {
		cfg.MaxBatchSize = 50
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	q := &Queue{
		name:      name,
		cfg:       cfg,
		transport: transport,
		logger:    logger.With(zap.String("component", "dispatch"), zap.String("queue", name)),
		metrics:   collector,

		stopTimer:    make(chan struct{}),
		timerDone:    make(chan struct{}),
		shutdownDone: make(chan struct{}),
	}

	q.retryer = retry.New(&retry.Policy{
		MaxRetries:   cfg.MaxRetries,
		InitialDelay: cfg.BackoffInitial,
		MaxDelay:     cfg.BackoffMax,
		Multiplier:   cfg.BackoffMultiplier,
		Jitter:       true,
		Retryable:    types.IsRetryable,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			q.metrics.RecordRetry(q.name)
		},
	}, q.logger)

	if cfg.FlushInterval > 0 {
		go q.timerLoop()
	} else {
		close(q.timerDone)
	}
	return q
}

// Enqueue appends an event to the pending buffer. It never blocks on
// network I/O; reaching MaxBatchSize schedules an asynchronous flush.
// After Shutdown it fails with types.ErrQueueClosed.
func (q *Queue) Enqueue(ev types.Event) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return types.NewError(types.ErrQueueClosed, "queue "+q.name+" is shut down")
	}
	q.buf = append(q.buf, ev)
	depth := len(q.buf)
	q.mu.Unlock()

	q.metrics.RecordEnqueue(q.name, string(ev.Type), depth)

	if depth >= q.cfg.MaxBatchSize && q.flushScheduled.CompareAndSwap(false, true) {
		go func() {
			defer q.flushScheduled.Store(false)
			if err := q.Flush(context.Background()); err != nil {
				q.logger.Warn("threshold flush failed", zap.Error(err))
			}
		}()
	}
	return nil
}

// Pending returns the number of buffered events.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.buf)
}

// Flush drains the pending buffer into FIFO batches and delivers them,
// waiting for completion including retries. A flush already in progress is
// awaited; events taken by it are never delivered twice. Failures are
// aggregated into a *DeliveryReport instead of failing fast, so callers
// can log and continue.
func (q *Queue) Flush(ctx context.Context) error {
	q.flushMu.Lock()
	defer q.flushMu.Unlock()

	started := time.Now()
	defer func() {
		q.metrics.RecordFlush(q.name, time.Since(started))
	}()

	q.mu.Lock()
	pending := q.buf
	q.buf = nil
	q.mu.Unlock()
	q.metrics.RecordQueueDepth(q.name, 0)

	if len(pending) == 0 {
		return nil
	}

	report := &DeliveryReport{}
	for i := 0; i < len(pending); i += q.cfg.MaxBatchSize {
		end := min(i+q.cfg.MaxBatchSize, len(pending))
		batch := types.Batch(pending[i:end])

		if err := q.deliver(ctx, batch); err != nil {
			// Retry budget exhausted or permanent failure: the batch is
			// discarded, not requeued, to bound memory under outage.
			report.Failed = append(report.Failed, BatchFailure{EventIDs: batch.IDs(), Err: err})
			q.metrics.RecordBatch(q.name, false, len(batch))
			q.logger.Error("batch delivery failed",
				zap.Int("events", len(batch)),
				zap.Error(err),
			)
			continue
		}
		report.Delivered += len(batch)
		q.metrics.RecordBatch(q.name, true, len(batch))
	}

	if len(report.Failed) > 0 {
		return report
	}
	return nil
}

// deliver sends one batch, retrying transient failures with backoff.
func (q *Queue) deliver(ctx context.Context, batch types.Batch) error {
	return q.retryer.Do(ctx, func() error {
		return q.transport.SendBatch(ctx, batch)
	})
}

// Shutdown stops the timer, closes the queue to new events, and attempts
// final delivery of everything buffered. It is idempotent: a second call
// waits for the first and observes the same outcome. The final flush is
// bounded by ShutdownTimeout; on expiry undelivered events are reported
// rather than waited on indefinitely.
func (q *Queue) Shutdown(ctx context.Context) error {
	q.shutdownOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		q.mu.Unlock()

		close(q.stopTimer)
		<-q.timerDone

		fctx := ctx
		if q.cfg.ShutdownTimeout > 0 {
			var cancel context.CancelFunc
			fctx, cancel = context.WithTimeout(ctx, q.cfg.ShutdownTimeout)
			defer cancel()
		}
		q.shutdownErr = q.Flush(fctx)

		q.logger.Info("queue shut down", zap.Int("undelivered", failedEvents(q.shutdownErr)))
		close(q.shutdownDone)
	})

	select {
	case <-q.shutdownDone:
		return q.shutdownErr
	case <-ctx.Done():
		return ctx.Err()
	}
}

// timerLoop flushes the buffer periodically while events are pending.
func (q *Queue) timerLoop() {
	defer close(q.timerDone)

	ticker := time.NewTicker(q.cfg.FlushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-q.stopTimer:
			return
		case <-ticker.C:
			if q.Pending() == 0 {
				continue
			}
			if err := q.Flush(context.Background()); err != nil {
				q.logger.Warn("interval flush failed", zap.Error(err))
			}
		}
	}
}

func failedEvents(err error) int {
	if report, ok := err.(*DeliveryReport); ok {
		return report.FailedEvents()
	}
	return 0
}
