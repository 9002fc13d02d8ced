package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestCollector_RecordsAndGathers(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("luminar", reg, zap.NewNop())

	c.RecordEnqueue("scores", "score-create", 1)
	c.RecordEnqueue("scores", "score-create", 2)
	c.RecordBatch("scores", true, 2)
	c.RecordBatch("scores", false, 3)
	c.RecordRetry("scores")
	c.RecordFlush("scores", 120*time.Millisecond)
	c.RecordCacheHit("prompts", "fresh")
	c.RecordCacheMiss("prompts")
	c.RecordAPIRequest("ingestion", "2xx", 80*time.Millisecond)

	families, err := reg.Gather()
	require.NoError(t, err)

	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["luminar_events_enqueued_total"])
	assert.True(t, names["luminar_events_dropped_total"])
	assert.True(t, names["luminar_batches_sent_total"])
	assert.True(t, names["luminar_cache_hits_total"])
	assert.True(t, names["luminar_api_requests_total"])
}

func TestCollector_NilReceiverIsNoop(t *testing.T) {
	var c *Collector

	// Must not panic.
	c.RecordEnqueue("scores", "score-create", 1)
	c.RecordQueueDepth("scores", 0)
	c.RecordBatch("scores", true, 1)
	c.RecordRetry("scores")
	c.RecordFlush("scores", time.Millisecond)
	c.RecordCacheHit("prompts", "stale")
	c.RecordCacheMiss("prompts")
	c.RecordAPIRequest("prompts", "5xx", time.Millisecond)
}

func TestCollector_TwoRegistriesDoNotCollide(t *testing.T) {
	a := NewCollector("luminar", prometheus.NewRegistry(), zap.NewNop())
	b := NewCollector("luminar", prometheus.NewRegistry(), zap.NewNop())

	a.RecordCacheMiss("prompts")
	b.RecordCacheMiss("prompts")
}
