package otelconv

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luminar-ai/luminar-go/types"
)

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, kv := range attrs {
		m[kv.Key] = kv.Value
	}
	return m
}

func TestTraceAttributes(t *testing.T) {
	tr := &types.Trace{
		Name:      "checkout",
		UserID:    "u-1",
		SessionID: "s-1",
		Tags:      []string{"prod", "eu"},
	}

	m := attrMap(TraceAttributes(tr))
	assert.Equal(t, "checkout", m[KeyTraceName].AsString())
	assert.Equal(t, "u-1", m[KeyTraceUserID].AsString())
	assert.Equal(t, []string{"prod", "eu"}, m[KeyTraceTags].AsStringSlice())
}

func TestTraceAttributes_SkipsEmptyFields(t *testing.T) {
	attrs := TraceAttributes(&types.Trace{Name: "only-name"})
	assert.Len(t, attrs, 1)
}

func TestObservationAttributes_WithUsage(t *testing.T) {
	o := &types.Observation{
		Type:  types.ObservationTypeGeneration,
		Name:  "completion",
		Model: "gpt-4o",
		Usage: &types.Usage{InputTokens: 12, OutputTokens: 30},
	}

	m := attrMap(ObservationAttributes(o))
	assert.Equal(t, "GENERATION", m[KeyObservationType].AsString())
	assert.Equal(t, "gpt-4o", m[KeyModel].AsString())
	assert.Equal(t, int64(12), m[KeyUsageInput].AsInt64())
	assert.Equal(t, int64(42), m[KeyUsageTotal].AsInt64(), "total derived from parts")
}

func TestIDsFromContext(t *testing.T) {
	assert.Empty(t, TraceIDFromContext(context.Background()), "no span context yields empty")

	traceID, err := trace.TraceIDFromHex("0102030405060708090a0b0c0d0e0f10")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("0102030405060708")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{TraceID: traceID, SpanID: spanID})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	assert.Equal(t, "0102030405060708090a0b0c0d0e0f10", TraceIDFromContext(ctx))
	assert.Equal(t, "0102030405060708", SpanIDFromContext(ctx))
}
