// Package otelconv maps SDK records to OpenTelemetry attributes and links
// them to an existing OTel trace. The SDK never owns a TracerProvider or
// exporter; span construction belongs to the host application.
package otelconv

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/luminar-ai/luminar-go/types"
)

// Attribute keys under the luminar namespace.
const (
	KeyTraceName        = attribute.Key("luminar.trace.name")
	KeyTraceUserID      = attribute.Key("luminar.trace.user_id")
	KeyTraceSessionID   = attribute.Key("luminar.trace.session_id")
	KeyTraceTags        = attribute.Key("luminar.trace.tags")
	KeyObservationType  = attribute.Key("luminar.observation.type")
	KeyObservationName  = attribute.Key("luminar.observation.name")
	KeyObservationLevel = attribute.Key("luminar.observation.level")
	KeyModel            = attribute.Key("luminar.observation.model")
	KeyUsageInput       = attribute.Key("luminar.usage.input_tokens")
	KeyUsageOutput      = attribute.Key("luminar.usage.output_tokens")
	KeyUsageTotal       = attribute.Key("luminar.usage.total_tokens")
)

// TraceAttributes converts a trace record to OTel attributes, skipping
// empty fields.
func TraceAttributes(t *types.Trace) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 4)
	if t.Name != "" {
		attrs = append(attrs, KeyTraceName.String(t.Name))
	}
	if t.UserID != "" {
		attrs = append(attrs, KeyTraceUserID.String(t.UserID))
	}
	if t.SessionID != "" {
		attrs = append(attrs, KeyTraceSessionID.String(t.SessionID))
	}
	if len(t.Tags) > 0 {
		attrs = append(attrs, KeyTraceTags.StringSlice(t.Tags))
	}
	return attrs
}

// ObservationAttributes converts an observation record to OTel attributes.
func ObservationAttributes(o *types.Observation) []attribute.KeyValue {
	attrs := make([]attribute.KeyValue, 0, 6)
	attrs = append(attrs, KeyObservationType.String(string(o.Type)))
	if o.Name != "" {
		attrs = append(attrs, KeyObservationName.String(o.Name))
	}
	if o.Level != "" {
		attrs = append(attrs, KeyObservationLevel.String(string(o.Level)))
	}
	if o.Model != "" {
		attrs = append(attrs, KeyModel.String(o.Model))
	}
	if o.Usage != nil {
		attrs = append(attrs,
			KeyUsageInput.Int(o.Usage.InputTokens),
			KeyUsageOutput.Int(o.Usage.OutputTokens),
			KeyUsageTotal.Int(o.Usage.Total()),
		)
	}
	return attrs
}

// TraceIDFromContext returns the active OTel trace ID from ctx, or empty
// when no valid span context is present. Used to attach SDK records to an
// application trace already in flight.
func TraceIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.TraceID().String()
}

// SpanIDFromContext returns the active OTel span ID from ctx, or empty.
func SpanIDFromContext(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return ""
	}
	return sc.SpanID().String()
}
