package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// EventType identifies the kind of telemetry record an Event carries.
type EventType string

const (
	EventTypeTraceCreate       EventType = "trace-create"
	EventTypeTraceUpdate       EventType = "trace-update"
	EventTypeObservationCreate EventType = "observation-create"
	EventTypeObservationUpdate EventType = "observation-update"
	EventTypeScoreCreate       EventType = "score-create"
)

// Event is a single unit of telemetry destined for the backend. It is
// immutable once enqueued: the body is serialized at construction time so
// later mutation of the source record cannot change what is shipped.
type Event struct {
	ID        string          `json:"id"`
	Type      EventType       `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Body      json.RawMessage `json:"body"`
}

// NewEvent builds an Event with a client-generated unique ID and the
// current time, serializing body immediately.
func NewEvent(eventType EventType, body any) (Event, error) {
	raw, err := json.Marshal(body)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s event body: %w", eventType, err)
	}
	return Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Body:      raw,
	}, nil
}

// Batch is an ordered group of Events sent together in one network call.
// Order matches enqueue order; a batch is the unit of delivery and retry.
type Batch []Event

// IDs returns the event IDs in batch order.
func (b Batch) IDs() []string {
	ids := make([]string, len(b))
	for i, ev := range b {
		ids[i] = ev.ID
	}
	return ids
}
