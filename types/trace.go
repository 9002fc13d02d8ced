package types

import (
	"encoding/json"
	"time"
)

// Trace is the root record of one observed application interaction.
type Trace struct {
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	UserID    string          `json:"userId,omitempty"`
	SessionID string          `json:"sessionId,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	Output    json.RawMessage `json:"output,omitempty"`
	Metadata  map[string]any  `json:"metadata,omitempty"`
	Tags      []string        `json:"tags,omitempty"`
	Timestamp time.Time       `json:"timestamp,omitempty"`
	Public    bool            `json:"public,omitempty"`
}

// ObservationType distinguishes the kinds of observations under a trace.
type ObservationType string

const (
	ObservationTypeSpan       ObservationType = "SPAN"
	ObservationTypeGeneration ObservationType = "GENERATION"
	ObservationTypeEvent      ObservationType = "EVENT"
)

// ObservationLevel grades an observation for filtering in the UI.
type ObservationLevel string

const (
	LevelDebug   ObservationLevel = "DEBUG"
	LevelDefault ObservationLevel = "DEFAULT"
	LevelWarning ObservationLevel = "WARNING"
	LevelError   ObservationLevel = "ERROR"
)

// Usage reports token consumption of a generation. When the provider does
// not return usage, the SDK can estimate it locally (see internal/usage).
type Usage struct {
	InputTokens  int `json:"inputTokens,omitempty"`
	OutputTokens int `json:"outputTokens,omitempty"`
	TotalTokens  int `json:"totalTokens,omitempty"`
}

// Total returns TotalTokens, deriving it from the parts when unset.
func (u Usage) Total() int {
	if u.TotalTokens > 0 {
		return u.TotalTokens
	}
	return u.InputTokens + u.OutputTokens
}

// Observation is a span, generation, or point event nested under a trace.
type Observation struct {
	ID                  string           `json:"id,omitempty"`
	TraceID             string           `json:"traceId"`
	ParentObservationID string           `json:"parentObservationId,omitempty"`
	Type                ObservationType  `json:"type"`
	Name                string           `json:"name,omitempty"`
	StartTime           time.Time        `json:"startTime,omitempty"`
	EndTime             *time.Time       `json:"endTime,omitempty"`
	Model               string           `json:"model,omitempty"`
	ModelParameters     map[string]any   `json:"modelParameters,omitempty"`
	Input               json.RawMessage  `json:"input,omitempty"`
	Output              json.RawMessage  `json:"output,omitempty"`
	Usage               *Usage           `json:"usage,omitempty"`
	Level               ObservationLevel `json:"level,omitempty"`
	StatusMessage       string           `json:"statusMessage,omitempty"`
	Metadata            map[string]any   `json:"metadata,omitempty"`
}
