package types

import "time"

// ScoreDataType declares how a score value is interpreted.
type ScoreDataType string

const (
	ScoreDataTypeNumeric     ScoreDataType = "NUMERIC"
	ScoreDataTypeCategorical ScoreDataType = "CATEGORICAL"
	ScoreDataTypeBoolean     ScoreDataType = "BOOLEAN"
)

// Score is an evaluation result attached to a trace or a single
// observation within it. Exactly one of Value/StringValue is meaningful
// depending on DataType.
type Score struct {
	ID            string        `json:"id,omitempty"`
	TraceID       string        `json:"traceId"`
	ObservationID string        `json:"observationId,omitempty"`
	Name          string        `json:"name"`
	Value         float64       `json:"value,omitempty"`
	StringValue   string        `json:"stringValue,omitempty"`
	DataType      ScoreDataType `json:"dataType,omitempty"`
	Comment       string        `json:"comment,omitempty"`
	Timestamp     time.Time     `json:"timestamp,omitempty"`
}

// Validate checks the minimal required fields before enqueueing.
func (s *Score) Validate() error {
	if s.Name == "" {
		return NewError(ErrInvalidRequest, "score name is required")
	}
	if s.TraceID == "" {
		return NewError(ErrInvalidRequest, "score trace id is required")
	}
	if s.DataType == ScoreDataTypeCategorical && s.StringValue == "" {
		return NewError(ErrInvalidRequest, "categorical score requires a string value")
	}
	return nil
}
