package types

import (
	"encoding/json"
	"time"
)

// Dataset is a named collection of items used for experiments.
type Dataset struct {
	ID          string         `json:"id,omitempty"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
}

// DatasetItem is one input/expected-output pair within a dataset.
type DatasetItem struct {
	ID             string          `json:"id,omitempty"`
	DatasetName    string          `json:"datasetName"`
	Input          json.RawMessage `json:"input,omitempty"`
	ExpectedOutput json.RawMessage `json:"expectedOutput,omitempty"`
	Metadata       map[string]any  `json:"metadata,omitempty"`
	SourceTraceID  string          `json:"sourceTraceId,omitempty"`
}
