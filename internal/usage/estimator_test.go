package usage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEncodingFor(t *testing.T) {
	tests := []struct {
		model string
		want  string
	}{
		{"gpt-4o", "o200k_base"},
		{"gpt-4o-mini", "o200k_base"},
		{"gpt-4o-2024-08-06", "o200k_base"}, // prefix match for dated snapshots
		{"gpt-4", "cl100k_base"},
		{"gpt-3.5-turbo-0125", "cl100k_base"},
		{"some-unknown-model", "cl100k_base"},
	}

	for _, tt := range tests {
		t.Run(tt.model, func(t *testing.T) {
			assert.Equal(t, tt.want, EncodingFor(tt.model))
		})
	}
}

func TestNewEstimator_LazyInit(t *testing.T) {
	// Construction must not touch the network; the encoding loads on
	// first CountTokens call only.
	e := NewEstimator("gpt-4o")
	assert.Equal(t, "o200k_base", e.encoding)
	assert.Nil(t, e.enc)
}
