package luminar

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/luminar-ai/luminar-go/api"
)

func TestPromptKey_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		prompt    string
		version   int
		label     string
		wantKey   string
		wantQuery api.PromptQuery
	}{
		{
			name:      "default resolves production",
			prompt:    "greeting",
			wantKey:   "greeting@l:production",
			wantQuery: api.PromptQuery{Label: "production"},
		},
		{
			name:      "version pin",
			prompt:    "greeting",
			version:   7,
			wantKey:   "greeting@v:7",
			wantQuery: api.PromptQuery{Version: 7},
		},
		{
			name:      "label",
			prompt:    "greeting",
			label:     "staging",
			wantKey:   "greeting@l:staging",
			wantQuery: api.PromptQuery{Label: "staging"},
		},
		{
			name:      "version wins over label",
			prompt:    "greeting",
			version:   2,
			label:     "staging",
			wantKey:   "greeting@v:2",
			wantQuery: api.PromptQuery{Version: 2},
		},
		{
			name:      "label that looks like a version stays a label",
			prompt:    "greeting",
			label:     "v2",
			wantKey:   "greeting@l:v2",
			wantQuery: api.PromptQuery{Label: "v2"},
		},
		{
			name:      "name containing at-sign survives",
			prompt:    "team@greeting",
			label:     "production",
			wantKey:   "team@greeting@l:production",
			wantQuery: api.PromptQuery{Label: "production"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := promptKey(tt.prompt, tt.version, tt.label)
			assert.Equal(t, tt.wantKey, key)

			name, query := parsePromptKey(key)
			assert.Equal(t, tt.prompt, name)
			assert.Equal(t, tt.wantQuery, query)
		})
	}
}
