package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/types"
)

type recordedRequest struct {
	method string
	path   string
	query  string
	user   string
	pass   string
	body   []byte
}

// testServer records requests and serves canned handlers per path.
func testServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *[]recordedRequest) {
	t.Helper()
	var mu sync.Mutex
	var recorded []recordedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, _ := r.BasicAuth()
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		recorded = append(recorded, recordedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  r.URL.RawQuery,
			user:   user,
			pass:   pass,
			body:   body,
		})
		mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, &recorded
}

func testClient(host string) *Client {
	return NewClient(Config{
		Host:      host,
		PublicKey: "pk-test",
		SecretKey: "sk-test",
		Timeout:   2 * time.Second,
	}, nil, zap.NewNop(), nil)
}

func mustScoreEvent(t *testing.T) types.Event {
	t.Helper()
	ev, err := types.NewEvent(types.EventTypeScoreCreate, &types.Score{TraceID: "t", Name: "quality", Value: 1})
	require.NoError(t, err)
	return ev
}

func TestClient_SendBatch(t *testing.T) {
	srv, recorded := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{"successes": []any{}, "errors": []any{}})
	})
	c := testClient(srv.URL)

	batch := types.Batch{mustScoreEvent(t), mustScoreEvent(t)}
	require.NoError(t, c.SendBatch(context.Background(), batch))

	require.Len(t, *recorded, 1)
	req := (*recorded)[0]
	assert.Equal(t, http.MethodPost, req.method)
	assert.Equal(t, "/api/public/ingestion", req.path)
	assert.Equal(t, "pk-test", req.user)
	assert.Equal(t, "sk-test", req.pass)

	var sent ingestionRequest
	require.NoError(t, json.Unmarshal(req.body, &sent))
	assert.Len(t, sent.Batch, 2)
	assert.Equal(t, batch.IDs(), sent.Batch.IDs(), "wire order matches batch order")
}

func TestClient_SendBatch_PartialEventRejectionAccepted(t *testing.T) {
	srv, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMultiStatus)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"successes": []map[string]any{{"id": "ok"}},
			"errors":    []map[string]any{{"id": "bad", "status": 400, "message": "invalid score"}},
		})
	})
	c := testClient(srv.URL)

	err := c.SendBatch(context.Background(), types.Batch{mustScoreEvent(t)})
	assert.NoError(t, err, "per-event rejections do not fail the accepted batch")
}

func TestClient_SendBatch_TransientAndPermanentStatuses(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCode  types.ErrorCode
		retryable bool
	}{
		{"rate limited", http.StatusTooManyRequests, types.ErrRateLimited, true},
		{"server error", http.StatusBadGateway, types.ErrUpstreamError, true},
		{"auth failure", http.StatusUnauthorized, types.ErrUnauthorized, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
				http.Error(w, tt.name, tt.status)
			})
			c := testClient(srv.URL)

			err := c.SendBatch(context.Background(), types.Batch{mustScoreEvent(t)})
			require.Error(t, err)
			assert.True(t, types.IsCode(err, tt.wantCode))
			assert.Equal(t, tt.retryable, types.IsRetryable(err))
		})
	}
}

func TestClient_FetchPrompt(t *testing.T) {
	srv, recorded := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(types.Prompt{
			Name:    "greeting",
			Version: 7,
			Type:    types.PromptTypeText,
			Prompt:  "Hello {{name}}",
			Labels:  []string{"production"},
		})
	})
	c := testClient(srv.URL)

	prompt, err := c.FetchPrompt(context.Background(), "greeting", PromptQuery{Label: "production"})
	require.NoError(t, err)
	assert.Equal(t, "greeting", prompt.Name)
	assert.Equal(t, 7, prompt.Version)

	req := (*recorded)[0]
	assert.Equal(t, "/api/public/v2/prompts/greeting", req.path)
	assert.Equal(t, "label=production", req.query)
}

func TestClient_FetchPrompt_NotFound(t *testing.T) {
	srv, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message":"prompt not found"}`, http.StatusNotFound)
	})
	c := testClient(srv.URL)

	_, err := c.FetchPrompt(context.Background(), "ghost", PromptQuery{})
	assert.True(t, types.IsCode(err, types.ErrResourceNotFound))
	assert.False(t, types.IsRetryable(err))
}

func TestClient_CreateDatasetAndItem(t *testing.T) {
	srv, recorded := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/public/datasets":
			_ = json.NewEncoder(w).Encode(types.Dataset{ID: "ds-1", Name: "evals"})
		case "/api/public/dataset-items":
			_ = json.NewEncoder(w).Encode(types.DatasetItem{ID: "item-1", DatasetName: "evals"})
		default:
			http.NotFound(w, r)
		}
	})
	c := testClient(srv.URL)
	ctx := context.Background()

	ds, err := c.CreateDataset(ctx, &types.Dataset{Name: "evals"})
	require.NoError(t, err)
	assert.Equal(t, "ds-1", ds.ID)

	item, err := c.CreateDatasetItem(ctx, &types.DatasetItem{DatasetName: "evals"})
	require.NoError(t, err)
	assert.Equal(t, "item-1", item.ID)

	assert.Len(t, *recorded, 2)
}

func TestClient_RateLimiterThrottlesIngestion(t *testing.T) {
	srv, _ := testServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{}`))
	})
	c := NewClient(Config{
		Host:           srv.URL,
		PublicKey:      "pk",
		SecretKey:      "sk",
		Timeout:        time.Second,
		RateLimitRPS:   20,
		RateLimitBurst: 1,
	}, nil, zap.NewNop(), nil)

	started := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, c.SendBatch(context.Background(), types.Batch{mustScoreEvent(t)}))
	}
	// Burst 1 at 20 rps: the second and third calls wait ~50ms each.
	assert.GreaterOrEqual(t, time.Since(started), 90*time.Millisecond)
}
