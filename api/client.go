// Package api implements the REST transport of the SDK: batch event
// ingestion, prompt retrieval, and dataset management against the Luminar
// backend. It classifies HTTP failures into the transient/permanent error
// taxonomy consumed by the dispatch queue and the prompt cache.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/luminar-ai/luminar-go/internal/metrics"
	"github.com/luminar-ai/luminar-go/types"
)

// Config configures the REST client.
type Config struct {
	// Host is the backend base URL, e.g. https://api.luminar.dev.
	Host string
	// PublicKey and SecretKey are the project credentials, sent as HTTP
	// basic auth.
	PublicKey string
	SecretKey string
	// Timeout bounds each HTTP call.
	Timeout time.Duration
	// RateLimitRPS throttles ingestion client-side; 0 disables.
	RateLimitRPS   float64
	RateLimitBurst int
	// UserAgent overrides the default User-Agent header.
	UserAgent string
}

// Client is the REST transport. It is safe for concurrent use.
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
	metrics *metrics.Collector
}

const defaultUserAgent = "luminar-go"

// NewClient creates a REST client. An httpClient of nil uses a default
// client with cfg.Timeout; metrics may be nil.
func NewClient(cfg Config, httpClient *http.Client, logger *zap.Logger, collector *metrics.Collector) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		burst := cfg.RateLimitBurst
		if burst <= 0 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), burst)
	}

	return &Client{
		cfg:     cfg,
		http:    httpClient,
		limiter: limiter,
		logger:  logger.With(zap.String("component", "api")),
		metrics: collector,
	}
}

// ingestionRequest is the wire shape of the batch ingestion endpoint.
type ingestionRequest struct {
	Batch types.Batch `json:"batch"`
}

// ingestionResponse reports per-event outcomes. The endpoint accepts a
// batch as a whole even when individual events are rejected.
type ingestionResponse struct {
	Successes []struct {
		ID string `json:"id"`
	} `json:"successes"`
	Errors []struct {
		ID      string `json:"id"`
		Status  int    `json:"status"`
		Message string `json:"message"`
	} `json:"errors"`
}

// SendBatch delivers one event batch to the ingestion endpoint. Per-event
// rejections inside an accepted batch are logged and counted but do not
// fail the batch; they are data errors the backend has already recorded.
func (c *Client) SendBatch(ctx context.Context, batch types.Batch) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return types.WrapError(types.ErrTimeout, "rate limiter wait aborted", err)
		}
	}

	body, err := json.Marshal(ingestionRequest{Batch: batch})
	if err != nil {
		return types.WrapError(types.ErrInvalidRequest, "marshal ingestion batch", err)
	}

	var resp ingestionResponse
	if err := c.do(ctx, http.MethodPost, "/api/public/ingestion", nil, body, &resp); err != nil {
		return err
	}

	for _, evErr := range resp.Errors {
		c.logger.Warn("event rejected by backend",
			zap.String("event_id", evErr.ID),
			zap.Int("status", evErr.Status),
			zap.String("message", evErr.Message),
		)
	}
	return nil
}

// PromptQuery selects a prompt version. Zero values fetch the version
// carrying the production label.
type PromptQuery struct {
	Version int
	Label   string
}

// FetchPrompt retrieves one prompt by name.
func (c *Client) FetchPrompt(ctx context.Context, name string, query PromptQuery) (*types.Prompt, error) {
	params := url.Values{}
	if query.Version > 0 {
		params.Set("version", strconv.Itoa(query.Version))
	}
	if query.Label != "" {
		params.Set("label", query.Label)
	}

	var prompt types.Prompt
	path := "/api/public/v2/prompts/" + url.PathEscape(name)
	if err := c.do(ctx, http.MethodGet, path, params, nil, &prompt); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// CreateDataset creates a dataset, returning the stored record.
func (c *Client) CreateDataset(ctx context.Context, dataset *types.Dataset) (*types.Dataset, error) {
	body, err := json.Marshal(dataset)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidRequest, "marshal dataset", err)
	}
	var created types.Dataset
	if err := c.do(ctx, http.MethodPost, "/api/public/datasets", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// CreateDatasetItem adds an item to a dataset.
func (c *Client) CreateDatasetItem(ctx context.Context, item *types.DatasetItem) (*types.DatasetItem, error) {
	body, err := json.Marshal(item)
	if err != nil {
		return nil, types.WrapError(types.ErrInvalidRequest, "marshal dataset item", err)
	}
	var created types.DatasetItem
	if err := c.do(ctx, http.MethodPost, "/api/public/dataset-items", nil, body, &created); err != nil {
		return nil, err
	}
	return &created, nil
}

// do executes one HTTP call and decodes the JSON response into out.
func (c *Client) do(ctx context.Context, method, path string, params url.Values, body []byte, out any) error {
	endpoint := endpointLabel(path)
	u := strings.TrimRight(c.cfg.Host, "/") + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return types.WrapError(types.ErrInvalidRequest, "build request", err)
	}
	req.SetBasicAuth(c.cfg.PublicKey, c.cfg.SecretKey)
	req.Header.Set("User-Agent", c.cfg.UserAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	elapsed := time.Since(started)
	if err != nil {
		c.metrics.RecordAPIRequest(endpoint, "network_error", elapsed)
		return classifyNetworkError(err)
	}
	defer resp.Body.Close()

	c.metrics.RecordAPIRequest(endpoint, statusClass(resp.StatusCode), elapsed)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg := readErrMsg(resp.Body)
		c.logger.Debug("backend call failed",
			zap.String("endpoint", endpoint),
			zap.Int("status", resp.StatusCode),
			zap.String("message", msg),
		)
		return ClassifyStatus(resp.StatusCode, msg)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.WrapError(types.ErrUpstreamError, "decode response", err)
	}
	return nil
}

// endpointLabel reduces a request path to a low-cardinality metrics label.
func endpointLabel(path string) string {
	switch {
	case strings.HasPrefix(path, "/api/public/ingestion"):
		return "ingestion"
	case strings.HasPrefix(path, "/api/public/v2/prompts"):
		return "prompts"
	case strings.HasPrefix(path, "/api/public/dataset"):
		return "datasets"
	default:
		return "other"
	}
}

// readErrMsg extracts a short error message from an error response body.
func readErrMsg(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(data) == 0 {
		return ""
	}
	var envelope struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(data, &envelope) == nil {
		if envelope.Message != "" {
			return envelope.Message
		}
		if envelope.Error != "" {
			return envelope.Error
		}
	}
	return strings.TrimSpace(string(data))
}

func statusClass(code int) string {
	switch {
	case code >= 200 && code < 300:
		return "2xx"
	case code >= 300 && code < 400:
		return "3xx"
	case code >= 400 && code < 500:
		return "4xx"
	case code >= 500:
		return "5xx"
	default:
		return "unknown"
	}
}
