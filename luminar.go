// Package luminar is the official Go SDK for the Luminar observability
// platform. It records traces, observations, and scores through a
// non-blocking batching queue, manages versioned prompts through a TTL
// read-through cache, and exposes dataset management over the REST API.
//
// Quick start:
//
//	client, err := luminar.New(
//		luminar.WithHost("https://api.luminar.dev"),
//		luminar.WithKeys("pk-...", "sk-..."),
//	)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer client.Shutdown(context.Background())
//
//	trace, _ := client.Traces().Create(ctx, &types.Trace{Name: "checkout"})
//	_ = client.Scores().Create(&types.Score{TraceID: trace.ID, Name: "quality", Value: 0.9})
//
// Credentials and tuning can also come from a YAML file or LUMINAR_*
// environment variables; see the config package.
package luminar

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/config"
)

// Option customizes client construction.
type Option func(*options)

type options struct {
	cfg        *config.Config
	configPath string
	host       string
	publicKey  string
	secretKey  string
	logger     *zap.Logger
	httpClient *http.Client
}

// WithConfig supplies a complete configuration, bypassing file and
// environment loading. It is validated by New.
func WithConfig(cfg *config.Config) Option {
	return func(o *options) { o.cfg = cfg }
}

// WithConfigFile loads configuration from a YAML file before applying
// environment overrides.
func WithConfigFile(path string) Option {
	return func(o *options) { o.configPath = path }
}

// WithHost overrides the backend base URL.
func WithHost(host string) Option {
	return func(o *options) { o.host = host }
}

// WithKeys sets the project credentials.
func WithKeys(publicKey, secretKey string) Option {
	return func(o *options) {
		o.publicKey = publicKey
		o.secretKey = secretKey
	}
}

// WithLogger replaces the logger built from config.Log.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithHTTPClient replaces the default HTTP client used for all backend
// calls, e.g. to add a proxy or custom TLS configuration.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// resolveConfig materializes the configuration and applies field-level
// overrides, which win regardless of argument order.
func (o *options) resolveConfig() (*config.Config, error) {
	cfg := o.cfg
	if cfg == nil {
		loader := config.NewLoader()
		if o.configPath != "" {
			loader = loader.WithConfigPath(o.configPath)
		}
		loaded, err := loader.Load()
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	if o.host != "" {
		cfg.API.Host = o.host
	}
	if o.publicKey != "" {
		cfg.API.PublicKey = o.publicKey
	}
	if o.secretKey != "" {
		cfg.API.SecretKey = o.secretKey
	}
	return cfg, nil
}

// New creates a Client. Configuration precedence: defaults, then YAML
// file (WithConfigFile), then LUMINAR_* environment variables, then
// field-level options such as WithHost and WithKeys.
func New(opts ...Option) (*Client, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	cfg, err := o.resolveConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return newClient(cfg, o)
}
