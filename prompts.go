package luminar

import (
	"context"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/luminar-ai/luminar-go/api"
	"github.com/luminar-ai/luminar-go/internal/redisstore"
	"github.com/luminar-ai/luminar-go/internal/rescache"
	"github.com/luminar-ai/luminar-go/types"
)

// defaultPromptLabel selects the deployed version when neither a version
// nor a label is given.
const defaultPromptLabel = "production"

// GetPromptOptions selects a prompt version and tunes the lookup. Zero
// value fetches the production-labeled version with default caching.
type GetPromptOptions struct {
	// Version pins an exact version; takes precedence over Label.
	Version int
	// Label selects the version carrying this label.
	Label string
	// TTL overrides the cache freshness window for this entry.
	TTL time.Duration
	// Fallback is returned when the prompt cannot be fetched and no
	// cached value exists. It is marked IsFallback and never cached.
	Fallback *types.Prompt
}

// PromptManager resolves versioned prompts through the read-through
// cache. A fresh cache hit costs no network round trip; a stale hit is
// served immediately while a background refresh runs.
type PromptManager struct {
	cache  *rescache.Cache[*types.Prompt]
	redis  *redisstore.Store
	logger *zap.Logger
}

// Get resolves a prompt by name. opts may be nil.
func (m *PromptManager) Get(ctx context.Context, name string, opts *GetPromptOptions) (*types.Prompt, error) {
	if name == "" {
		return nil, types.NewError(types.ErrInvalidRequest, "prompt name is required")
	}
	if opts == nil {
		opts = &GetPromptOptions{}
	}

	resolve := rescache.ResolveOptions[*types.Prompt]{TTL: opts.TTL}
	if opts.Fallback != nil {
		fb := *opts.Fallback
		fb.Name = name
		fb.IsFallback = true
		fbPtr := &fb
		resolve.Fallback = &fbPtr
	}

	return m.cache.Resolve(ctx, promptKey(name, opts.Version, opts.Label), resolve)
}

// Compile resolves a text prompt and substitutes {{variable}}
// placeholders in one call.
func (m *PromptManager) Compile(ctx context.Context, name string, vars map[string]string, opts *GetPromptOptions) (string, error) {
	prompt, err := m.Get(ctx, name, opts)
	if err != nil {
		return "", err
	}
	return prompt.Compile(vars), nil
}

// Invalidate drops the cached entry for a prompt selector so the next Get
// fetches from the backend. The shared Redis entry, when configured, is
// removed best effort.
func (m *PromptManager) Invalidate(ctx context.Context, name string, opts *GetPromptOptions) {
	if opts == nil {
		opts = &GetPromptOptions{}
	}
	key := promptKey(name, opts.Version, opts.Label)
	m.cache.Invalidate(key)

	if m.redis != nil {
		if err := m.redis.Delete(ctx, key); err != nil {
			m.logger.Debug("shared prompt store invalidation failed",
				zap.String("key", key), zap.Error(err))
		}
	}
}

// promptKey encodes a prompt selector as a cache key. Version pins win
// over labels; an unqualified name resolves the production label. The
// "v:"/"l:" markers keep a label like "v2" unambiguous.
func promptKey(name string, version int, label string) string {
	switch {
	case version > 0:
		return name + "@v:" + strconv.Itoa(version)
	case label != "":
		return name + "@l:" + label
	default:
		return name + "@l:" + defaultPromptLabel
	}
}

// parsePromptKey inverts promptKey for the cache's fetcher.
func parsePromptKey(key string) (string, api.PromptQuery) {
	at := strings.LastIndex(key, "@")
	if at < 0 {
		return key, api.PromptQuery{Label: defaultPromptLabel}
	}
	name, selector := key[:at], key[at+1:]

	if v, ok := strings.CutPrefix(selector, "v:"); ok {
		if version, err := strconv.Atoi(v); err == nil && version > 0 {
			return name, api.PromptQuery{Version: version}
		}
	}
	if l, ok := strings.CutPrefix(selector, "l:"); ok {
		return name, api.PromptQuery{Label: l}
	}
	return name, api.PromptQuery{Label: selector}
}
